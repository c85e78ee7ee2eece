// Package expenseform implements the expense submission form: a two-step
// PAYEE -> EXPENSE flow ending in SUBMITTED. All draft mutations go through
// one reducer; async rate lookups and slug checks are fenced by a
// generation counter so results arriving after a reset are discarded.
package expenseform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-intake/internal/application/dispatcher"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/event"
	"github.com/garyjia/expense-intake/internal/domain/rules"
	domainwf "github.com/garyjia/expense-intake/internal/domain/workflow"
	"github.com/garyjia/expense-intake/internal/ocr"
	"github.com/garyjia/expense-intake/internal/payee"
	"github.com/garyjia/expense-intake/internal/submission"
	"github.com/garyjia/expense-intake/internal/validation"
	"github.com/garyjia/expense-intake/pkg/utils"
)

// RateResolver plans and resolves item exchange rates
type RateResolver interface {
	Today() time.Time
	Plan(item entity.ExpenseItem, expenseCurrency string) currency.Plan
	Resolve(ctx context.Context, req currency.Request) (entity.ExchangeRate, error)
}

// SlugChecker checks invited organization slug availability
type SlugChecker interface {
	Check(ctx context.Context, slug string) (bool, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Dependencies are the collaborators a form talks to
type Dependencies struct {
	Rates      RateResolver
	Slugs      SlugChecker
	Submitter  port.SubmissionService
	Dispatcher dispatcher.Dispatcher
	Logger     Logger
}

// Config seeds a new form
type Config struct {
	// SessionID identifies the form; generated when empty
	SessionID string
	// StorageKey is the local persistence key; defaults to the draft key or session id
	StorageKey string
	// ExpenseType of a fresh draft; ignored when Draft is set
	ExpenseType entity.ExpenseType
	// DefaultCurrency of a fresh draft, usually the collective currency
	DefaultCurrency string
	// Draft seeds the form from a persisted or existing expense
	Draft *entity.ExpenseDraft
	// Policy carries host settings for validation
	Policy validation.Policy
}

// Form owns one expense draft and its workflow state. It is safe for
// concurrent use.
type Form struct {
	mu sync.Mutex

	sessionID       string
	storageKey      string
	defaultCurrency string
	policy          validation.Policy
	chargeMode      bool
	editing         bool

	draft   entity.ExpenseDraft
	machine domainwf.StateMachine

	// generation is bumped on reset, cancel and close; async results
	// carrying an older generation are dropped
	generation   uint64
	pending      map[string]currency.Request
	slugInFlight string
	submitting   bool
	closed       bool
	result       *submission.Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rates      RateResolver
	slugs      SlugChecker
	submitter  port.SubmissionService
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// New creates a form. CHARGE drafts start at EXPENSE with their payee fixed.
func New(cfg Config, deps Dependencies) (*Form, error) {
	if deps.Rates == nil {
		return nil, errors.New("rate resolver is required")
	}
	if deps.Submitter == nil {
		return nil, errors.New("submission service is required")
	}

	var draft entity.ExpenseDraft
	if cfg.Draft != nil {
		draft = cfg.Draft.Clone()
	} else {
		draft = entity.NewDraft(cfg.ExpenseType, currency.Normalize(cfg.DefaultCurrency))
	}
	if !draft.Type.IsValid() {
		return nil, fmt.Errorf("unknown expense type %q", draft.Type)
	}
	if draft.Items == nil {
		draft.Items = []entity.ExpenseItem{}
	}

	f := &Form{
		sessionID:       cfg.SessionID,
		storageKey:      cfg.StorageKey,
		defaultCurrency: currency.Normalize(cfg.DefaultCurrency),
		policy:          cfg.Policy,
		chargeMode:      draft.Type == entity.ExpenseTypeCharge,
		editing:         draft.Status() == entity.DraftStatusExisting,
		draft:           derive(draft),
		pending:         make(map[string]currency.Request),
		rates:           deps.Rates,
		slugs:           deps.Slugs,
		submitter:       deps.Submitter,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
	}
	if f.sessionID == "" {
		f.sessionID = uuid.NewString()
	}
	if f.storageKey == "" {
		f.storageKey = draft.DraftKey
	}
	if f.storageKey == "" {
		f.storageKey = f.sessionID
	}
	if f.logger == nil {
		f.logger = nopLogger{}
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())

	f.machine = buildFormStateMachine(f.chargeMode, machineHooks{
		stepOneCompleted: func(ctx context.Context) bool {
			return payee.StepOneCompleted(f.draft)
		},
		draftValid: func(ctx context.Context) bool {
			return f.validateLocked() == nil
		},
		onExpense: func(ctx context.Context, t domainwf.Transition) {
			if t.From == domainwf.StatePayee {
				f.draft = payee.SeedLocation(f.draft)
			}
		},
	})

	f.mu.Lock()
	f.scheduleLocked()
	f.mu.Unlock()

	return f, nil
}

// SessionID returns the form session id
func (f *Form) SessionID() string {
	return f.sessionID
}

// StorageKey returns the key the draft is persisted under
func (f *Form) StorageKey() string {
	return f.storageKey
}

// State returns the current workflow state
func (f *Form) State() domainwf.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.machine.State()
}

// Draft returns a copy of the current draft
func (f *Form) Draft() entity.ExpenseDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Clone()
}

// Dispatch applies one action to the draft. Derived resets happen inside
// the same call; a type change that invalidates the payee moves the form
// back to PAYEE.
func (f *Form) Dispatch(ctx context.Context, action Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpenLocked(); err != nil {
		return err
	}

	out, err := reduce(f.draft, action)
	if err != nil {
		return err
	}
	f.draft = derive(out.draft)

	if out.backToPayee && f.machine.State() == domainwf.StateExpense && !f.chargeMode {
		if _, err := f.machine.Fire(ctx, domainwf.TriggerBack); err != nil {
			return fmt.Errorf("failed to return to payee step: %w", err)
		}
	}

	f.logger.Info("Form action applied",
		"session_id", f.sessionID,
		"action", action.ActionName(),
		"state", f.machine.State(),
	)

	f.scheduleLocked()
	f.publishChangedLocked()
	return nil
}

// Next moves from PAYEE to EXPENSE once the payee step is complete
func (f *Form) Next(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpenLocked(); err != nil {
		return err
	}
	if _, err := f.machine.Fire(ctx, domainwf.TriggerNext); err != nil {
		if errors.Is(err, domainwf.ErrGuardFailed) {
			return fmt.Errorf("%w: payee", ErrStepIncomplete)
		}
		return err
	}
	f.publishChangedLocked()
	return nil
}

// Back returns to PAYEE. For card charges it cancels the flow.
func (f *Form) Back(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpenLocked(); err != nil {
		return err
	}
	t, err := f.machine.Fire(ctx, domainwf.TriggerBack)
	if err != nil {
		return err
	}
	if t.To == domainwf.StateCancelled {
		f.discardLocked()
	}
	return nil
}

// Reset restores the type-appropriate default draft and returns to the
// first step. Editing an existing expense cancels instead.
func (f *Form) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpenLocked(); err != nil {
		return err
	}
	if f.editing {
		if _, err := f.machine.Fire(ctx, domainwf.TriggerCancel); err != nil {
			return err
		}
		f.discardLocked()
		return nil
	}
	if _, err := f.machine.Fire(ctx, domainwf.TriggerReset); err != nil {
		return err
	}

	f.fenceLocked()
	fresh := entity.NewDraft(f.draft.Type, f.defaultCurrency)
	fresh.DraftKey = f.draft.DraftKey
	if f.chargeMode {
		fresh.Payee = f.draft.Payee.Clone()
		fresh.PayoutMethod = nil
	}
	f.draft = derive(fresh)

	f.logger.Info("Form reset", "session_id", f.sessionID, "state", f.machine.State())
	f.publishLocked(event.TypeDraftReset, map[string]interface{}{
		event.KeyDraftKey: f.storageKey,
	})
	return nil
}

// Cancel abandons the form and discards the persisted draft
func (f *Form) Cancel(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpenLocked(); err != nil {
		return err
	}
	if _, err := f.machine.Fire(ctx, domainwf.TriggerCancel); err != nil {
		return err
	}
	f.discardLocked()
	return nil
}

// Submit validates the draft, prepares the payload and hands it to the
// submission service. Only one submission may be in flight. On failure the
// draft is kept so the submitter can retry; on success it is cleared.
func (f *Form) Submit(ctx context.Context) (*submission.Result, error) {
	f.mu.Lock()
	if err := f.checkOpenLocked(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.machine.State() != domainwf.StateExpense {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: submit is only possible from %s", domainwf.ErrInvalidTransition, domainwf.StateExpense)
	}
	f.submitting = true
	slug := f.uncheckedSlugLocked()
	f.mu.Unlock()

	if slug != "" {
		f.checkSlugNow(ctx, slug)
	}

	f.mu.Lock()
	if errs := f.validateLocked(); errs != nil {
		f.submitting = false
		f.mu.Unlock()
		return nil, &validation.Error{Errors: errs}
	}
	payload := submission.Prepare(f.draft)
	f.mu.Unlock()

	result, err := f.send(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		message := "Failed to submit expense"
		var rejected *port.SubmissionError
		if errors.As(err, &rejected) && rejected.Message != "" {
			message = rejected.Message
		}
		f.logger.Error("Expense submission failed",
			"session_id", f.sessionID,
			"error", err,
		)
		f.publishLocked(event.TypeSubmissionFailed, map[string]interface{}{
			event.KeyDraftKey: f.storageKey,
			event.KeyError:    message,
		})
		return nil, &SubmissionError{Message: message, Err: err}
	}

	f.result = result
	if _, err := f.machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		f.logger.Error("Submitted expense but could not complete the form",
			"session_id", f.sessionID,
			"error", err,
		)
	}
	f.fenceLocked()
	// the payload is handed off; only the result outlives the draft
	f.draft = entity.NewDraft(f.draft.Type, f.defaultCurrency)

	f.logger.Info("Expense submitted",
		"session_id", f.sessionID,
		"expense_id", result.ID,
		"legacy_id", result.LegacyID,
	)
	f.publishLocked(event.TypeExpenseSubmitted, map[string]interface{}{
		event.KeyDraftKey:  f.storageKey,
		event.KeyExpenseID: result.ID,
		event.KeyLegacyID:  result.LegacyID,
		event.KeyPayload:   payload,
	})
	return result, nil
}

func (f *Form) send(ctx context.Context, payload submission.Payload) (*submission.Result, error) {
	switch {
	case payload.IsEdit():
		return f.submitter.EditExpense(ctx, payload)
	case payload.IsInvite():
		return f.submitter.DraftExpenseAndInviteUser(ctx, payload)
	default:
		return f.submitter.CreateExpense(ctx, payload)
	}
}

// Snapshot is a consistent read-only view of the form
type Snapshot struct {
	SessionID         string              `json:"sessionId"`
	State             domainwf.State      `json:"state"`
	Status            entity.DraftStatus  `json:"status"`
	Draft             entity.ExpenseDraft `json:"draft"`
	StepOneCompleted  bool                `json:"stepOneCompleted"`
	Requirements      rules.Requirements  `json:"requirements"`
	Errors            *validation.Errors  `json:"errors,omitempty"`
	Comparisons       []ocr.Comparison    `json:"comparisons"`
	Totals            entity.Totals       `json:"totals"`
	PendingRates      int                 `json:"pendingRates"`
	Submitting        bool                `json:"submitting"`
	PermittedTriggers []domainwf.Trigger  `json:"permittedTriggers"`
	Result            *submission.Result  `json:"result,omitempty"`
}

// Snapshot returns the current view of the form
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	req := rules.ForDraft(f.draft)
	return Snapshot{
		SessionID:         f.sessionID,
		State:             f.machine.State(),
		Status:            f.draft.Status(),
		Draft:             f.draft.Clone(),
		StepOneCompleted:  payee.StepOneCompleted(f.draft),
		Requirements:      req,
		Errors:            f.validateLocked(),
		Comparisons:       ocr.CompareAll(f.draft.Items),
		Totals:            f.draft.ComputeTotals(req.Taxes),
		PendingRates:      len(f.pending),
		Submitting:        f.submitting,
		PermittedTriggers: f.machine.PermittedTriggers(),
		Result:            f.result,
	}
}

// Validate returns the current validation errors, or nil
func (f *Form) Validate() *validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

// Wait blocks until in-flight rate lookups and slug checks settle
func (f *Form) Wait() {
	f.wg.Wait()
}

// Close stops background tasks. The form rejects further actions.
func (f *Form) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		f.fenceLocked()
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Form) checkOpenLocked() error {
	if f.closed || f.machine.State().IsTerminal() {
		return ErrSessionClosed
	}
	if f.submitting {
		return ErrSubmissionInFlight
	}
	return nil
}

func (f *Form) validateLocked() *validation.Errors {
	if f.machine.State() == domainwf.StateSubmitted {
		return nil
	}
	return validation.Validate(f.draft, validation.ContextFor(f.draft, f.policy))
}

// fenceLocked invalidates every in-flight task
func (f *Form) fenceLocked() {
	f.generation++
	f.cancel()
	f.ctx, f.cancel = context.WithCancel(context.Background())
	f.pending = make(map[string]currency.Request)
	f.slugInFlight = ""
}

// discardLocked ends the flow without submitting
func (f *Form) discardLocked() {
	f.fenceLocked()
	f.logger.Info("Form cancelled", "session_id", f.sessionID)
	f.publishLocked(event.TypeDraftReset, map[string]interface{}{
		event.KeyDraftKey: f.storageKey,
	})
}

// scheduleLocked starts the lookups the current draft needs
func (f *Form) scheduleLocked() {
	f.scheduleRatesLocked()
	f.scheduleSlugCheckLocked()
}

func (f *Form) scheduleRatesLocked() {
	wanted := make(map[string]currency.Request)
	for _, item := range f.draft.Items {
		plan := f.rates.Plan(item, f.draft.Currency)
		if plan.Action == currency.ActionFetch {
			wanted[item.ID] = plan.Request
		}
	}

	for id := range f.pending {
		if _, ok := wanted[id]; !ok {
			delete(f.pending, id)
		}
	}

	for id, req := range wanted {
		if prev, ok := f.pending[id]; ok && prev == req {
			continue
		}
		f.pending[id] = req
		itemID, gen := id, f.generation
		f.spawnLocked(func(ctx context.Context) {
			rate, err := f.rates.Resolve(ctx, req)
			if err != nil {
				// the form was reset or closed; the lookup belongs to an old generation
				return
			}
			f.applyRate(gen, itemID, req, rate)
		})
	}
}

func (f *Form) applyRate(gen uint64, itemID string, req currency.Request, rate entity.ExchangeRate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation || f.closed {
		return
	}
	if f.pending[itemID] == req {
		delete(f.pending, itemID)
	}

	updated, ok := currency.ApplyRate(f.draft, itemID, req, rate, f.rates.Today)
	if !ok {
		f.logger.Info("Discarded stale exchange rate",
			"session_id", f.sessionID,
			"item_id", itemID,
			"key", req.Key(),
		)
		return
	}
	f.draft = updated

	f.publishLocked(event.TypeRateResolved, map[string]interface{}{
		event.KeyItemID: itemID,
		event.KeyRate:   rate,
	})
	f.publishChangedLocked()
}

// uncheckedSlugLocked returns the invited organization slug when its
// availability is not known yet
func (f *Form) uncheckedSlugLocked() string {
	p := f.draft.Payee
	if p == nil || p.Kind != entity.PayeeKindInvitedOrganization || p.Organization == nil {
		return ""
	}
	org := p.Organization
	if org.SlugStatus == entity.SlugStatusAvailable || org.SlugStatus == entity.SlugStatusTaken {
		return ""
	}
	if f.slugs == nil || utils.ValidateSlug(org.Slug) != nil {
		return ""
	}
	return org.Slug
}

func (f *Form) scheduleSlugCheckLocked() {
	slug := f.uncheckedSlugLocked()
	if slug == "" || slug == f.slugInFlight {
		return
	}
	f.slugInFlight = slug
	f.draft.Payee.Organization.SlugStatus = entity.SlugStatusChecking

	gen := f.generation
	f.spawnLocked(func(ctx context.Context) {
		available, err := f.slugs.Check(ctx, slug)
		f.applySlugCheck(gen, slug, available, err)
	})
}

func (f *Form) applySlugCheck(gen uint64, slug string, available bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation || f.closed {
		return
	}
	if f.slugInFlight == slug {
		f.slugInFlight = ""
	}
	if errors.Is(err, payee.ErrStaleSearch) {
		return
	}
	if err != nil {
		f.logger.Error("Slug availability check failed",
			"session_id", f.sessionID,
			"slug", slug,
			"error", err,
		)
		if org := f.draft.Payee; org != nil && org.Organization != nil &&
			org.Organization.Slug == slug && org.Organization.SlugStatus == entity.SlugStatusChecking {
			f.draft.Payee.Organization.SlugStatus = entity.SlugStatusUnknown
		}
		return
	}

	if updated, ok := payee.ApplySlugCheck(f.draft, slug, available); ok {
		f.draft = updated
		f.publishChangedLocked()
	}
}

// checkSlugNow runs the slug check synchronously before a submission
func (f *Form) checkSlugNow(ctx context.Context, slug string) {
	available, err := f.slugs.Check(ctx, slug)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		if !errors.Is(err, payee.ErrStaleSearch) {
			f.logger.Error("Slug availability check failed", "session_id", f.sessionID, "slug", slug, "error", err)
		}
		return
	}
	if updated, ok := payee.ApplySlugCheck(f.draft, slug, available); ok {
		f.draft = updated
	}
}

// spawnLocked runs fn on a tracked goroutine bound to the current generation's context
func (f *Form) spawnLocked(fn func(ctx context.Context)) {
	ctx := f.ctx
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				f.logger.Error("Form task panic recovered", "session_id", f.sessionID, "panic", r)
			}
		}()
		fn(ctx)
	}()
}

func (f *Form) publishChangedLocked() {
	f.publishLocked(event.TypeDraftChanged, map[string]interface{}{
		event.KeyDraftKey: f.storageKey,
		event.KeyDraft:    f.draft.Clone(),
		event.KeyState:    string(f.machine.State()),
	})
}

func (f *Form) publishLocked(eventType event.Type, payload map[string]interface{}) {
	if f.dispatcher == nil {
		return
	}
	f.dispatcher.DispatchAsync(context.Background(), event.NewEvent(eventType, f.sessionID, payload))
}
