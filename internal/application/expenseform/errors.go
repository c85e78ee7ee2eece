package expenseform

import "errors"

var (
	// ErrSubmissionInFlight is returned while a submission request is outstanding
	ErrSubmissionInFlight = errors.New("a submission is already in progress")

	// ErrStepIncomplete is returned when the current step does not allow moving forward
	ErrStepIncomplete = errors.New("step is not complete")

	// ErrTypeLocked is returned when the expense type can no longer change
	ErrTypeLocked = errors.New("expense type cannot be changed")

	// ErrSessionClosed is returned for actions on a submitted, cancelled or closed form
	ErrSessionClosed = errors.New("form session is closed")

	// ErrIncompatiblePayee is returned when a payee cannot be paid for the expense type
	ErrIncompatiblePayee = errors.New("payee is not compatible with the expense type")

	// ErrPayoutMethodLocked is returned when the payout method is fixed by the payee
	ErrPayoutMethodLocked = errors.New("payout method cannot be edited")

	// ErrFieldNotSupported is returned when a field does not apply to the expense type
	ErrFieldNotSupported = errors.New("field is not supported for this expense type")

	// ErrInvalidCurrency is returned for unknown or unpayable currencies
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrItemNotFound is returned when an action references an unknown item
	ErrItemNotFound = errors.New("item not found")

	// ErrUnknownAction is returned for action types the reducer does not handle
	ErrUnknownAction = errors.New("unknown action")
)

// SubmissionError is a failed submission attempt. The draft is preserved so
// the submitter can retry.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
