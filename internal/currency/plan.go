// Package currency resolves exchange rates for expense items and keeps
// item rates consistent with the expense currency.
package currency

import (
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
)

// Action is what the resolver must do with an item rate
type Action int

const (
	// ActionNone means no rate is needed and none is present
	ActionNone Action = iota
	// ActionClear means a rate is present but no longer applies
	ActionClear
	// ActionKeep means the present rate is still valid
	ActionKeep
	// ActionFetch means a rate must be requested
	ActionFetch
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionClear:
		return "clear"
	case ActionKeep:
		return "keep"
	case ActionFetch:
		return "fetch"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Request identifies one rate lookup. Dates have day granularity.
type Request struct {
	From string
	To   string
	Date time.Time
}

// NewRequest builds a request, truncating the date to its UTC calendar day
func NewRequest(from, to string, date time.Time) Request {
	return Request{From: from, To: to, Date: Day(date)}
}

// Key identifies the request for de-duplication and stale-response checks
func (r Request) Key() string {
	return r.From + ":" + r.To + ":" + r.Date.Format("2006-01-02")
}

// Query converts the request for the rate service
func (r Request) Query() port.RateQuery {
	return port.RateQuery{FromCurrency: r.From, ToCurrency: r.To, Date: r.Date}
}

// Plan is the decision taken for one item
type Plan struct {
	Action  Action
	Request Request
}

// PlanItem decides whether the item needs a rate, keeps its current one or
// must fetch a new one. today is used when the item has no date yet.
func PlanItem(item entity.ExpenseItem, expenseCurrency string, today time.Time) Plan {
	itemCurrency := item.CurrencyOr(expenseCurrency)
	if expenseCurrency == "" || itemCurrency == expenseCurrency {
		if item.ExchangeRate != nil {
			return Plan{Action: ActionClear}
		}
		return Plan{Action: ActionNone}
	}

	date := today
	if item.IncurredAt != nil && !item.IncurredAt.IsZero() {
		date = *item.IncurredAt
	}
	req := NewRequest(itemCurrency, expenseCurrency, date)

	rate := item.ExchangeRate
	if rate.Matches(itemCurrency, expenseCurrency) {
		// a manual value is kept until the currency pair changes
		if rate.Source == entity.RateSourceUser && rate.HasValue() {
			return Plan{Action: ActionKeep, Request: req}
		}
		if Day(rate.LookupDay()).Equal(req.Date) {
			return Plan{Action: ActionKeep, Request: req}
		}
	}
	return Plan{Action: ActionFetch, Request: req}
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
