package event

// Type identifies the type of domain event
type Type string

const (
	TypeDraftChanged     Type = "draft.changed"
	TypeDraftReset       Type = "draft.reset"
	TypeRateResolved     Type = "rate.resolved"
	TypeExpenseSubmitted Type = "expense.submitted"
	TypeSubmissionFailed Type = "submission.failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDraftChanged,
		TypeDraftReset,
		TypeRateResolved,
		TypeExpenseSubmitted,
		TypeSubmissionFailed:
		return true
	default:
		return false
	}
}
