package workflow

// State represents a step of the expense submission form
type State string

const (
	StatePayee     State = "PAYEE"
	StateExpense   State = "EXPENSE"
	StateSubmitted State = "SUBMITTED"
	StateCancelled State = "CANCELLED"
)

var validStates = map[State]bool{
	StatePayee:     true,
	StateExpense:   true,
	StateSubmitted: true,
	StateCancelled: true,
}

var terminalStates = map[State]bool{
	StateSubmitted: true,
	StateCancelled: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid form state
func (s State) IsValid() bool {
	return validStates[s]
}
