package expenseform

import (
	domainwf "github.com/garyjia/expense-intake/internal/domain/workflow"
)

// machineHooks are the guards and entry callbacks the form plugs into its machine
type machineHooks struct {
	stepOneCompleted domainwf.GuardFunc
	draftValid       domainwf.GuardFunc
	onExpense        domainwf.EntryFunc
}

// buildFormStateMachine configures the payee/expense/submit flow. Card
// charges have a predetermined payee: they start at EXPENSE and going back
// cancels the flow.
func buildFormStateMachine(chargeMode bool, hooks machineHooks) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// PAYEE state transitions
	builder.Configure(domainwf.StatePayee).
		PermitIf(domainwf.TriggerNext, domainwf.StateExpense, hooks.stepOneCompleted).
		Permit(domainwf.TriggerReset, domainwf.StatePayee).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// EXPENSE state transitions
	expense := builder.Configure(domainwf.StateExpense).
		PermitIf(domainwf.TriggerSubmit, domainwf.StateSubmitted, hooks.draftValid).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled).
		OnEntry(hooks.onExpense)

	if chargeMode {
		expense.
			Permit(domainwf.TriggerBack, domainwf.StateCancelled).
			Permit(domainwf.TriggerReset, domainwf.StateExpense)
	} else {
		expense.
			Permit(domainwf.TriggerBack, domainwf.StatePayee).
			Permit(domainwf.TriggerReset, domainwf.StatePayee)
	}

	// SUBMITTED and CANCELLED are terminal states - no outgoing transitions

	initial := domainwf.StatePayee
	if chargeMode {
		initial = domainwf.StateExpense
	}
	return builder.Build(initial)
}
