package workflow

import "context"

// Transition describes a completed state change
type Transition struct {
	From    State
	To      State
	Trigger Trigger
}

// StateMachine tracks the current step and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured in the current state
	CanFire(trigger Trigger) bool

	// CanFireWith evaluates guards and returns true if Fire would succeed
	CanFireWith(ctx context.Context, trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) (Transition, error)

	// PermittedTriggers returns all triggers configured in the current state
	PermittedTriggers() []Trigger
}
