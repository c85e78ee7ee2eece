package workflow

// Trigger represents a user intent that can cause a step transition
type Trigger string

const (
	TriggerNext   Trigger = "NEXT"
	TriggerBack   Trigger = "BACK"
	TriggerSubmit Trigger = "SUBMIT"
	TriggerReset  Trigger = "RESET"
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
