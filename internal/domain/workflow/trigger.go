package workflow

// Trigger represents an event that can cause a status transition
type Trigger string

const (
	TriggerAssign    Trigger = "ASSIGN"
	TriggerStartWork Trigger = "START_WORK"
	TriggerApprove   Trigger = "APPROVE"
	TriggerReject    Trigger = "REJECT"
	TriggerComplete  Trigger = "COMPLETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
