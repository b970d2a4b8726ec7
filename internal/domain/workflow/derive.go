package workflow

import "strings"

// Process variable names the engine reports decisions through
const (
	VarApproval        = "approval"
	VarManagerApproved = "managerApproved"
	VarUserConfirmed   = "userConfirmed"
	VarAdminDecision   = "adminDecision"
	VarManagerComments = "managerComments"
)

// Raw user task state reported by the engine for an open task
const TaskStateCreated = "CREATED"

// ResolveTaskState maps a raw engine task state onto a request status.
// CREATED means the task is waiting for an approver; other values pass through.
func ResolveTaskState(raw string) Status {
	if strings.EqualFold(strings.TrimSpace(raw), TaskStateCreated) {
		return StatusPending
	}
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	return Status(raw)
}

// DeriveStatus computes a request status from its task state and process variables.
// Decision variables take precedence over the task state.
func DeriveStatus(taskState string, vars map[string]string) Status {
	if isTrue(vars[VarUserConfirmed]) {
		return StatusCompleted
	}
	if v, ok := vars[VarApproval]; ok {
		switch {
		case isFalse(v):
			return StatusRejected
		case isTrue(v):
			return StatusApproved
		}
	}
	if isTrue(vars[VarManagerApproved]) {
		return StatusApproved
	}
	return ResolveTaskState(taskState)
}

func isTrue(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func isFalse(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "false")
}
