package workflow

import "strings"

// Status is the lifecycle status of a service request
type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusCompleted  Status = "COMPLETED"
)

var validStatuses = map[Status]bool{
	StatusSubmitted:  true,
	StatusPending:    true,
	StatusInProgress: true,
	StatusApproved:   true,
	StatusRejected:   true,
	StatusCompleted:  true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCompleted: true,
}

// IsTerminal returns true once a decision has been recorded for the request.
// Approved may still move to Completed, but a terminal status never goes back.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known request status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// ParseStatus normalizes a raw status string coming from the engine or a client.
// The second return value is false when the value is not a known status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}
