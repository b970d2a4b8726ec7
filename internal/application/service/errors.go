package service

import "errors"

var (
	// ErrRejectionReasonRequired is returned when a rejection has no reason text
	ErrRejectionReasonRequired = errors.New("rejection reason is required")

	// ErrTransitionInFlight is returned while another decision on the same process is running
	ErrTransitionInFlight = errors.New("a decision for this request is already in progress")

	// ErrSubmissionInFlight is returned while the same user already has a submission running
	ErrSubmissionInFlight = errors.New("a submission is already in progress")

	// ErrRequestNotFound is returned when a request does not exist or is not visible to the caller
	ErrRequestNotFound = errors.New("request not found")

	// ErrInvalidDraft is returned when a request form fails validation
	ErrInvalidDraft = errors.New("invalid request form")

	// ErrTaskKeyRequired is returned when a decision names no user task
	ErrTaskKeyRequired = errors.New("user task key is required")

	// ErrTaskNotFound is returned when the named task is not open for the approver
	ErrTaskNotFound = errors.New("user task not found")

	// ErrTaskMismatch is returned when a decision names a process instance the task does not belong to
	ErrTaskMismatch = errors.New("user task belongs to another request")
)
