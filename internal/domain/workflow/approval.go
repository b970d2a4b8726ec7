package workflow

import "fmt"

// NewApprovalBuilder returns a builder configured with the request lifecycle:
//
//	SUBMITTED -> PENDING | IN_PROGRESS -> APPROVED | REJECTED
//	APPROVED  -> COMPLETED
func NewApprovalBuilder() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StatusSubmitted).
		Permit(TriggerAssign, StatusPending).
		Permit(TriggerStartWork, StatusInProgress)

	b.Configure(StatusPending).
		Permit(TriggerStartWork, StatusInProgress).
		Permit(TriggerApprove, StatusApproved).
		Permit(TriggerReject, StatusRejected)

	b.Configure(StatusInProgress).
		Permit(TriggerApprove, StatusApproved).
		Permit(TriggerReject, StatusRejected)

	b.Configure(StatusApproved).
		Permit(TriggerComplete, StatusCompleted)

	return b
}

// NewApprovalMachine builds a lifecycle machine positioned at the given status
func NewApprovalMachine(initial Status) (StateMachine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, initial)
	}
	return NewApprovalBuilder().Build(initial), nil
}

// Reconcile merges a freshly derived status into the one already known.
// Terminal statuses never regress; the only move out of a terminal status is
// APPROVED -> COMPLETED.
func Reconcile(current, derived Status) Status {
	if !derived.IsValid() {
		return current
	}
	if !current.IsValid() {
		return derived
	}
	if current.IsTerminal() {
		if current == StatusApproved && derived == StatusCompleted {
			return derived
		}
		return current
	}
	return derived
}
