// Package timeline computes the colouring of a request's progress tracker.
// It is pure: the same inputs always render the same view.
package timeline

import "github.com/isf/servicedesk/internal/domain/workflow"

// Overall is the summary status a tracker is drawn for
type Overall string

const (
	OverallApproved Overall = "approved"
	OverallPending  Overall = "pending"
	OverallRejected Overall = "rejected"
)

// Color is the visual state of a step marker or connector
type Color string

const (
	ColorCompleted Color = "completed"
	ColorFailed    Color = "failed"
	ColorPending   Color = "pending"
)

// Step is one milestone in the provisioning pipeline
type Step struct {
	Label     string `json:"label"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// StepView is a rendered step. Connector is the line to the next step and is
// empty on the last one.
type StepView struct {
	Step
	Color     Color `json:"color"`
	Connector Color `json:"connector,omitempty"`
}

// Tracker is the full render input plus its output
type Tracker struct {
	Overall  Overall    `json:"overall"`
	Current  int        `json:"currentStepIndex"`
	Rejected int        `json:"rejectedStepIndex"`
	Steps    []StepView `json:"steps"`
}

// DefaultSteps returns the provisioning pipeline shown for every request
func DefaultSteps() []Step {
	return []Step{
		{Label: "Commander Approval"},
		{Label: "Ticket Creation"},
		{Label: "Asset Allocation"},
		{Label: "Provisioning"},
	}
}

// rejectedAt is the step a rejected request is shown as failing on
const rejectedAt = 2

// Render colours each step and connector. current is used for pending
// trackers, rejected for rejected ones; -1 means none.
func Render(steps []Step, overall Overall, current, rejected int) []StepView {
	views := make([]StepView, len(steps))
	for i, s := range steps {
		views[i] = StepView{Step: s, Color: stepColor(i, overall, current, rejected)}
		if i < len(steps)-1 {
			views[i].Connector = connectorColor(i, overall, current, rejected)
		}
	}
	return views
}

// ForStatus maps a request status onto tracker inputs for the default pipeline
func ForStatus(status workflow.Status) (overall Overall, current, rejected int) {
	steps := len(DefaultSteps())
	s, _ := workflow.ParseStatus(string(status))
	switch s {
	case workflow.StatusApproved, workflow.StatusCompleted:
		return OverallApproved, steps - 1, -1
	case workflow.StatusRejected:
		return OverallRejected, -1, rejectedAt
	case workflow.StatusSubmitted, workflow.StatusInProgress, workflow.StatusPending:
		return OverallPending, 1, -1
	default:
		return OverallPending, -1, -1
	}
}

// RenderStatus renders the default pipeline for a request status
func RenderStatus(status workflow.Status) Tracker {
	overall, current, rejected := ForStatus(status)
	return Tracker{
		Overall:  overall,
		Current:  current,
		Rejected: rejected,
		Steps:    Render(DefaultSteps(), overall, current, rejected),
	}
}

func stepColor(i int, overall Overall, current, rejected int) Color {
	switch overall {
	case OverallApproved:
		return ColorCompleted
	case OverallPending:
		if i <= current {
			return ColorCompleted
		}
	case OverallRejected:
		switch {
		case i < rejected:
			return ColorCompleted
		case i == rejected:
			return ColorFailed
		}
	}
	return ColorPending
}

func connectorColor(i int, overall Overall, current, rejected int) Color {
	switch overall {
	case OverallApproved:
		return ColorCompleted
	case OverallPending:
		if i < current {
			return ColorCompleted
		}
	case OverallRejected:
		if i < rejected {
			return ColorCompleted
		}
	}
	return ColorPending
}
