package workflow

import "strings"

// BadgeVariant is the visual family of a status badge
type BadgeVariant string

const (
	BadgeOutline     BadgeVariant = "outline"
	BadgeWarning     BadgeVariant = "warning"
	BadgeSuccess     BadgeVariant = "success"
	BadgeDestructive BadgeVariant = "destructive"
	BadgeNeutral     BadgeVariant = "neutral"
)

// Badge is the display label for a status
type Badge struct {
	Label   string       `json:"label"`
	Variant BadgeVariant `json:"variant"`
}

var badges = map[Status]Badge{
	StatusSubmitted:  {Label: "Submitted", Variant: BadgeOutline},
	StatusPending:    {Label: "Pending", Variant: BadgeOutline},
	StatusInProgress: {Label: "In Progress", Variant: BadgeWarning},
	StatusApproved:   {Label: "Approved", Variant: BadgeSuccess},
	StatusCompleted:  {Label: "Completed", Variant: BadgeSuccess},
	StatusRejected:   {Label: "Rejected", Variant: BadgeDestructive},
}

// BadgeFor returns the badge for a status. Unknown values get a neutral badge
// labelled with the raw value.
func BadgeFor(status Status) Badge {
	if s, ok := ParseStatus(string(status)); ok {
		return badges[s]
	}
	label := strings.TrimSpace(string(status))
	if label == "" {
		label = "Unknown"
	}
	return Badge{Label: label, Variant: BadgeNeutral}
}
