package access

import (
	"strings"

	"github.com/isf/servicedesk/internal/domain/entity"
)

// NavItem is one sidebar entry
type NavItem struct {
	Title  string `json:"title"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// Card is one dashboard tile. Metric names the count it shows and Link is
// where a click leads.
type Card struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Metric string `json:"metric"`
	Link   string `json:"link,omitempty"`
}

// Descriptor describes everything role-specific about the portal shell
type Descriptor struct {
	Role      entity.Role `json:"role"`
	Dashboard string      `json:"dashboard"`
	Nav       []NavItem   `json:"nav"`
	Cards     []Card      `json:"cards"`
}

var dashboards = map[entity.Role]string{
	entity.RoleOfficer:      "/officer/dashboard",
	entity.RoleSupervisor:   "/supervisor/dashboard",
	entity.RoleAdmin:        "/admin/dashboard",
	entity.RoleTechApprover: "/tech-approver/dashboard",
}

var navByRole = map[entity.Role][]NavItem{
	entity.RoleOfficer: {
		{Title: "My Requests Dashboard", Path: "/officer/dashboard"},
		{Title: "Service Catalog", Path: "/service-catalog"},
		{Title: "Request Status", Path: "/request/status"},
	},
	entity.RoleSupervisor: {
		{Title: "Supervisor Dashboard", Path: "/supervisor/dashboard"},
		{Title: "Service Catalog", Path: "/service-catalog"},
		{Title: "Request Status", Path: "/request/status"},
		{Title: "Team Approvals", Path: "/supervisor/approvals"},
	},
	entity.RoleAdmin: {
		{Title: "Admin Control Panel", Path: "/admin/dashboard"},
		{Title: "Review Approvals", Path: "/admin/assign"},
	},
	entity.RoleTechApprover: {
		{Title: "Technical Dashboard", Path: "/tech-approver/dashboard"},
		{Title: "Technical Approvals", Path: "/tech-approver/reviews"},
	},
}

var cardsByRole = map[entity.Role][]Card{
	entity.RoleOfficer: {
		{Key: "total", Title: "Total Requests", Metric: "total", Link: "/request/status"},
		{Key: "approved", Title: "Approved", Metric: "approved", Link: "/request/status"},
		{Key: "pending", Title: "Pending", Metric: "pending", Link: "/request/status"},
		{Key: "rejected", Title: "Rejected", Metric: "rejected", Link: "/request/status"},
	},
	entity.RoleSupervisor: {
		{Key: "pending", Title: "Pending Approvals", Metric: "pending", Link: "/supervisor/approvals?status=pending"},
		{Key: "total", Title: "Total Requests", Metric: "total", Link: "/supervisor/approvals?status=all"},
		{Key: "approved", Title: "Approved", Metric: "approved", Link: "/supervisor/approvals?status=approved"},
		{Key: "rejected", Title: "Rejected", Metric: "rejected", Link: "/supervisor/approvals?status=rejected"},
	},
	entity.RoleAdmin: {
		{Key: "total", Title: "All Requests", Metric: "total", Link: "/admin/requests"},
		{Key: "pending", Title: "Awaiting Decision", Metric: "pending", Link: "/admin/assign"},
		{Key: "approved", Title: "Approved", Metric: "approved", Link: "/admin/requests"},
		{Key: "rejected", Title: "Rejected", Metric: "rejected", Link: "/admin/requests"},
	},
	entity.RoleTechApprover: {
		{Key: "pending", Title: "Pending Reviews", Metric: "pending", Link: "/tech-approver/reviews"},
		{Key: "approved", Title: "Approved", Metric: "approved", Link: "/tech-approver/reviews"},
		{Key: "rejected", Title: "Rejected", Metric: "rejected", Link: "/tech-approver/reviews"},
	},
}

// DashboardFor returns the canonical landing view for a role, or "/" for an unknown role
func DashboardFor(role entity.Role) string {
	if d, ok := dashboards[role]; ok {
		return d
	}
	return PublicPath
}

// DescriptorFor returns the shell description for a role. Unknown roles get the
// officer menu, matching the sidebar default.
func DescriptorFor(role entity.Role) Descriptor {
	effective := role
	if !effective.IsValid() {
		effective = entity.RoleOfficer
	}
	return Descriptor{
		Role:      effective,
		Dashboard: dashboards[effective],
		Nav:       NavItems(effective, ""),
		Cards:     append([]Card(nil), cardsByRole[effective]...),
	}
}

// NavItems returns the sidebar entries for a role with the active entry marked
func NavItems(role entity.Role, currentPath string) []NavItem {
	items, ok := navByRole[role]
	if !ok {
		items = navByRole[entity.RoleOfficer]
	}
	out := make([]NavItem, len(items))
	for i, item := range items {
		item.Active = currentPath != "" && IsActive(item.Path, currentPath)
		out[i] = item
	}
	return out
}

// IsActive matches dashboards exactly and every other entry by prefix
func IsActive(itemPath, currentPath string) bool {
	currentPath = normalizePath(currentPath)
	if isDashboard(itemPath) {
		return currentPath == itemPath
	}
	return strings.HasPrefix(currentPath, itemPath)
}

// ShowSidebar is false on the login view and when no role is known
func ShowSidebar(role entity.Role, path string) bool {
	return normalizePath(path) != PublicPath && role != ""
}

func isDashboard(path string) bool {
	if path == "/commander/dashboard" {
		return true
	}
	for _, d := range dashboards {
		if d == path {
			return true
		}
	}
	return false
}
