package access

import (
	"strings"

	"github.com/isf/servicedesk/internal/domain/entity"
)

// Route is one protected view and the roles allowed to open it
type Route struct {
	Pattern string
	Roles   []entity.Role
}

var (
	requesters = []entity.Role{entity.RoleOfficer, entity.RoleSupervisor}
	officers   = []entity.Role{entity.RoleOfficer}
	supervisor = []entity.Role{entity.RoleSupervisor}
	admins     = []entity.Role{entity.RoleAdmin}
	techRole   = []entity.Role{entity.RoleTechApprover}
)

// PublicPath is the login view, open to everyone
const PublicPath = "/"

var routeTable = []Route{
	{"/officer/dashboard", officers},
	{"/service-catalog", requesters},
	{"/request/phone", requesters},
	{"/request/submitted", requesters},
	{"/request/status", requesters},
	{"/request/status-approved", requesters},
	{"/supervisor/dashboard", supervisor},
	{"/supervisor/approvals", supervisor},
	{"/admin/dashboard", admins},
	{"/admin/requests", admins},
	{"/admin/assign", admins},
	{"/admin/sla-monitor", admins},
	{"/tech-approver/dashboard", techRole},
	{"/tech-approver/reviews", techRole},
	{"/tech-approver/review/:id", techRole},
	{"/tech-approver/network", techRole},
	{"/tech-approver/server", techRole},
	{"/tech-approver/storage", techRole},
	{"/tech-approver/security", techRole},
}

// Legacy commander views now live under the supervisor area
var legacyRoutes = map[string]string{
	"/commander/dashboard":       "/supervisor/dashboard",
	"/commander/approvals":       "/supervisor/approvals",
	"/commander/approval-detail": "/supervisor/approvals",
}

// Routes returns a copy of the protected route table
func Routes() []Route {
	out := make([]Route, len(routeTable))
	copy(out, routeTable)
	return out
}

// Allows reports whether the role may open this route
func (r Route) Allows(role entity.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Matches reports whether a concrete path fits the pattern. Segments starting
// with ':' match any single non-empty segment.
func (r Route) Matches(path string) bool {
	want := splitPath(r.Pattern)
	got := splitPath(path)
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if strings.HasPrefix(want[i], ":") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func lookupRoute(path string) (Route, bool) {
	for _, r := range routeTable {
		if r.Matches(path) {
			return r, true
		}
	}
	return Route{}, false
}

// normalizePath drops the query string and a trailing slash
func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return PublicPath
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return PublicPath
	}
	return path
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}
