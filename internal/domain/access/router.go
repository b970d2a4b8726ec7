package access

import (
	"github.com/isf/servicedesk/internal/domain/entity"
)

// Outcome is the result of a view access decision
type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomeRedirect Outcome = "redirect"
	OutcomeNotFound Outcome = "not_found"
)

// Decision tells the caller whether to render the requested view or go elsewhere.
// Reason is nil for Allow and for legacy path rewrites.
type Decision struct {
	Outcome Outcome
	Path    string
	Target  string
	Reason  error
}

// ReasonText returns the reason message, or an empty string
func (d Decision) ReasonText() string {
	if d.Reason == nil {
		return ""
	}
	return d.Reason.Error()
}

// Decide evaluates whether user may open path. It depends only on the session
// user and the route table; the URL never grants a role.
func Decide(user *entity.User, path string) Decision {
	path = normalizePath(path)

	if path == PublicPath {
		return Decision{Outcome: OutcomeAllow, Path: path}
	}

	if legacy, ok := legacyRoutes[path]; ok {
		switch {
		case user == nil || !user.Role.IsValid():
			return Decision{Outcome: OutcomeRedirect, Path: path, Target: PublicPath, Reason: ErrAuthRequired}
		case user.Role == entity.RoleSupervisor:
			return Decision{Outcome: OutcomeRedirect, Path: path, Target: legacy}
		default:
			return Decision{Outcome: OutcomeRedirect, Path: path, Target: DashboardFor(user.Role), Reason: ErrRoleForbidden}
		}
	}

	route, ok := lookupRoute(path)
	if !ok {
		return Decision{Outcome: OutcomeNotFound, Path: path}
	}

	if user == nil || !user.Role.IsValid() {
		return Decision{Outcome: OutcomeRedirect, Path: path, Target: PublicPath, Reason: ErrAuthRequired}
	}

	if !route.Allows(user.Role) {
		return Decision{Outcome: OutcomeRedirect, Path: path, Target: DashboardFor(user.Role), Reason: ErrRoleForbidden}
	}

	return Decision{Outcome: OutcomeAllow, Path: path}
}

// RoleFromPath guesses a role from the URL prefix. It only picks a layout to
// show before a redirect settles and is never used for access decisions.
func RoleFromPath(path string) (entity.Role, bool) {
	path = normalizePath(path)
	switch {
	case hasSegmentPrefix(path, "/officer"), hasSegmentPrefix(path, "/request"):
		return entity.RoleOfficer, true
	case hasSegmentPrefix(path, "/supervisor"), hasSegmentPrefix(path, "/commander"):
		return entity.RoleSupervisor, true
	case hasSegmentPrefix(path, "/admin"):
		return entity.RoleAdmin, true
	case hasSegmentPrefix(path, "/tech-approver"):
		return entity.RoleTechApprover, true
	}
	return "", false
}

func hasSegmentPrefix(path, prefix string) bool {
	return path == prefix || len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
