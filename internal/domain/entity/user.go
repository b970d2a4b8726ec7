package entity

// Role is the portal role a user acts under
type Role string

const (
	RoleOfficer      Role = "officer"
	RoleSupervisor   Role = "supervisor"
	RoleAdmin        Role = "admin"
	RoleTechApprover Role = "tech_approver"
)

// IsValid returns true for the four portal roles
func (r Role) IsValid() bool {
	switch r {
	case RoleOfficer, RoleSupervisor, RoleAdmin, RoleTechApprover:
		return true
	}
	return false
}

// CanDecide returns true if the role may approve or reject requests
func (r Role) CanDecide() bool {
	return r == RoleSupervisor || r == RoleAdmin || r == RoleTechApprover
}

func (r Role) String() string {
	return string(r)
}

// User is the authenticated principal held by a session.
// Username is the display name used as requester and assignee on the engine.
type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName,omitempty"`
	Badge    string `json:"badge,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Location string `json:"location,omitempty"`
}
