package domain

import "time"

// Role enumerates what a profile holder may do.
type Role string

const (
	RoleCitizen    Role = "Citizen"
	RoleAdmin      Role = "Admin"
	RoleTechnician Role = "Technician"
	RoleSuperAdmin Role = "SuperAdmin"
)

// SelectableRoles are the roles a user may pick for themselves.
// SuperAdmin is granted operationally, never through profile submission.
var SelectableRoles = []Role{RoleCitizen, RoleAdmin, RoleTechnician}

// Selectable reports whether the role may be chosen on a profile form.
func (r Role) Selectable() bool {
	for _, candidate := range SelectableRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// AdminStatus tracks the approval state of an Admin profile.
// It is meaningful only when Role is Admin.
type AdminStatus string

const (
	AdminStatusNone     AdminStatus = ""
	AdminStatusPending  AdminStatus = "pending"
	AdminStatusApproved AdminStatus = "approved"
	AdminStatusRejected AdminStatus = "rejected"
)

// UserProfile holds the role and contact details attached to a user account.
// At most one profile exists per user.
type UserProfile struct {
	ID          string
	UserID      string
	FullName    string
	Phone       string
	Role        Role
	AdminStatus AdminStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsApprovedAdmin reports whether the profile can perform approved-admin operations.
func (p *UserProfile) IsApprovedAdmin() bool {
	if p == nil {
		return false
	}
	if p.Role == RoleSuperAdmin {
		return true
	}
	return p.Role == RoleAdmin && p.AdminStatus == AdminStatusApproved
}
