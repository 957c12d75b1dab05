package models

// AdminRole distinguishes ordinary admins from super admins.
type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "super_admin"
)

// AdminProfile binds a user to an admin role and capability set.
// At most one profile exists per user.
type AdminProfile struct {
	Base
	UserID      string        `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Role        AdminRole     `gorm:"not null;default:admin" json:"role"`
	Permissions CapabilitySet `gorm:"type:jsonb;not null" json:"permissions"`
}
