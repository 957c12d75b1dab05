package models

import "time"

// UserRole is the coarse role tag carried by every account.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// UserStatus is the account state managed by admins.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User represents the user model in the database
type User struct {
	Base
	Username  string     `gorm:"uniqueIndex;not null" json:"username"`
	Password  string     `gorm:"not null" json:"-"`
	Name      string     `json:"name"`
	Email     string     `gorm:"index" json:"email"`
	Role      UserRole   `gorm:"not null;default:user" json:"role"`
	Status    UserStatus `gorm:"not null;default:active" json:"status"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CanSignIn reports whether the account may obtain new tokens.
func (u *User) CanSignIn() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// Owner is the display projection of a user attached to datasets and audit entries.
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// OwnerOf projects a user onto its display fields. A nil user yields nil.
func OwnerOf(u *User) *Owner {
	if u == nil || u.ID == "" {
		return nil
	}
	return &Owner{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email}
}
