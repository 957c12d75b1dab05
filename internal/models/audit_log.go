package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction enumerates the privileged mutations that are recorded.
type AuditAction string

const (
	AuditUserStatusUpdate AuditAction = "user_status_update"
	AuditFileDelete       AuditAction = "file_delete"
	AuditUserDelete       AuditAction = "user_delete"
	AuditFileAccess       AuditAction = "file_access"
)

// Valid reports whether a is a known action.
func (a AuditAction) Valid() bool {
	switch a {
	case AuditUserStatusUpdate, AuditFileDelete, AuditUserDelete, AuditFileAccess:
		return true
	}
	return false
}

// AuditTargetType names the kind of resource an audit entry refers to.
type AuditTargetType string

const (
	AuditTargetUser AuditTargetType = "user"
	AuditTargetFile AuditTargetType = "file"
)

// Valid reports whether t is a known target type.
func (t AuditTargetType) Valid() bool {
	return t == AuditTargetUser || t == AuditTargetFile
}

// AuditLog is the append-only record of a successful privileged mutation.
// Nothing in the codebase updates or deletes these rows.
type AuditLog struct {
	Base
	AdminID    string            `gorm:"type:uuid;not null;index" json:"adminId"`
	Admin      *User             `gorm:"foreignKey:AdminID" json:"-"`
	Action     AuditAction       `gorm:"not null;index" json:"action"`
	TargetType AuditTargetType   `gorm:"not null;index" json:"targetType"`
	TargetID   string            `gorm:"not null" json:"targetId"`
	Details    datatypes.JSONMap `gorm:"not null" json:"details"`
	IPAddress  string            `json:"ipAddress"`
	UserAgent  string            `json:"userAgent"`
	Timestamp  time.Time         `gorm:"not null;index" json:"timestamp"`
}
