package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SharePermission level granted by an event share
type SharePermission string

const (
	PermissionView   SharePermission = "view"
	PermissionEdit   SharePermission = "edit"
	PermissionManage SharePermission = "manage"
)

var permissionLevels = map[SharePermission]int{
	PermissionView:   1,
	PermissionEdit:   2,
	PermissionManage: 3,
}

// AtLeast reports whether p grants at least the required level.
func (p SharePermission) AtLeast(required SharePermission) bool {
	return permissionLevels[p] >= permissionLevels[required]
}

// EventShare grants another user access to an event, optionally expiring
type EventShare struct {
	ID         string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	EventID    string          `gorm:"column:event_id;type:varchar(36);index" json:"event_id"`
	SharedBy   string          `gorm:"column:shared_by;type:varchar(36)" json:"shared_by"`
	SharedWith string          `gorm:"column:shared_with;type:varchar(36);index" json:"shared_with"`
	Permission SharePermission `gorm:"column:permission;type:enum('view','edit','manage');default:'view'" json:"permission"`
	ExpiresAt  *time.Time      `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (EventShare) TableName() string { return "event_shares" }

// BeforeCreate assigns a UUID primary key when none is set
func (s *EventShare) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the share has lapsed at the given instant.
func (s *EventShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// Allows checks whether the share permits an action. View is open to any
// live share; edit needs edit or manage; delete and share management need
// manage. Expired shares grant nothing.
func (s *EventShare) Allows(action string, now time.Time) bool {
	if s.Expired(now) {
		return false
	}
	switch action {
	case "view":
		return true
	case "edit":
		return s.Permission.AtLeast(PermissionEdit)
	case "delete", "share", "rollback":
		return s.Permission.AtLeast(PermissionManage)
	default:
		return false
	}
}

// ParticipantRole of an event participant
type ParticipantRole string

const (
	RoleOwner  ParticipantRole = "owner"
	RoleEditor ParticipantRole = "editor"
	RoleViewer ParticipantRole = "viewer"
)

// EventParticipant links a user to an event with a role
type EventParticipant struct {
	EventID   string          `gorm:"column:event_id;type:varchar(36);primaryKey" json:"event_id"`
	UserID    string          `gorm:"column:user_id;type:varchar(36);primaryKey" json:"user_id"`
	Role      ParticipantRole `gorm:"column:role;type:enum('owner','editor','viewer');default:'viewer';index" json:"role"`
	JoinedAt  time.Time       `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (EventParticipant) TableName() string { return "event_participants" }
