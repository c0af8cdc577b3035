package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Version is an immutable point-in-time snapshot of an entity. Rows are only
// ever appended; version numbers are strictly increasing per entity with no
// gaps. The unique index enforces the per-entity sequence even if two writers
// race the MAX+1 allocation.
type Version struct {
	ID            string        `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	EntityType    string        `gorm:"column:entity_type;type:varchar(50);uniqueIndex:uix_entity_version" json:"entity_type"`
	EntityID      string        `gorm:"column:entity_id;type:varchar(36);uniqueIndex:uix_entity_version" json:"entity_id"`
	VersionNumber int           `gorm:"column:version_number;uniqueIndex:uix_entity_version" json:"version_number"`
	Changes       StateDocument `gorm:"column:changes;type:json" json:"changes"`
	PreviousState StateDocument `gorm:"column:previous_state;type:json" json:"previous_state"`
	CurrentState  StateDocument `gorm:"column:current_state;type:json" json:"current_state"`
	CreatedBy     string        `gorm:"column:created_by;type:varchar(36)" json:"created_by"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Version) TableName() string { return "versions" }

// BeforeCreate assigns a UUID primary key when none is set
func (v *Version) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// EntityTypeEvent tags event versions in the ledger.
const EntityTypeEvent = "event"
