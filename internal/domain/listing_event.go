package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventCreated = "CREATED"
	EventUpdated = "UPDATED"
	EventRenamed = "RENAMED"
	EventDeleted = "DELETED"
)

// ListingEvent is the audit trail of a listing, written in the same transaction as the change.
type ListingEvent struct {
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"eventId"`
	ListingID   uuid.UUID      `gorm:"column:listing_id;type:uuid;not null;index" json:"listingId"`
	EventType   string         `gorm:"column:event_type;type:varchar(30);not null" json:"eventType"`
	EventData   datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"eventData"`
	ActorUserID string         `gorm:"column:actor_user_id;not null" json:"actorUserId"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"createdAt"`
}

func (ListingEvent) TableName() string {
	return "listing_events"
}

func (le *ListingEvent) BeforeCreate(tx *gorm.DB) error {
	if le.EventID == uuid.Nil {
		le.EventID = uuid.New()
	}
	return nil
}
