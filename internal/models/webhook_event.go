package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookEvent logs one authenticated gateway delivery, kept for audit and
// replay. Outcome is "received" until processing finishes.
type WebhookEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Provider    string         `gorm:"type:varchar(32);not null" json:"provider"`
	EventType   string         `gorm:"type:varchar(64)" json:"eventType"`
	TxRef       string         `gorm:"type:varchar(64);index" json:"txRef,omitempty"`
	GatewayRef  string         `gorm:"type:varchar(64)" json:"gatewayRef,omitempty"`
	Payload     datatypes.JSON `json:"payload"`
	Outcome     string         `gorm:"type:varchar(32);not null;default:'received'" json:"outcome"`
	Reason      string         `json:"reason,omitempty"`
	ReceivedAt  time.Time      `gorm:"not null" json:"receivedAt"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
}

func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
