package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const RevenueEntryPlatformFee = "platform_fee"

// Platform fee collection methods.
const (
	CollectionExternal = "external"
	CollectionSplit    = "split"
)

// PlatformRevenueEntry is append-only. TransactionID is unique so a settled
// transaction is booked at most once.
type PlatformRevenueEntry struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID    uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"transactionId"`
	TxRef            string          `gorm:"type:varchar(64);not null" json:"txRef"`
	BusinessID       string          `gorm:"type:varchar(64);not null;index" json:"businessId"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Currency         string          `gorm:"type:varchar(3);not null" json:"currency"`
	Tier             Tier            `gorm:"type:varchar(16);not null" json:"tier"`
	BusinessType     string          `gorm:"type:varchar(64)" json:"businessType,omitempty"`
	EntryType        string          `gorm:"type:varchar(32);not null" json:"entryType"`
	CollectionMethod string          `gorm:"type:varchar(16);not null" json:"collectionMethod"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func (e *PlatformRevenueEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
