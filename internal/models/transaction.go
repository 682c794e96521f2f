package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionSuccessful TransactionStatus = "successful"
	TransactionFailed     TransactionStatus = "failed"
	TransactionCancelled  TransactionStatus = "cancelled"
)

func (s TransactionStatus) Terminal() bool {
	return s != TransactionPending
}

// Transaction is one payment intent. The idempotency key is unique among
// rows that have not failed or been cancelled, so a retried request can never
// open a second live intent.
type Transaction struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID       string            `gorm:"type:varchar(64);not null;index:idx_transactions_business_created,priority:1" json:"businessId"`
	PaymentAccountID uuid.UUID         `gorm:"type:uuid;not null" json:"paymentAccountId"`
	TxRef            string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"txRef"`
	IdempotencyKey   string            `gorm:"type:varchar(64);not null;index:idx_transactions_idempotency,unique,where:status <> 'failed' AND status <> 'cancelled'" json:"-"`
	GatewayTxID      string            `gorm:"type:varchar(64)" json:"gatewayTxId,omitempty"`
	Amount           decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"amount"`
	Currency         string            `gorm:"type:varchar(3);not null" json:"currency"`
	CustomerEmail    string            `gorm:"not null" json:"customerEmail"`
	CustomerName     string            `json:"customerName,omitempty"`
	CustomerPhone    string            `json:"customerPhone,omitempty"`
	Description      string            `json:"description,omitempty"`
	PlatformFee      decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"platformFee"`
	GatewayFee       decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"gatewayFee"`
	TotalFee         decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"totalFee"`
	NetAmount        decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"netAmount"`
	PlatformFeePct   decimal.Decimal   `gorm:"type:numeric(6,3);not null" json:"platformFeePct"`
	GatewayFeePct    decimal.Decimal   `gorm:"type:numeric(6,3);not null" json:"gatewayFeePct"`
	Tier             Tier              `gorm:"type:varchar(16);not null" json:"tier"`
	BusinessType     string            `gorm:"type:varchar(64)" json:"businessType,omitempty"`
	Status           TransactionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	FailureReason    string            `json:"failureReason,omitempty"`
	PaymentLink      string            `json:"paymentLink,omitempty"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
	GatewayPayload   datatypes.JSON    `json:"-"`
	SettledAt        *time.Time        `json:"settledAt,omitempty"`
	CreatedAt        time.Time         `gorm:"index:idx_transactions_business_created,priority:2" json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransactionTransition is a conditional status change applied by the
// ledger. Only the fields relevant to the target status are written.
type TransactionTransition struct {
	To             TransactionStatus
	GatewayTxID    string
	GatewayPayload []byte
	FailureReason  string
	At             time.Time
}
