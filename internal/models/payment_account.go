package models

import (
	"time"

	apperrors "sitepay/internal/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "pending"
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
)

// PaymentAccount is a business's settlement destination at the gateway. It is
// only created by a completed onboarding session and is never hard-deleted.
type PaymentAccount struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"businessId"`
	Tier                Tier            `gorm:"type:varchar(16);not null" json:"tier"`
	BusinessType        string          `gorm:"type:varchar(64)" json:"businessType"`
	BusinessName        string          `gorm:"not null" json:"businessName"`
	BusinessEmail       string          `gorm:"not null" json:"businessEmail"`
	Country             string          `gorm:"type:varchar(2);not null" json:"country"`
	Currency            string          `gorm:"type:varchar(3);not null" json:"currency"`
	SubaccountID        string          `gorm:"type:varchar(64)" json:"subaccountId"`
	BankCode            string          `gorm:"type:varchar(16)" json:"bankCode"`
	AccountNumber       string          `gorm:"type:varchar(32)" json:"accountNumber"`
	AccountName         string          `json:"accountName"`
	PlatformFeePct      decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"platformFeePct"`
	GatewayFeePct       decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"gatewayFeePct"`
	TotalFeePct         decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"totalFeePct"`
	Status              AccountStatus   `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	OnboardingSessionID *uuid.UUID      `gorm:"type:uuid" json:"onboardingSessionId,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

func (a *PaymentAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ApplyTier sets the tier and recomputes the fee percentages from schedule.
// It is the only place fee percentages are written.
func (a *PaymentAccount) ApplyTier(tier Tier, schedule FeeSchedule) error {
	platform, ok := schedule.Platform(tier)
	if !ok {
		return apperrors.ErrUnknownTier
	}
	a.Tier = tier
	a.PlatformFeePct = platform
	a.GatewayFeePct = schedule.GatewayPct
	a.TotalFeePct = platform.Add(schedule.GatewayPct)
	return nil
}

func (a *PaymentAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}
