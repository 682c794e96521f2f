// Package fees computes the platform and gateway commission on a payment.
package fees

import (
	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"

	"github.com/shopspring/decimal"
)

// Breakdown is the fee split for one amount. Amount always equals
// TotalFee + NetAmount.
type Breakdown struct {
	Amount      decimal.Decimal `json:"amount"`
	GatewayFee  decimal.Decimal `json:"gatewayFee"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	TotalFee    decimal.Decimal `json:"totalFee"`
	NetAmount   decimal.Decimal `json:"netAmount"`
	GatewayPct  decimal.Decimal `json:"gatewayPct"`
	PlatformPct decimal.Decimal `json:"platformPct"`
	Tier        models.Tier     `json:"tier"`
}

type FeeCalculator struct {
	schedule models.FeeSchedule
}

func NewFeeCalculator(schedule models.FeeSchedule) *FeeCalculator {
	return &FeeCalculator{schedule: schedule}
}

// Calculate splits amount for tier. Each fee is rounded half-up to two
// places on its own; the net amount is derived, never rounded.
func (f *FeeCalculator) Calculate(amount decimal.Decimal, tier models.Tier) (Breakdown, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return Breakdown{}, apperrors.ErrInvalidAmount
	}
	platformPct, ok := f.schedule.Platform(tier)
	if !ok {
		return Breakdown{}, apperrors.ErrUnknownTier
	}

	gatewayFee := percentOf(amount, f.schedule.GatewayPct)
	platformFee := percentOf(amount, platformPct)
	total := gatewayFee.Add(platformFee)

	return Breakdown{
		Amount:      amount,
		GatewayFee:  gatewayFee,
		PlatformFee: platformFee,
		TotalFee:    total,
		NetAmount:   amount.Sub(total),
		GatewayPct:  f.schedule.GatewayPct,
		PlatformPct: platformPct,
		Tier:        tier,
	}, nil
}

// percentOf returns amount * pct / 100 rounded half away from zero, which is
// half-up for the positive amounts accepted here.
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Shift(-2).Round(2)
}
