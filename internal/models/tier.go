package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier is a merchant's pricing plan.
type Tier string

const (
	TierSolo       Tier = "solo"
	TierTeam       Tier = "team"
	TierEnterprise Tier = "enterprise"
)

// Tiers lists every plan from the entry plan to the highest one.
var Tiers = []Tier{TierSolo, TierTeam, TierEnterprise}

// DefaultTier is assigned to every account created by onboarding.
const DefaultTier = TierSolo

func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// FeeSchedule holds commission percentages, e.g. 3.5 means 3.5%.
type FeeSchedule struct {
	GatewayPct  decimal.Decimal
	PlatformPct map[Tier]decimal.Decimal
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		GatewayPct: decimal.RequireFromString("1.4"),
		PlatformPct: map[Tier]decimal.Decimal{
			TierSolo:       decimal.RequireFromString("3.5"),
			TierTeam:       decimal.RequireFromString("2.5"),
			TierEnterprise: decimal.RequireFromString("1.5"),
		},
	}
}

// Platform returns the platform percentage for tier.
func (s FeeSchedule) Platform(tier Tier) (decimal.Decimal, bool) {
	pct, ok := s.PlatformPct[tier]
	return pct, ok
}

// Validate rejects negative or missing percentages and any schedule where a
// higher tier pays more than a lower one.
func (s FeeSchedule) Validate() error {
	if s.GatewayPct.IsNegative() {
		return fmt.Errorf("gateway fee percentage is negative: %s", s.GatewayPct)
	}
	var prev decimal.Decimal
	for i, t := range Tiers {
		pct, ok := s.PlatformPct[t]
		if !ok {
			return fmt.Errorf("no platform fee for tier %q", t)
		}
		if pct.IsNegative() {
			return fmt.Errorf("platform fee for tier %q is negative: %s", t, pct)
		}
		if i > 0 && pct.GreaterThan(prev) {
			return fmt.Errorf("platform fee for tier %q (%s) exceeds tier %q (%s)", t, pct, Tiers[i-1], prev)
		}
		prev = pct
	}
	return nil
}
