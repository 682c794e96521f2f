package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FeeSchedule)
		wantErr string
	}{
		{name: "default schedule", mutate: func(*FeeSchedule) {}},
		{
			name:    "missing tier",
			mutate:  func(s *FeeSchedule) { delete(s.PlatformPct, TierTeam) },
			wantErr: `no platform fee for tier "team"`,
		},
		{
			name:    "negative gateway",
			mutate:  func(s *FeeSchedule) { s.GatewayPct = decimal.NewFromInt(-1) },
			wantErr: "gateway fee percentage is negative",
		},
		{
			name:    "higher tier charges more",
			mutate:  func(s *FeeSchedule) { s.PlatformPct[TierEnterprise] = decimal.NewFromInt(4) },
			wantErr: `tier "enterprise" (4) exceeds tier "team"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultFeeSchedule()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPaymentAccount_ApplyTier(t *testing.T) {
	acct := &PaymentAccount{}
	require.NoError(t, acct.ApplyTier(TierTeam, DefaultFeeSchedule()))

	assert.Equal(t, TierTeam, acct.Tier)
	assert.True(t, acct.PlatformFeePct.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, acct.GatewayFeePct.Equal(decimal.RequireFromString("1.4")))
	assert.True(t, acct.TotalFeePct.Equal(decimal.RequireFromString("3.9")))

	assert.Error(t, acct.ApplyTier(Tier("platinum"), DefaultFeeSchedule()))
	assert.Equal(t, TierTeam, acct.Tier, "failed tier change leaves the account untouched")
}

func TestOnboardingSession_RecomputeProgress(t *testing.T) {
	tests := []struct {
		total, completed, want int
	}{
		{4, 0, 0},
		{4, 1, 25},
		{3, 1, 33},
		{3, 2, 67},
		{3, 3, 100},
		{0, 0, 0},
	}

	for _, tt := range tests {
		s := &OnboardingSession{}
		for i := 0; i < tt.total; i++ {
			s.Steps = append(s.Steps, StepState{ID: StepID(rune('a' + i)), Required: true, Completed: i < tt.completed})
		}
		s.RecomputeProgress()
		assert.Equal(t, tt.want, s.Progress, "total=%d completed=%d", tt.total, tt.completed)
	}
}

func TestCountry_OnboardingSteps(t *testing.T) {
	countries := DefaultCountries()

	ng := countries["NG"].OnboardingSteps()
	require.Len(t, ng, 4)
	assert.Equal(t, StepNationalIDVerification, ng[1].ID)

	gh := countries["GH"].OnboardingSteps()
	require.Len(t, gh, 3)
	assert.Equal(t, StepBankAccount, gh[1].ID)
	assert.False(t, gh[2].Required)
}

func TestOnboardingSession_NextRequiredStepSkipsOptional(t *testing.T) {
	s := &OnboardingSession{Steps: DefaultCountries()["GH"].OnboardingSteps()}
	s.Steps[0].Completed = true
	s.Steps[1].Completed = true

	assert.Equal(t, StepID(""), s.NextRequiredStep())

	now := time.Now()
	s.Touch(now, time.Hour)
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Hour)))
}
