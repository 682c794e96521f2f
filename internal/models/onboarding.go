package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	// SessionProvisioning marks a session whose final step was accepted and
	// whose payment account is being created. It accepts no more steps.
	SessionProvisioning SessionStatus = "provisioning"
	SessionCompleted    SessionStatus = "completed"
	SessionFailed       SessionStatus = "failed"
	SessionAbandoned    SessionStatus = "abandoned"
)

// OpenSessionStatuses are the statuses that block a business from starting
// another session.
var OpenSessionStatuses = []SessionStatus{SessionInProgress, SessionProvisioning}

// TerminalSessionStatuses never change again.
var TerminalSessionStatuses = []SessionStatus{SessionCompleted, SessionFailed, SessionAbandoned}

func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionAbandoned:
		return true
	}
	return false
}

type StepID string

const (
	StepBusinessVerification   StepID = "business_verification"
	StepNationalIDVerification StepID = "national_id_verification"
	StepBankAccount            StepID = "bank_account"
	StepKYCVerification        StepID = "kyc_verification"
)

type StepState struct {
	ID          StepID     `json:"id"`
	Required    bool       `json:"required"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// OnboardingSession records a business's progress through the KYC steps.
// At most one open (in_progress or provisioning) session exists per
// business, enforced by a partial unique index. Status only moves forward:
// in_progress to provisioning or abandoned, provisioning to completed or
// failed.
type OnboardingSession struct {
	ID               uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID       string                         `gorm:"type:varchar(64);not null;index:idx_onboarding_active_business,unique,where:status = 'in_progress' OR status = 'provisioning'" json:"businessId"`
	Country          string                         `gorm:"type:varchar(2);not null" json:"country"`
	Steps            datatypes.JSONSlice[StepState] `json:"steps"`
	Answers          datatypes.JSONMap              `json:"-"`
	CurrentStep      StepID                         `gorm:"type:varchar(48)" json:"currentStep,omitempty"`
	Progress         int                            `gorm:"not null;default:0" json:"progress"`
	Status           SessionStatus                  `gorm:"type:varchar(16);not null;index" json:"status"`
	Error            string                         `json:"error,omitempty"`
	LastError        string                         `json:"lastError,omitempty"`
	PaymentAccountID *uuid.UUID                     `gorm:"type:uuid" json:"paymentAccountId,omitempty"`
	ExpiresAt        time.Time                      `gorm:"not null;index" json:"expiresAt"`
	LastActivityAt   time.Time                      `json:"lastActivityAt"`
	CreatedAt        time.Time                      `json:"createdAt"`
	UpdatedAt        time.Time                      `json:"updatedAt"`
}

func (s *OnboardingSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *OnboardingSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Step returns the index of id in the session's step list, or -1.
func (s *OnboardingSession) Step(id StepID) int {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// CompletedCount returns how many steps are marked completed.
func (s *OnboardingSession) CompletedCount() int {
	n := 0
	for _, st := range s.Steps {
		if st.Completed {
			n++
		}
	}
	return n
}

// RecomputeProgress sets Progress to round(100 * completed / total).
func (s *OnboardingSession) RecomputeProgress() {
	total := len(s.Steps)
	if total == 0 {
		s.Progress = 0
		return
	}
	s.Progress = (200*s.CompletedCount() + total) / (2 * total)
}

// NextRequiredStep returns the first incomplete required step in declared
// order, or "" when every required step is done.
func (s *OnboardingSession) NextRequiredStep() StepID {
	for _, st := range s.Steps {
		if st.Required && !st.Completed {
			return st.ID
		}
	}
	return ""
}

// Touch refreshes the activity timestamp and slides the expiry window.
func (s *OnboardingSession) Touch(now time.Time, ttl time.Duration) {
	s.LastActivityAt = now
	s.ExpiresAt = now.Add(ttl)
}
