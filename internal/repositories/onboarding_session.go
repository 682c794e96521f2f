package repositories

import (
	"context"
	"time"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OnboardingSessionRepository struct {
	db *gorm.DB
}

func NewOnboardingSessionRepository(db *gorm.DB) *OnboardingSessionRepository {
	return &OnboardingSessionRepository{db: db}
}

// Create inserts a session. A second open session for the same business
// fails with ErrDuplicateRecord.
func (r *OnboardingSessionRepository) Create(ctx context.Context, session *models.OnboardingSession) error {
	return translate(r.db.WithContext(ctx).Create(session).Error, nil)
}

func (r *OnboardingSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.OnboardingSession, error) {
	var session models.OnboardingSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, translate(err, apperrors.ErrSessionNotFound)
	}
	return &session, nil
}

func (r *OnboardingSessionRepository) FindActiveByBusiness(ctx context.Context, businessID string) (*models.OnboardingSession, error) {
	var session models.OnboardingSession
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND status IN ?", businessID, models.OpenSessionStatuses).
		First(&session).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrSessionNotFound)
	}
	return &session, nil
}

// Update writes the mutable fields of session only if the stored status is
// still from. It reports whether the write applied; false means another
// writer moved the session first.
func (r *OnboardingSessionRepository) Update(ctx context.Context, session *models.OnboardingSession, from models.SessionStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.OnboardingSession{}).
		Where("id = ? AND status = ?", session.ID, from).
		Updates(map[string]interface{}{
			"steps":              session.Steps,
			"answers":            session.Answers,
			"current_step":       session.CurrentStep,
			"progress":           session.Progress,
			"status":             session.Status,
			"error":              session.Error,
			"last_error":         session.LastError,
			"payment_account_id": session.PaymentAccountID,
			"expires_at":         session.ExpiresAt,
			"last_activity_at":   session.LastActivityAt,
		})
	if res.Error != nil {
		return false, translate(res.Error, nil)
	}
	return res.RowsAffected == 1, nil
}

// ExpireStale closes open sessions whose expiry has passed. In-progress
// sessions are abandoned and their answers dropped; provisioning sessions
// whose window lapsed are failed.
func (r *OnboardingSessionRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.OnboardingSession{}).
			Where("status = ? AND expires_at <= ?", models.SessionInProgress, now).
			Updates(map[string]interface{}{
				"status":  models.SessionAbandoned,
				"error":   "session expired",
				"answers": datatypes.JSONMap{},
			})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Model(&models.OnboardingSession{}).
			Where("status = ? AND expires_at <= ?", models.SessionProvisioning, now).
			Updates(map[string]interface{}{
				"status":  models.SessionFailed,
				"error":   "provisioning interrupted",
				"answers": datatypes.JSONMap{},
			})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// PurgeTerminal deletes finished sessions last touched before cutoff.
func (r *OnboardingSessionRepository) PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", models.TerminalSessionStatuses, cutoff).
		Delete(&models.OnboardingSession{})
	return res.RowsAffected, res.Error
}
