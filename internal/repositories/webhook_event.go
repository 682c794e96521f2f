package repositories

import (
	"context"
	"time"

	"sitepay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Create(ctx context.Context, event *models.WebhookEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// Complete stores the processing outcome of a logged delivery.
func (r *WebhookEventRepository) Complete(ctx context.Context, id uuid.UUID, outcome, reason string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"outcome":      outcome,
			"reason":       reason,
			"processed_at": at,
		}).Error
}
