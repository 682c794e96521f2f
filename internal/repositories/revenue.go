package repositories

import (
	"context"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RevenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) *RevenueRepository {
	return &RevenueRepository{db: db}
}

// Insert books entry unless one already exists for its transaction. It
// reports whether a row was written.
func (r *RevenueRepository) Insert(ctx context.Context, entry *models.PlatformRevenueEntry) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_id"}}, DoNothing: true}).
		Create(entry)
	if res.Error != nil {
		return false, translate(res.Error, nil)
	}
	return res.RowsAffected == 1, nil
}

func (r *RevenueRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*models.PlatformRevenueEntry, error) {
	var entry models.PlatformRevenueEntry
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&entry).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrTransactionNotFound)
	}
	return &entry, nil
}

// FindUnbooked returns successful transactions with no revenue entry, oldest
// settlement first.
func (r *RevenueRepository) FindUnbooked(ctx context.Context, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ?", models.TransactionSuccessful).
		Where("NOT EXISTS (SELECT 1 FROM platform_revenue_entries r WHERE r.transaction_id = transactions.id)").
		Order("settled_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
