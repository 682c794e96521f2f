package repositories

import (
	"context"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new intent. A live intent with the same idempotency key
// makes it fail with ErrDuplicateRecord.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return translate(r.db.WithContext(ctx).Create(tx).Error, nil)
}

func (r *TransactionRepository) FindByTxRef(ctx context.Context, txRef string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).Where("tx_ref = ?", txRef).First(&tx).Error; err != nil {
		return nil, translate(err, apperrors.ErrTransactionNotFound)
	}
	return &tx, nil
}

// FindLiveByIdempotencyKey returns the pending or successful intent holding
// key.
func (r *TransactionRepository) FindLiveByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND status IN ?", key,
			[]models.TransactionStatus{models.TransactionPending, models.TransactionSuccessful}).
		First(&tx).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrTransactionNotFound)
	}
	return &tx, nil
}

// Transition applies t only if the row is still in status from. The read,
// check and write happen in one UPDATE, so of two concurrent callers exactly
// one sees applied == true.
func (r *TransactionRepository) Transition(ctx context.Context, txRef string, from models.TransactionStatus, t models.TransactionTransition) (bool, error) {
	updates := map[string]interface{}{"status": t.To}
	switch t.To {
	case models.TransactionSuccessful:
		updates["settled_at"] = t.At
		if t.GatewayTxID != "" {
			updates["gateway_tx_id"] = t.GatewayTxID
		}
		if len(t.GatewayPayload) > 0 {
			updates["gateway_payload"] = datatypes.JSON(t.GatewayPayload)
		}
	case models.TransactionFailed, models.TransactionCancelled:
		updates["failure_reason"] = t.FailureReason
	}

	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("tx_ref = ? AND status = ?", txRef, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TransactionRepository) SetPaymentLink(ctx context.Context, txRef, link string) error {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("tx_ref = ?", txRef).
		Update("payment_link", link)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// ListByBusiness returns one page of a business's transactions, newest first,
// and the total count.
func (r *TransactionRepository) ListByBusiness(ctx context.Context, businessID string, offset, limit int) ([]models.Transaction, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("business_id = ?", businessID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error
	return txs, total, err
}

// SuccessfulTotals sums the fee breakdown over successful transactions.
func (r *TransactionRepository) SuccessfulTotals(ctx context.Context, businessID string) (models.RevenueTotals, error) {
	var totals models.RevenueTotals
	row := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("business_id = ? AND status = ?", businessID, models.TransactionSuccessful).
		Select("COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(platform_fee), 0), COALESCE(SUM(gateway_fee), 0), COALESCE(SUM(net_amount), 0)").
		Row()
	err := row.Scan(&totals.Successful, &totals.Gross, &totals.PlatformFees, &totals.GatewayFees, &totals.Net)
	return totals, err
}

func (r *TransactionRepository) CountByBusiness(ctx context.Context, businessID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("business_id = ?", businessID).
		Count(&n).Error
	return n, err
}

func (r *TransactionRepository) RecentByBusiness(ctx context.Context, businessID string, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
