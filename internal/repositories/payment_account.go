package repositories

import (
	"context"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"

	"gorm.io/gorm"
)

type PaymentAccountRepository struct {
	db *gorm.DB
}

func NewPaymentAccountRepository(db *gorm.DB) *PaymentAccountRepository {
	return &PaymentAccountRepository{db: db}
}

func (r *PaymentAccountRepository) Create(ctx context.Context, account *models.PaymentAccount) error {
	return translate(r.db.WithContext(ctx).Create(account).Error, nil)
}

func (r *PaymentAccountRepository) FindByBusiness(ctx context.Context, businessID string) (*models.PaymentAccount, error) {
	var account models.PaymentAccount
	err := r.db.WithContext(ctx).Where("business_id = ?", businessID).First(&account).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrAccountNotFound)
	}
	return &account, nil
}

// Save persists tier, fee and status changes.
func (r *PaymentAccountRepository) Save(ctx context.Context, account *models.PaymentAccount) error {
	return translate(r.db.WithContext(ctx).Save(account).Error, nil)
}
