package ledger

import (
	"context"

	"sitepay/internal/models"
	"sitepay/internal/services/fees"

	"github.com/shopspring/decimal"
)

// Repository persists transactions. Lookups return
// ErrTransactionNotFound when nothing matches and Create returns
// ErrDuplicateRecord when a live intent already holds the idempotency key.
type Repository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByTxRef(ctx context.Context, txRef string) (*models.Transaction, error)
	FindLiveByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
	Transition(ctx context.Context, txRef string, from models.TransactionStatus, t models.TransactionTransition) (bool, error)
	SetPaymentLink(ctx context.Context, txRef, link string) error
	ListByBusiness(ctx context.Context, businessID string, offset, limit int) ([]models.Transaction, int64, error)
}

type FeeCalculator interface {
	Calculate(amount decimal.Decimal, tier models.Tier) (fees.Breakdown, error)
}
