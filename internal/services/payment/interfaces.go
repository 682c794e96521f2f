package payment

import (
	"context"

	"sitepay/internal/gateway"
	"sitepay/internal/models"
	"sitepay/internal/services/fees"
	"sitepay/internal/services/ledger"

	"github.com/shopspring/decimal"
)

// Dependencies required by the payment service

type Ledger interface {
	CreateIntent(ctx context.Context, req ledger.IntentRequest) (*ledger.IntentResult, error)
	MarkFailed(ctx context.Context, txRef, reason string) (*models.Transaction, bool, error)
	AttachPaymentLink(ctx context.Context, txRef, link string) error
	Get(ctx context.Context, businessID, txRef string) (*models.Transaction, error)
	List(ctx context.Context, businessID string, offset, limit int) ([]models.Transaction, int64, error)
}

type AccountRepository interface {
	FindByBusiness(ctx context.Context, businessID string) (*models.PaymentAccount, error)
	Save(ctx context.Context, account *models.PaymentAccount) error
}

type Gateway interface {
	InitiatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentLink, error)
}

type FeeCalculator interface {
	Calculate(amount decimal.Decimal, tier models.Tier) (fees.Breakdown, error)
}

type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context, businessID string) error
}
