// Package ledger owns payment intents and their status transitions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"
	"sitepay/internal/observability"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Customer struct {
	Email string
	Name  string
	Phone string
}

type IntentRequest struct {
	BusinessID       string
	PaymentAccountID uuid.UUID
	Tier             models.Tier
	BusinessType     string
	Customer         Customer
	Amount           decimal.Decimal
	Currency         string
	Description      string
	Metadata         map[string]interface{}
}

type IntentResult struct {
	Transaction *models.Transaction
	// Duplicate is set when an earlier identical request already owns the
	// intent.
	Duplicate bool
}

type Service struct {
	repo    Repository
	fees    FeeCalculator
	bucket  time.Duration
	now     func() time.Time
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewService(repo Repository, fees FeeCalculator, bucket time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		fees:    fees,
		bucket:  bucket,
		now:     time.Now,
		metrics: metrics,
		logger:  logger,
	}
}

// CreateIntent opens a pending transaction, or returns the live one an
// identical request in the same time bucket already opened.
func (s *Service) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	if req.BusinessID == "" || strings.TrimSpace(req.Customer.Email) == "" {
		return nil, apperrors.ErrInvalidPaymentRequest.WithFields("businessId", "customer.email")
	}
	currency := strings.ToUpper(req.Currency)
	if len(currency) != 3 {
		return nil, apperrors.ErrUnsupportedCurrency
	}

	breakdown, err := s.fees.Calculate(req.Amount, req.Tier)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := IdempotencyKey(req.BusinessID, req.Customer.Email, req.Amount, currency, now.Truncate(s.bucket))

	existing, err := s.repo.FindLiveByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		s.metrics.IncrIntent("duplicate")
		return &IntentResult{Transaction: existing, Duplicate: true}, nil
	case !errors.Is(err, apperrors.ErrTransactionNotFound):
		return nil, fmt.Errorf("look up intent: %w", err)
	}

	txRef, err := newTxRef(key)
	if err != nil {
		return nil, fmt.Errorf("generate tx ref: %w", err)
	}

	tx := &models.Transaction{
		BusinessID:       req.BusinessID,
		PaymentAccountID: req.PaymentAccountID,
		TxRef:            txRef,
		IdempotencyKey:   key,
		Amount:           breakdown.Amount,
		Currency:         currency,
		CustomerEmail:    strings.TrimSpace(req.Customer.Email),
		CustomerName:     req.Customer.Name,
		CustomerPhone:    req.Customer.Phone,
		Description:      req.Description,
		PlatformFee:      breakdown.PlatformFee,
		GatewayFee:       breakdown.GatewayFee,
		TotalFee:         breakdown.TotalFee,
		NetAmount:        breakdown.NetAmount,
		PlatformFeePct:   breakdown.PlatformPct,
		GatewayFeePct:    breakdown.GatewayPct,
		Tier:             req.Tier,
		BusinessType:     req.BusinessType,
		Status:           models.TransactionPending,
		Metadata:         req.Metadata,
		CreatedAt:        now,
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateRecord) {
			return nil, fmt.Errorf("create intent: %w", err)
		}
		// A concurrent identical request won the insert.
		existing, findErr := s.repo.FindLiveByIdempotencyKey(ctx, key)
		if findErr != nil {
			return nil, fmt.Errorf("create intent: %w", err)
		}
		s.metrics.IncrIntent("duplicate")
		return &IntentResult{Transaction: existing, Duplicate: true}, nil
	}

	s.metrics.IncrIntent("created")
	s.logger.Info("payment intent created",
		zap.String("tx_ref", tx.TxRef),
		zap.String("business_id", tx.BusinessID),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("currency", tx.Currency),
	)
	return &IntentResult{Transaction: tx}, nil
}

// MarkSuccessful settles a pending transaction. The bool reports whether this
// call performed the transition; on a terminal transaction it is false and
// the current record is returned unchanged.
func (s *Service) MarkSuccessful(ctx context.Context, txRef, gatewayRef string, payload []byte) (*models.Transaction, bool, error) {
	return s.transition(ctx, txRef, models.TransactionTransition{
		To:             models.TransactionSuccessful,
		GatewayTxID:    gatewayRef,
		GatewayPayload: payload,
		At:             s.now(),
	})
}

// MarkFailed fails a pending transaction with reason. Like MarkSuccessful it
// is a no-op on terminal transactions.
func (s *Service) MarkFailed(ctx context.Context, txRef, reason string) (*models.Transaction, bool, error) {
	return s.transition(ctx, txRef, models.TransactionTransition{
		To:            models.TransactionFailed,
		FailureReason: reason,
		At:            s.now(),
	})
}

func (s *Service) transition(ctx context.Context, txRef string, t models.TransactionTransition) (*models.Transaction, bool, error) {
	applied, err := s.repo.Transition(ctx, txRef, models.TransactionPending, t)
	if err != nil {
		return nil, false, fmt.Errorf("transition %s to %s: %w", txRef, t.To, err)
	}
	tx, err := s.repo.FindByTxRef(ctx, txRef)
	if err != nil {
		return nil, false, err
	}
	if applied {
		s.logger.Info("transaction transitioned",
			zap.String("tx_ref", txRef),
			zap.String("status", string(t.To)),
		)
	}
	return tx, applied, nil
}

// Lookup finds a transaction by reference regardless of owner.
func (s *Service) Lookup(ctx context.Context, txRef string) (*models.Transaction, error) {
	return s.repo.FindByTxRef(ctx, txRef)
}

// Get returns the transaction only if it belongs to businessID.
func (s *Service) Get(ctx context.Context, businessID, txRef string) (*models.Transaction, error) {
	tx, err := s.repo.FindByTxRef(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if tx.BusinessID != businessID {
		return nil, apperrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Service) AttachPaymentLink(ctx context.Context, txRef, link string) error {
	return s.repo.SetPaymentLink(ctx, txRef, link)
}

func (s *Service) List(ctx context.Context, businessID string, offset, limit int) ([]models.Transaction, int64, error) {
	return s.repo.ListByBusiness(ctx, businessID, offset, limit)
}
