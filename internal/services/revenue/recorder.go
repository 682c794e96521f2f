// Package revenue books the platform's share of settled payments.
package revenue

import (
	"context"
	"fmt"
	"time"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"
	"sitepay/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	// Insert reports false when an entry for the transaction already exists.
	Insert(ctx context.Context, entry *models.PlatformRevenueEntry) (bool, error)
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*models.PlatformRevenueEntry, error)
	// FindUnbooked returns successful transactions with no revenue entry.
	FindUnbooked(ctx context.Context, limit int) ([]models.Transaction, error)
}

type Recorder struct {
	repo             Repository
	collectionMethod string
	now              func() time.Time
	metrics          *observability.Metrics
	logger           *zap.Logger
}

func NewRecorder(repo Repository, collectionMethod string, metrics *observability.Metrics, logger *zap.Logger) *Recorder {
	if collectionMethod == "" {
		collectionMethod = models.CollectionExternal
	}
	return &Recorder{
		repo:             repo,
		collectionMethod: collectionMethod,
		now:              time.Now,
		metrics:          metrics,
		logger:           logger,
	}
}

// Record books the platform fee of a successful transaction. The bool is
// false when the transaction was already booked, in which case the existing
// entry is returned.
func (r *Recorder) Record(ctx context.Context, tx *models.Transaction) (*models.PlatformRevenueEntry, bool, error) {
	if tx.Status != models.TransactionSuccessful {
		return nil, false, apperrors.ErrTransactionNotSettled
	}

	entry := &models.PlatformRevenueEntry{
		TransactionID:    tx.ID,
		TxRef:            tx.TxRef,
		BusinessID:       tx.BusinessID,
		Amount:           tx.PlatformFee,
		Currency:         tx.Currency,
		Tier:             tx.Tier,
		BusinessType:     tx.BusinessType,
		EntryType:        models.RevenueEntryPlatformFee,
		CollectionMethod: r.collectionMethod,
		CreatedAt:        r.now(),
	}

	inserted, err := r.repo.Insert(ctx, entry)
	if err != nil {
		r.metrics.IncrRevenue("error")
		return nil, false, fmt.Errorf("book revenue for %s: %w", tx.TxRef, err)
	}
	if !inserted {
		r.metrics.IncrRevenue("duplicate")
		existing, err := r.repo.FindByTransactionID(ctx, tx.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	r.metrics.IncrRevenue("booked")
	r.logger.Info("platform revenue booked",
		zap.String("tx_ref", tx.TxRef),
		zap.String("business_id", tx.BusinessID),
		zap.String("amount", entry.Amount.StringFixed(2)),
		zap.String("currency", entry.Currency),
	)
	return entry, true, nil
}

// Reconcile books revenue for up to limit settled transactions that were
// missed, and returns how many it booked.
func (r *Recorder) Reconcile(ctx context.Context, limit int) (int, error) {
	txs, err := r.repo.FindUnbooked(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find unbooked transactions: %w", err)
	}

	booked := 0
	for i := range txs {
		if err := ctx.Err(); err != nil {
			return booked, err
		}
		_, inserted, err := r.Record(ctx, &txs[i])
		if err != nil {
			r.logger.Warn("reconcile revenue failed", zap.String("tx_ref", txs[i].TxRef), zap.Error(err))
			continue
		}
		if inserted {
			booked++
		}
	}
	if booked > 0 {
		r.logger.Info("revenue reconciled", zap.Int("booked", booked))
	}
	return booked, nil
}
