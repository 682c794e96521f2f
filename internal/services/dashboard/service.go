// Package dashboard computes read-only per-business rollups from the ledger.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"sitepay/internal/models"
	"sitepay/internal/observability"
	"sitepay/internal/repositories/cache"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type TransactionReader interface {
	SuccessfulTotals(ctx context.Context, businessID string) (models.RevenueTotals, error)
	CountByBusiness(ctx context.Context, businessID string) (int64, error)
	RecentByBusiness(ctx context.Context, businessID string, limit int) ([]models.Transaction, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Analytics struct {
	TotalTransactions      int64   `json:"totalTransactions"`
	SuccessfulTransactions int64   `json:"successfulTransactions"`
	SuccessRate            float64 `json:"successRate"`
}

type Dashboard struct {
	Revenue            models.RevenueTotals `json:"revenue"`
	Analytics          Analytics            `json:"analytics"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

type Service struct {
	txs         TransactionReader
	cache       Cache
	ttl         time.Duration
	recentLimit int
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewService builds the aggregator. cache may be nil.
func NewService(txs TransactionReader, c Cache, ttl time.Duration, recentLimit int, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &Service{
		txs:         txs,
		cache:       c,
		ttl:         ttl,
		recentLimit: recentLimit,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *Service) BusinessDashboard(ctx context.Context, businessID string) (*Dashboard, error) {
	key := cache.DashboardKey(businessID)
	if s.cache != nil && s.ttl > 0 {
		var cached Dashboard
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read", zap.String("business_id", businessID), zap.Error(err))
		}
		s.metrics.IncrCache("dashboard", hit)
		if hit {
			return &cached, nil
		}
	}

	var (
		totals models.RevenueTotals
		count  int64
		recent []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.txs.SuccessfulTotals(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.txs.CountByBusiness(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.txs.RecentByBusiness(gctx, businessID, s.recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate dashboard: %w", err)
	}
	if recent == nil {
		recent = []models.Transaction{}
	}

	d := &Dashboard{
		Revenue: totals,
		Analytics: Analytics{
			TotalTransactions:      count,
			SuccessfulTransactions: totals.Successful,
			SuccessRate:            SuccessRate(totals.Successful, count),
		},
		RecentTransactions: recent,
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetWithTTL(ctx, key, d, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write", zap.String("business_id", businessID), zap.Error(err))
		}
	}
	return d, nil
}

// SuccessRate returns successful/total as a percentage rounded to two
// places, or 0 when total is 0.
func SuccessRate(successful, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate, _ := decimal.NewFromInt(successful).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), 2).
		Float64()
	return rate
}
