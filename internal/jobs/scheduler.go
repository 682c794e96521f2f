// Package jobs runs the periodic maintenance work: onboarding session expiry
// and revenue reconciliation.
package jobs

import (
	"context"
	"fmt"
	"time"

	"sitepay/internal/config"
	"sitepay/internal/observability"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const runTimeout = 4 * time.Minute

type OnboardingSweeper interface {
	ExpireStale(ctx context.Context) (int64, error)
	PurgeTerminal(ctx context.Context) (int64, error)
}

type RevenueReconciler interface {
	Reconcile(ctx context.Context, limit int) (int, error)
}

// Scheduler wraps a cron instance whose jobs never overlap themselves and
// survive panics.
type Scheduler struct {
	cron    *cron.Cron
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewScheduler(metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger: logger.Named("cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		metrics: metrics,
		logger:  logger,
	}
}

// Register schedules fn under name. Each run gets its own timeout-bound
// context.
func (s *Scheduler) Register(name, spec string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		start := time.Now()
		err := fn(ctx)
		s.metrics.IncrJob(name, err)
		if err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// RegisterDefaults schedules the onboarding sweeper and revenue
// reconciliation from cfg.
func (s *Scheduler) RegisterDefaults(cfg config.JobsConfig, sweeper OnboardingSweeper, reconciler RevenueReconciler) error {
	if err := s.Register("onboarding_expiry", cfg.ExpirySchedule, SweepOnboarding(sweeper)); err != nil {
		return err
	}
	return s.Register("revenue_reconcile", cfg.ReconcileSchedule, ReconcileRevenue(reconciler, cfg.ReconcileBatch))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func SweepOnboarding(sweeper OnboardingSweeper) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := sweeper.ExpireStale(ctx); err != nil {
			return err
		}
		_, err := sweeper.PurgeTerminal(ctx)
		return err
	}
}

func ReconcileRevenue(reconciler RevenueReconciler, batch int) func(ctx context.Context) error {
	if batch <= 0 {
		batch = 200
	}
	return func(ctx context.Context) error {
		_, err := reconciler.Reconcile(ctx, batch)
		return err
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
