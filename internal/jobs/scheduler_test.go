package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"sitepay/internal/config"
	"sitepay/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSweeper) PurgeTerminal(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func TestSweepOnboarding(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("ExpireStale", mock.Anything).Return(int64(3), nil).Once()
	sweeper.On("PurgeTerminal", mock.Anything).Return(int64(1), nil).Once()

	require.NoError(t, SweepOnboarding(sweeper)(context.Background()))
	sweeper.AssertExpectations(t)
}

func TestSweepOnboarding_StopsOnExpiryError(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("ExpireStale", mock.Anything).Return(int64(0), errors.New("db down"))

	assert.Error(t, SweepOnboarding(sweeper)(context.Background()))
	sweeper.AssertNotCalled(t, "PurgeTerminal", mock.Anything)
}

func TestReconcileRevenue_DefaultBatch(t *testing.T) {
	reconciler := new(MockReconciler)
	reconciler.On("Reconcile", mock.Anything, 200).Return(5, nil)

	require.NoError(t, ReconcileRevenue(reconciler, 0)(context.Background()))
	reconciler.AssertExpectations(t)
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	s := NewScheduler(nil, zap.NewNop())
	err := s.Register("broken", "every now and then", func(context.Context) error { return nil })
	assert.Error(t, err)

	err = s.RegisterDefaults(config.JobsConfig{ExpirySchedule: "@every 1m", ReconcileSchedule: "nope"}, new(MockSweeper), new(MockReconciler))
	assert.Error(t, err)
}

func TestScheduler_RunsAndRecordsJobs(t *testing.T) {
	metrics := observability.NewMetrics()
	s := NewScheduler(metrics, zap.NewNop())

	var runs atomic.Int32
	require.NoError(t, s.Register("tick", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	n, err := testutil.GatherAndCount(metrics.Registry, "sitepay_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
