package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sitepay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockReader struct {
	mock.Mock
}

func (m *MockReader) SuccessfulTotals(ctx context.Context, businessID string) (models.RevenueTotals, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(models.RevenueTotals), args.Error(1)
}

func (m *MockReader) CountByBusiness(ctx context.Context, businessID string) (int64, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReader) RecentByBusiness(ctx context.Context, businessID string, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, businessID, limit)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

// mapCache stores values as-is; Get copies them into dest by type.
type mapCache struct {
	mu   sync.Mutex
	data map[string]*Dashboard
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	if !ok {
		return false, nil
	}
	*dest.(*Dashboard) = *d
	return true, nil
}

func (c *mapCache) SetWithTTL(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.(*Dashboard)
	return nil
}

func totals() models.RevenueTotals {
	return models.RevenueTotals{
		Gross:        decimal.RequireFromString("20000"),
		PlatformFees: decimal.RequireFromString("700"),
		GatewayFees:  decimal.RequireFromString("280"),
		Net:          decimal.RequireFromString("19020"),
		Successful:   2,
	}
}

func TestBusinessDashboard_Aggregates(t *testing.T) {
	reader := new(MockReader)
	recent := []models.Transaction{{TxRef: "SP-2"}, {TxRef: "SP-1"}}
	reader.On("SuccessfulTotals", mock.Anything, "biz-1").Return(totals(), nil)
	reader.On("CountByBusiness", mock.Anything, "biz-1").Return(int64(3), nil)
	reader.On("RecentByBusiness", mock.Anything, "biz-1", 5).Return(recent, nil)

	d, err := NewService(reader, nil, 0, 5, nil, zap.NewNop()).BusinessDashboard(context.Background(), "biz-1")
	require.NoError(t, err)

	assert.Equal(t, "20000", d.Revenue.Gross.String())
	assert.Equal(t, "19020", d.Revenue.Net.String())
	assert.Equal(t, int64(3), d.Analytics.TotalTransactions)
	assert.Equal(t, int64(2), d.Analytics.SuccessfulTransactions)
	assert.Equal(t, 66.67, d.Analytics.SuccessRate)
	assert.Len(t, d.RecentTransactions, 2)
	reader.AssertExpectations(t)
}

func TestBusinessDashboard_EmptyBusiness(t *testing.T) {
	reader := new(MockReader)
	reader.On("SuccessfulTotals", mock.Anything, "biz-0").Return(models.RevenueTotals{}, nil)
	reader.On("CountByBusiness", mock.Anything, "biz-0").Return(int64(0), nil)
	reader.On("RecentByBusiness", mock.Anything, "biz-0", 10).Return(nil, nil)

	d, err := NewService(reader, nil, 0, 0, nil, zap.NewNop()).BusinessDashboard(context.Background(), "biz-0")
	require.NoError(t, err)
	assert.Zero(t, d.Analytics.SuccessRate)
	assert.NotNil(t, d.RecentTransactions)
}

func TestBusinessDashboard_ServesFromCache(t *testing.T) {
	reader := new(MockReader)
	reader.On("SuccessfulTotals", mock.Anything, "biz-1").Return(totals(), nil).Once()
	reader.On("CountByBusiness", mock.Anything, "biz-1").Return(int64(2), nil).Once()
	reader.On("RecentByBusiness", mock.Anything, "biz-1", 10).Return([]models.Transaction{}, nil).Once()

	c := &mapCache{data: make(map[string]*Dashboard)}
	s := NewService(reader, c, time.Minute, 10, nil, zap.NewNop())

	first, err := s.BusinessDashboard(context.Background(), "biz-1")
	require.NoError(t, err)
	second, err := s.BusinessDashboard(context.Background(), "biz-1")
	require.NoError(t, err)

	assert.Equal(t, first.Analytics, second.Analytics)
	assert.Equal(t, 100.0, second.Analytics.SuccessRate)
	reader.AssertExpectations(t)
}

func TestBusinessDashboard_QueryError(t *testing.T) {
	reader := new(MockReader)
	reader.On("SuccessfulTotals", mock.Anything, "biz-1").Return(models.RevenueTotals{}, errors.New("db down"))
	reader.On("CountByBusiness", mock.Anything, "biz-1").Return(int64(0), nil).Maybe()
	reader.On("RecentByBusiness", mock.Anything, "biz-1", 10).Return(nil, nil).Maybe()

	_, err := NewService(reader, nil, 0, 10, nil, zap.NewNop()).BusinessDashboard(context.Background(), "biz-1")
	assert.ErrorContains(t, err, "db down")
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, SuccessRate(0, 0))
	assert.Equal(t, 50.0, SuccessRate(1, 2))
	assert.Equal(t, 33.33, SuccessRate(1, 3))
}
