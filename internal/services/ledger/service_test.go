package ledger

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/models"
	"sitepay/internal/services/fees"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memRepo mirrors the partial unique index and conditional update of the
// SQL repository.
type memRepo struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
}

func newMemRepo() *memRepo {
	return &memRepo{txs: make(map[string]*models.Transaction)}
}

func live(tx *models.Transaction) bool {
	return tx.Status != models.TransactionFailed && tx.Status != models.TransactionCancelled
}

func (r *memRepo) Create(_ context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.TxRef == tx.TxRef || (existing.IdempotencyKey == tx.IdempotencyKey && live(existing)) {
			return apperrors.ErrDuplicateRecord
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	cp := *tx
	r.txs[tx.TxRef] = &cp
	return nil
}

func (r *memRepo) FindByTxRef(_ context.Context, txRef string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[txRef]
	if !ok {
		return nil, apperrors.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (r *memRepo) FindLiveByIdempotencyKey(_ context.Context, key string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.IdempotencyKey == key && live(tx) {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, apperrors.ErrTransactionNotFound
}

func (r *memRepo) Transition(_ context.Context, txRef string, from models.TransactionStatus, t models.TransactionTransition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[txRef]
	if !ok || tx.Status != from {
		return false, nil
	}
	tx.Status = t.To
	tx.GatewayTxID = t.GatewayTxID
	tx.FailureReason = t.FailureReason
	if t.To == models.TransactionSuccessful {
		at := t.At
		tx.SettledAt = &at
	}
	return true, nil
}

func (r *memRepo) SetPaymentLink(_ context.Context, txRef, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[txRef]
	if !ok {
		return apperrors.ErrTransactionNotFound
	}
	tx.PaymentLink = link
	return nil
}

func (r *memRepo) ListByBusiness(_ context.Context, businessID string, offset, limit int) ([]models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for _, tx := range r.txs {
		if tx.BusinessID == businessID {
			out = append(out, *tx)
		}
	}
	return out, int64(len(out)), nil
}

var fixedNow = time.Date(2024, 5, 1, 10, 3, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	s := NewService(repo, fees.NewFeeCalculator(models.DefaultFeeSchedule()), 15*time.Minute, nil, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func intent(amount string) IntentRequest {
	return IntentRequest{
		BusinessID:       "biz-1",
		PaymentAccountID: uuid.New(),
		Tier:             models.TierSolo,
		Customer:         Customer{Email: "Ada@Example.com", Name: "Ada"},
		Amount:           decimal.RequireFromString(amount),
		Currency:         "ngn",
	}
}

func TestCreateIntent_ComputesFees(t *testing.T) {
	s := newTestService(newMemRepo())

	res, err := s.CreateIntent(context.Background(), intent("10000"))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	tx := res.Transaction
	assert.Equal(t, models.TransactionPending, tx.Status)
	assert.Equal(t, "NGN", tx.Currency)
	assert.True(t, strings.HasPrefix(tx.TxRef, "SP-"))
	assert.Equal(t, "140", tx.GatewayFee.String())
	assert.Equal(t, "350", tx.PlatformFee.String())
	assert.Equal(t, "490", tx.TotalFee.String())
	assert.Equal(t, "9510", tx.NetAmount.String())
	assert.True(t, tx.Amount.Equal(tx.NetAmount.Add(tx.TotalFee)))
}

func TestCreateIntent_Idempotent(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(repo)
	ctx := context.Background()

	first, err := s.CreateIntent(ctx, intent("2500.50"))
	require.NoError(t, err)

	retry := intent("2500.5")
	retry.Customer.Email = "  ada@example.com "
	second, err := s.CreateIntent(ctx, retry)
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Transaction.TxRef, second.Transaction.TxRef)
	assert.Len(t, repo.txs, 1)
}

func TestCreateIntent_NewBucketOrFailedIntentOpensNewOne(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(repo)
	ctx := context.Background()

	first, err := s.CreateIntent(ctx, intent("100"))
	require.NoError(t, err)

	_, applied, err := s.MarkFailed(ctx, first.Transaction.TxRef, "gateway unavailable")
	require.NoError(t, err)
	require.True(t, applied)

	second, err := s.CreateIntent(ctx, intent("100"))
	require.NoError(t, err)
	assert.False(t, second.Duplicate)
	assert.NotEqual(t, first.Transaction.TxRef, second.Transaction.TxRef)

	s.now = func() time.Time { return fixedNow.Add(20 * time.Minute) }
	third, err := s.CreateIntent(ctx, intent("100"))
	require.NoError(t, err)
	assert.False(t, third.Duplicate)
}

func TestCreateIntent_ConcurrentRequestsShareIntent(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(repo)

	const n = 16
	refs := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.CreateIntent(context.Background(), intent("750"))
			if assert.NoError(t, err) {
				refs[i] = res.Transaction.TxRef
			}
		}(i)
	}
	wg.Wait()

	for _, ref := range refs {
		assert.Equal(t, refs[0], ref)
	}
	assert.Len(t, repo.txs, 1)
}

func TestCreateIntent_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IntentRequest)
		want   error
	}{
		{"zero amount", func(r *IntentRequest) { r.Amount = decimal.Zero }, apperrors.ErrInvalidAmount},
		{"sub-minor amount", func(r *IntentRequest) { r.Amount = decimal.RequireFromString("1.005") }, apperrors.ErrInvalidAmount},
		{"unknown tier", func(r *IntentRequest) { r.Tier = "gold" }, apperrors.ErrUnknownTier},
		{"missing email", func(r *IntentRequest) { r.Customer.Email = " " }, apperrors.ErrInvalidPaymentRequest},
		{"bad currency", func(r *IntentRequest) { r.Currency = "NAIRA" }, apperrors.ErrUnsupportedCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			req := intent("100")
			tt.mutate(&req)

			_, err := newTestService(repo).CreateIntent(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, repo.txs)
		})
	}
}

func TestMarkSuccessful_OnlyOnce(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(repo)
	ctx := context.Background()

	res, err := s.CreateIntent(ctx, intent("100"))
	require.NoError(t, err)
	ref := res.Transaction.TxRef

	tx, applied, err := s.MarkSuccessful(ctx, ref, "FLW-1", []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.TransactionSuccessful, tx.Status)
	assert.NotNil(t, tx.SettledAt)

	tx, applied, err = s.MarkSuccessful(ctx, ref, "FLW-2", nil)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "FLW-1", tx.GatewayTxID)

	tx, applied, err = s.MarkFailed(ctx, ref, "late failure")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.TransactionSuccessful, tx.Status)
}

func TestMarkSuccessful_ConcurrentSingleWinner(t *testing.T) {
	repo := newMemRepo()
	s := newTestService(repo)
	ctx := context.Background()

	res, err := s.CreateIntent(ctx, intent("100"))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := s.MarkSuccessful(ctx, res.Transaction.TxRef, "FLW", nil)
			assert.NoError(t, err)
			if applied {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMarkSuccessful_UnknownReference(t *testing.T) {
	_, _, err := newTestService(newMemRepo()).MarkSuccessful(context.Background(), "SP-missing", "", nil)
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
}

func TestGet_ScopesToBusiness(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()

	res, err := s.CreateIntent(ctx, intent("100"))
	require.NoError(t, err)

	_, err = s.Get(ctx, "biz-2", res.Transaction.TxRef)
	assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)

	tx, err := s.Get(ctx, "biz-1", res.Transaction.TxRef)
	require.NoError(t, err)
	assert.Equal(t, res.Transaction.ID, tx.ID)
}

func TestIdempotencyKey_Stable(t *testing.T) {
	bucket := fixedNow.Truncate(15 * time.Minute)
	a := IdempotencyKey("biz", "A@x.io", decimal.RequireFromString("10"), "NGN", bucket)
	b := IdempotencyKey("biz", "a@x.io", decimal.RequireFromString("10.00"), "ngn", bucket)
	c := IdempotencyKey("biz", "a@x.io", decimal.RequireFromString("10"), "GHS", bucket)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
