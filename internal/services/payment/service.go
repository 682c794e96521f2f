// Package payment initiates customer payments for onboarded businesses and
// manages their payment accounts.
package payment

import (
	"context"
	"fmt"
	"strings"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/gateway"
	"sitepay/internal/models"
	"sitepay/internal/observability"
	"sitepay/internal/services/fees"
	"sitepay/internal/services/ledger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	Currencies    map[string]bool
	Fees          models.FeeSchedule
	FeeCollection string
	RedirectURL   string
}

type InitiateRequest struct {
	BusinessID  string
	Amount      decimal.Decimal
	Currency    string
	Customer    ledger.Customer
	Description string
	Metadata    map[string]interface{}
}

type InitiateResult struct {
	Transaction *models.Transaction `json:"transaction"`
	PaymentLink string              `json:"paymentLink"`
	Duplicate   bool                `json:"duplicate"`
}

type Service struct {
	ledger    Ledger
	accounts  AccountRepository
	gateway   Gateway
	fees      FeeCalculator
	dashboard DashboardInvalidator
	cfg       Config
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewService creates a new payment service. dashboard may be nil.
func NewService(l Ledger, accounts AccountRepository, gw Gateway, fc FeeCalculator, dashboard DashboardInvalidator, cfg Config, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if cfg.FeeCollection == "" {
		cfg.FeeCollection = models.CollectionExternal
	}
	return &Service{
		ledger:    l,
		accounts:  accounts,
		gateway:   gw,
		fees:      fc,
		dashboard: dashboard,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// InitiatePayment opens (or reuses) a payment intent in the account's
// currency and obtains a hosted payment link for it. If the gateway refuses, the intent is failed so a
// retry opens a fresh one.
func (s *Service) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	account, err := s.activeAccount(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = account.Currency
	}
	// Intents are always in the account's settlement currency.
	if currency != account.Currency || !s.cfg.Currencies[currency] {
		return nil, apperrors.ErrUnsupportedCurrency
	}

	intent, err := s.ledger.CreateIntent(ctx, ledger.IntentRequest{
		BusinessID:       account.BusinessID,
		PaymentAccountID: account.ID,
		Tier:             account.Tier,
		BusinessType:     account.BusinessType,
		Customer:         req.Customer,
		Amount:           req.Amount,
		Currency:         currency,
		Description:      req.Description,
		Metadata:         req.Metadata,
	})
	if err != nil {
		return nil, err
	}
	tx := intent.Transaction

	if intent.Duplicate && (tx.Status == models.TransactionSuccessful || tx.PaymentLink != "") {
		return &InitiateResult{Transaction: tx, PaymentLink: tx.PaymentLink, Duplicate: true}, nil
	}

	link, err := s.gateway.InitiatePayment(ctx, s.paymentRequest(account, tx))
	if err != nil {
		if _, _, markErr := s.ledger.MarkFailed(ctx, tx.TxRef, err.Error()); markErr != nil {
			s.logger.Error("mark intent failed", zap.String("tx_ref", tx.TxRef), zap.Error(markErr))
		}
		s.metrics.IncrIntent("failed")
		s.logger.Warn("payment initiation failed",
			zap.String("tx_ref", tx.TxRef),
			zap.String("business_id", tx.BusinessID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.ledger.AttachPaymentLink(ctx, tx.TxRef, link.Link); err != nil {
		return nil, fmt.Errorf("store payment link: %w", err)
	}
	tx.PaymentLink = link.Link

	if !intent.Duplicate && s.dashboard != nil {
		if err := s.dashboard.InvalidateDashboard(ctx, tx.BusinessID); err != nil {
			s.logger.Warn("invalidate dashboard cache", zap.String("business_id", tx.BusinessID), zap.Error(err))
		}
	}
	return &InitiateResult{Transaction: tx, PaymentLink: link.Link, Duplicate: intent.Duplicate}, nil
}

func (s *Service) paymentRequest(account *models.PaymentAccount, tx *models.Transaction) gateway.PaymentRequest {
	req := gateway.PaymentRequest{
		TxRef:       tx.TxRef,
		Amount:      tx.Amount.InexactFloat64(),
		Currency:    tx.Currency,
		RedirectURL: s.cfg.RedirectURL,
		Customer: gateway.Customer{
			Email:       tx.CustomerEmail,
			Name:        tx.CustomerName,
			PhoneNumber: tx.CustomerPhone,
		},
		Customizations: &gateway.Customizations{
			Title:       account.BusinessName,
			Description: tx.Description,
		},
		Meta: map[string]interface{}{
			"business_id": tx.BusinessID,
			"tier":        string(tx.Tier),
		},
	}
	if account.SubaccountID == "" {
		return req
	}

	split := gateway.SubaccountSplit{
		ID:                    account.SubaccountID,
		TransactionChargeType: gateway.ChargeFlat,
	}
	if s.cfg.FeeCollection == models.CollectionSplit {
		// The gateway withholds the platform share before paying out.
		split.TransactionChargeType = gateway.ChargePercentage
		split.TransactionCharge = tx.PlatformFeePct.Shift(-2).InexactFloat64()
	}
	req.Subaccounts = []gateway.SubaccountSplit{split}
	return req
}

func (s *Service) activeAccount(ctx context.Context, businessID string) (*models.PaymentAccount, error) {
	account, err := s.accounts.FindByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, apperrors.ErrAccountNotActive
	}
	return account, nil
}

func (s *Service) Account(ctx context.Context, businessID string) (*models.PaymentAccount, error) {
	return s.accounts.FindByBusiness(ctx, businessID)
}

// ChangeTier moves the account to tier and recomputes its fee percentages.
// Existing transactions keep the tier they were created with.
func (s *Service) ChangeTier(ctx context.Context, businessID, tier string) (*models.PaymentAccount, error) {
	t, ok := models.ParseTier(tier)
	if !ok {
		return nil, apperrors.ErrUnknownTier
	}
	account, err := s.accounts.FindByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	previous := account.Tier
	if err := account.ApplyTier(t, s.cfg.Fees); err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("save payment account: %w", err)
	}
	s.logger.Info("payment account tier changed",
		zap.String("business_id", businessID),
		zap.String("from", string(previous)),
		zap.String("to", string(t)),
	)
	return account, nil
}

func (s *Service) Suspend(ctx context.Context, businessID string) (*models.PaymentAccount, error) {
	return s.moveStatus(ctx, businessID, models.AccountStatusActive, models.AccountStatusSuspended)
}

func (s *Service) Reactivate(ctx context.Context, businessID string) (*models.PaymentAccount, error) {
	return s.moveStatus(ctx, businessID, models.AccountStatusSuspended, models.AccountStatusActive)
}

func (s *Service) moveStatus(ctx context.Context, businessID string, from, to models.AccountStatus) (*models.PaymentAccount, error) {
	account, err := s.accounts.FindByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if account.Status != from {
		return nil, apperrors.ErrInvalidAccountTransition
	}
	account.Status = to
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("save payment account: %w", err)
	}
	s.logger.Info("payment account status changed",
		zap.String("business_id", businessID),
		zap.String("status", string(to)),
	)
	return account, nil
}

// QuoteFees returns the fee breakdown amount would incur at the account's
// current tier.
func (s *Service) QuoteFees(ctx context.Context, businessID string, amount decimal.Decimal) (fees.Breakdown, error) {
	account, err := s.accounts.FindByBusiness(ctx, businessID)
	if err != nil {
		return fees.Breakdown{}, err
	}
	return s.fees.Calculate(amount, account.Tier)
}

func (s *Service) GetTransaction(ctx context.Context, businessID, txRef string) (*models.Transaction, error) {
	return s.ledger.Get(ctx, businessID, txRef)
}

func (s *Service) ListTransactions(ctx context.Context, businessID string, offset, limit int) ([]models.Transaction, int64, error) {
	return s.ledger.List(ctx, businessID, offset, limit)
}
