// Package onboarding drives a business through the ordered KYC steps that
// end in a gateway subaccount and an active payment account.
package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/gateway"
	"sitepay/internal/models"
	"sitepay/internal/observability"
	"sitepay/internal/repositories/cache"
	"sitepay/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionExpiredReason = "session expired"

// provisioningWindow bounds how long a session may sit in provisioning
// before the sweeper fails it.
const provisioningWindow = 10 * time.Minute

type SessionRepository interface {
	Create(ctx context.Context, session *models.OnboardingSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OnboardingSession, error)
	FindActiveByBusiness(ctx context.Context, businessID string) (*models.OnboardingSession, error)
	// Update writes session if its stored status is still from and reports
	// whether it did.
	Update(ctx context.Context, session *models.OnboardingSession, from models.SessionStatus) (bool, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *models.PaymentAccount) error
	FindByBusiness(ctx context.Context, businessID string) (*models.PaymentAccount, error)
}

type Gateway interface {
	ResolveAccount(ctx context.Context, req gateway.ResolveAccountRequest) (*gateway.ResolvedAccount, error)
	CreateSubAccount(ctx context.Context, req gateway.SubAccountRequest) (*gateway.SubAccount, error)
	ListBanks(ctx context.Context, country string) ([]gateway.Bank, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Config struct {
	Countries      map[string]models.Country
	Fees           models.FeeSchedule
	SessionTTL     time.Duration
	RetainTerminal time.Duration
	BankListTTL    time.Duration
}

// SessionView is the caller-facing state of a session.
type SessionView struct {
	SessionID   uuid.UUID            `json:"sessionId"`
	Country     string               `json:"country"`
	Status      models.SessionStatus `json:"status"`
	Steps       []models.StepState   `json:"steps"`
	CurrentStep models.StepID        `json:"currentStep,omitempty"`
	Progress    int                  `json:"progress"`
	LastError   string               `json:"lastError,omitempty"`
	Error       string               `json:"error,omitempty"`
	ExpiresAt   time.Time            `json:"expiresAt"`
	Resumed     bool                 `json:"resumed,omitempty"`
}

// StepResult is returned by ProcessStep. Account is set once the final
// required step completes the session.
type StepResult struct {
	Completed   bool                   `json:"completed"`
	Status      models.SessionStatus   `json:"status"`
	CurrentStep models.StepID          `json:"currentStep,omitempty"`
	Progress    int                    `json:"progress"`
	Steps       []models.StepState     `json:"steps"`
	Error       string                 `json:"error,omitempty"`
	Account     *models.PaymentAccount `json:"account,omitempty"`
}

type Service struct {
	sessions  SessionRepository
	accounts  AccountRepository
	gateway   Gateway
	cache     Cache
	validator *validation.Validator
	cfg       Config
	now       func() time.Time
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewService builds the onboarding service. cache may be nil.
func NewService(sessions SessionRepository, accounts AccountRepository, gw Gateway, c Cache, v *validation.Validator, cfg Config, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Service{
		sessions:  sessions,
		accounts:  accounts,
		gateway:   gw,
		cache:     c,
		validator: v,
		cfg:       cfg,
		now:       time.Now,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *Service) country(code string) (models.Country, error) {
	c, ok := s.cfg.Countries[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return models.Country{}, apperrors.ErrUnsupportedCountry
	}
	return c, nil
}

// Start opens an onboarding session for businessID, or resumes the one
// already in progress.
func (s *Service) Start(ctx context.Context, businessID, countryCode string) (*SessionView, error) {
	country, err := s.country(countryCode)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.FindByBusiness(ctx, businessID); err == nil {
		return nil, apperrors.ErrAlreadyOnboarded
	} else if !errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, fmt.Errorf("look up payment account: %w", err)
	}

	now := s.now()
	active, err := s.sessions.FindActiveByBusiness(ctx, businessID)
	switch {
	case err == nil && !active.Expired(now):
		s.metrics.IncrOnboarding("resumed")
		v := view(active)
		v.Resumed = true
		return v, nil
	case err == nil && active.Status == models.SessionInProgress:
		if err := s.abandon(ctx, active, sessionExpiredReason); err != nil && !errors.Is(err, apperrors.ErrSessionNotActive) {
			return nil, err
		}
	case err == nil:
		// Provisioning past its window; the sweeper fails it.
		v := view(active)
		v.Resumed = true
		return v, nil
	case !errors.Is(err, apperrors.ErrSessionNotFound):
		return nil, fmt.Errorf("look up onboarding session: %w", err)
	}

	session := &models.OnboardingSession{
		BusinessID: businessID,
		Country:    country.Code,
		Steps:      country.OnboardingSteps(),
		Answers:    map[string]interface{}{},
		Status:     models.SessionInProgress,
		CreatedAt:  now,
	}
	session.CurrentStep = session.NextRequiredStep()
	session.Touch(now, s.cfg.SessionTTL)

	if err := s.sessions.Create(ctx, session); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateRecord) {
			return nil, fmt.Errorf("create onboarding session: %w", err)
		}
		// A concurrent Start created the session first.
		existing, findErr := s.sessions.FindActiveByBusiness(ctx, businessID)
		if findErr != nil {
			return nil, fmt.Errorf("create onboarding session: %w", err)
		}
		v := view(existing)
		v.Resumed = true
		return v, nil
	}

	s.metrics.IncrOnboarding("started")
	s.logger.Info("onboarding started",
		zap.String("business_id", businessID),
		zap.String("session_id", session.ID.String()),
		zap.String("country", country.Code),
	)
	return view(session), nil
}

// ProcessStep validates and records one step. Validation and gateway
// failures are stored on the session as LastError and returned; the session
// stays in progress. When the last required step completes, the session is
// claimed for provisioning, the payment account is created and the session
// is completed. A provisioning failure moves the session to failed and
// returns both the result and the error. A caller whose write races an
// abandon or another final step gets ErrSessionNotActive.
func (s *Service) ProcessStep(ctx context.Context, businessID string, sessionID uuid.UUID, stepID models.StepID, raw json.RawMessage) (*StepResult, error) {
	session, err := s.load(ctx, businessID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.ErrSessionNotActive
	}
	now := s.now()
	if session.Expired(now) {
		if err := s.abandon(ctx, session, sessionExpiredReason); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrSessionExpired
	}

	idx := session.Step(stepID)
	if idx < 0 {
		return nil, apperrors.ErrUnknownStep
	}
	step := session.Steps[idx]
	if !step.Completed && step.Required && stepID != session.CurrentStep {
		return nil, apperrors.ErrStepOutOfOrder.WithFields(string(session.CurrentStep))
	}

	country, err := s.country(session.Country)
	if err != nil {
		return nil, err
	}

	answers, err := decodeAnswers(s.validator, stepID, raw, country)
	if err != nil {
		return nil, s.rejectStep(ctx, session, err)
	}

	if bank, ok := answers.(*BankAccountAnswers); ok {
		resolved, err := s.gateway.ResolveAccount(ctx, gateway.ResolveAccountRequest{
			AccountNumber: bank.AccountNumber,
			AccountBank:   bank.BankCode,
		})
		if err != nil {
			return nil, s.rejectStep(ctx, session, err)
		}
		bank.AccountName = resolved.AccountName
	}

	if session.Answers == nil {
		session.Answers = map[string]interface{}{}
	}
	session.Answers[string(stepID)] = answers
	if !step.Completed {
		completedAt := now
		session.Steps[idx].Completed = true
		session.Steps[idx].CompletedAt = &completedAt
	}
	session.LastError = ""
	session.RecomputeProgress()
	session.CurrentStep = session.NextRequiredStep()
	session.Touch(now, s.cfg.SessionTTL)

	if session.CurrentStep != "" {
		if err := s.persist(ctx, session, models.SessionInProgress); err != nil {
			return nil, err
		}
		s.metrics.IncrOnboarding("step_completed")
		return stepResult(session, nil), nil
	}

	session.Status = models.SessionProvisioning
	session.ExpiresAt = now.Add(provisioningWindow)
	if err := s.persist(ctx, session, models.SessionInProgress); err != nil {
		return nil, err
	}

	account, err := s.complete(ctx, session, country)
	if err != nil {
		session.Status = models.SessionFailed
		session.Error = err.Error()
		session.LastActivityAt = s.now()
		dropIdentityAnswers(session)
		if saveErr := s.persist(ctx, session, models.SessionProvisioning); saveErr != nil {
			s.logger.Error("save failed onboarding session", zap.String("session_id", session.ID.String()), zap.Error(saveErr))
		}
		s.metrics.IncrOnboarding("failed")
		s.logger.Warn("onboarding completion failed",
			zap.String("business_id", businessID),
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
		return stepResult(session, nil), err
	}

	s.metrics.IncrOnboarding("completed")
	s.logger.Info("onboarding completed",
		zap.String("business_id", businessID),
		zap.String("payment_account_id", account.ID.String()),
	)
	return stepResult(session, account), nil
}

// complete provisions the subaccount and payment account for a session
// claimed for provisioning, then closes the session.
func (s *Service) complete(ctx context.Context, session *models.OnboardingSession, country models.Country) (*models.PaymentAccount, error) {
	var business BusinessVerificationAnswers
	if err := storedAnswers(session, models.StepBusinessVerification, &business); err != nil {
		return nil, err
	}
	var bank BankAccountAnswers
	if err := storedAnswers(session, models.StepBankAccount, &bank); err != nil {
		return nil, err
	}

	account := &models.PaymentAccount{
		BusinessID:          session.BusinessID,
		BusinessType:        business.BusinessType,
		BusinessName:        business.BusinessName,
		BusinessEmail:       business.BusinessEmail,
		Country:             country.Code,
		Currency:            country.Currency,
		BankCode:            bank.BankCode,
		AccountNumber:       bank.AccountNumber,
		AccountName:         bank.AccountName,
		Status:              models.AccountStatusActive,
		OnboardingSessionID: &session.ID,
	}
	if err := account.ApplyTier(models.DefaultTier, s.cfg.Fees); err != nil {
		return nil, err
	}

	sub, err := s.gateway.CreateSubAccount(ctx, gateway.SubAccountRequest{
		AccountBank:    bank.BankCode,
		AccountNumber:  bank.AccountNumber,
		BusinessName:   business.BusinessName,
		BusinessEmail:  business.BusinessEmail,
		BusinessMobile: business.BusinessPhone,
		Country:        country.Code,
		SplitType:      gateway.ChargePercentage,
		SplitValue:     account.PlatformFeePct.Shift(-2).InexactFloat64(),
	})
	if err != nil {
		return nil, err
	}
	account.SubaccountID = sub.SubaccountID

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateRecord) {
			return nil, apperrors.ErrAlreadyOnboarded
		}
		return nil, fmt.Errorf("create payment account: %w", err)
	}

	now := s.now()
	session.Status = models.SessionCompleted
	session.PaymentAccountID = &account.ID
	session.ExpiresAt = now
	session.LastActivityAt = now
	dropIdentityAnswers(session)
	if err := s.persist(ctx, session, models.SessionProvisioning); err != nil {
		// The account exists; only the session record is stale.
		s.logger.Error("save completed onboarding session", zap.String("session_id", session.ID.String()), zap.Error(err))
	}
	return account, nil
}

// rejectStep records cause on the session and returns it.
func (s *Service) rejectStep(ctx context.Context, session *models.OnboardingSession, cause error) error {
	session.LastError = cause.Error()
	session.Touch(s.now(), s.cfg.SessionTTL)
	if err := s.persist(ctx, session, models.SessionInProgress); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotActive) {
			return err
		}
		s.logger.Error("save onboarding step error", zap.String("session_id", session.ID.String()), zap.Error(err))
	}
	s.metrics.IncrOnboarding("step_rejected")
	return cause
}

func (s *Service) Get(ctx context.Context, businessID string, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.load(ctx, businessID, sessionID)
	if err != nil {
		return nil, err
	}
	return view(session), nil
}

// Abandon ends an in-progress session at the business's request.
func (s *Service) Abandon(ctx context.Context, businessID string, sessionID uuid.UUID) (*SessionView, error) {
	session, err := s.load(ctx, businessID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, apperrors.ErrSessionNotActive
	}
	if err := s.abandon(ctx, session, ""); err != nil {
		return nil, err
	}
	return view(session), nil
}

// ExpireStale abandons every in-progress session past its expiry and fails
// sessions stuck in provisioning.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.sessions.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire onboarding sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired onboarding sessions", zap.Int64("count", n))
	}
	return n, nil
}

// PurgeTerminal deletes finished sessions older than the retention window.
func (s *Service) PurgeTerminal(ctx context.Context) (int64, error) {
	if s.cfg.RetainTerminal <= 0 {
		return 0, nil
	}
	n, err := s.sessions.PurgeTerminal(ctx, s.now().Add(-s.cfg.RetainTerminal))
	if err != nil {
		return 0, fmt.Errorf("purge onboarding sessions: %w", err)
	}
	return n, nil
}

// Banks lists the gateway's banks for a supported country.
func (s *Service) Banks(ctx context.Context, countryCode string) ([]gateway.Bank, error) {
	country, err := s.country(countryCode)
	if err != nil {
		return nil, err
	}

	key := cache.BanksKey(country.Code)
	if s.cache != nil {
		var banks []gateway.Bank
		hit, err := s.cache.Get(ctx, key, &banks)
		if err != nil {
			s.logger.Warn("bank list cache read", zap.String("country", country.Code), zap.Error(err))
		}
		s.metrics.IncrCache("banks", hit)
		if hit {
			return banks, nil
		}
	}

	banks, err := s.gateway.ListBanks(ctx, country.Code)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cfg.BankListTTL > 0 {
		if err := s.cache.SetWithTTL(ctx, key, banks, s.cfg.BankListTTL); err != nil {
			s.logger.Warn("bank list cache write", zap.String("country", country.Code), zap.Error(err))
		}
	}
	return banks, nil
}

func (s *Service) load(ctx context.Context, businessID string, sessionID uuid.UUID) (*models.OnboardingSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.BusinessID != businessID {
		return nil, apperrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) abandon(ctx context.Context, session *models.OnboardingSession, reason string) error {
	session.Status = models.SessionAbandoned
	session.Error = reason
	session.LastActivityAt = s.now()
	session.Answers = map[string]interface{}{}
	if err := s.persist(ctx, session, models.SessionInProgress); err != nil {
		return err
	}
	s.metrics.IncrOnboarding("abandoned")
	return nil
}

// persist writes session if its stored status is still from.
func (s *Service) persist(ctx context.Context, session *models.OnboardingSession, from models.SessionStatus) error {
	ok, err := s.sessions.Update(ctx, session, from)
	if err != nil {
		return fmt.Errorf("save onboarding session: %w", err)
	}
	if !ok {
		return apperrors.ErrSessionNotActive
	}
	return nil
}

// dropIdentityAnswers removes national ID and KYC answers once a session
// can no longer use them.
func dropIdentityAnswers(session *models.OnboardingSession) {
	delete(session.Answers, string(models.StepNationalIDVerification))
	delete(session.Answers, string(models.StepKYCVerification))
}

// storedAnswers decodes the answers recorded for step into dest. Stored
// answers are typed right after a step and plain maps after a reload.
func storedAnswers(session *models.OnboardingSession, step models.StepID, dest StepAnswers) error {
	v, ok := session.Answers[string(step)]
	if !ok {
		return apperrors.ErrInvalidStepData.WithMessage("missing answers for completed step").WithFields(string(step))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s answers: %w", step, err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("decode %s answers: %w", step, err)
	}
	return nil
}

func view(s *models.OnboardingSession) *SessionView {
	return &SessionView{
		SessionID:   s.ID,
		Country:     s.Country,
		Status:      s.Status,
		Steps:       s.Steps,
		CurrentStep: s.CurrentStep,
		Progress:    s.Progress,
		LastError:   s.LastError,
		Error:       s.Error,
		ExpiresAt:   s.ExpiresAt,
	}
}

func stepResult(s *models.OnboardingSession, account *models.PaymentAccount) *StepResult {
	return &StepResult{
		Completed:   s.Status == models.SessionCompleted,
		Status:      s.Status,
		CurrentStep: s.CurrentStep,
		Progress:    s.Progress,
		Steps:       s.Steps,
		Error:       s.Error,
		Account:     account,
	}
}
