// Package settlement applies gateway webhook deliveries to the ledger.
package settlement

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/gateway"
	"sitepay/internal/models"
	"sitepay/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("sitepay/settlement")

type Outcome string

const (
	OutcomeSettled          Outcome = "settled"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeUnknownReference Outcome = "unknown_reference"
)

// Ignore reasons recorded on the webhook event log.
const (
	ReasonEventNotHandled    = "event_not_handled"
	ReasonAmountMismatch     = "amount_mismatch"
	ReasonCurrencyMismatch   = "currency_mismatch"
	ReasonAlreadyTerminal    = "already_terminal"
	ReasonLostTransitionRace = "lost_transition_race"
)

type Result struct {
	Outcome     Outcome             `json:"outcome"`
	Reason      string              `json:"reason,omitempty"`
	Transaction *models.Transaction `json:"-"`
}

type Ledger interface {
	Lookup(ctx context.Context, txRef string) (*models.Transaction, error)
	MarkSuccessful(ctx context.Context, txRef, gatewayRef string, payload []byte) (*models.Transaction, bool, error)
}

type RevenueRecorder interface {
	Record(ctx context.Context, tx *models.Transaction) (*models.PlatformRevenueEntry, bool, error)
}

type EventLog interface {
	Create(ctx context.Context, event *models.WebhookEvent) error
	Complete(ctx context.Context, id uuid.UUID, outcome, reason string, at time.Time) error
}

type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context, businessID string) error
}

type Processor struct {
	secret    []byte
	ledger    Ledger
	revenue   RevenueRecorder
	events    EventLog
	dashboard DashboardInvalidator
	now       func() time.Time
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewProcessor builds a processor. events and dashboard may be nil.
func NewProcessor(secret string, ledger Ledger, revenue RevenueRecorder, events EventLog, dashboard DashboardInvalidator, metrics *observability.Metrics, logger *zap.Logger) *Processor {
	return &Processor{
		secret:    []byte(secret),
		ledger:    ledger,
		revenue:   revenue,
		events:    events,
		dashboard: dashboard,
		now:       time.Now,
		metrics:   metrics,
		logger:    logger,
	}
}

// Verify compares the delivered signature to the shared secret in constant
// time. An unset secret rejects everything.
func (p *Processor) Verify(signature string) bool {
	if len(p.secret) == 0 || signature == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(signature), p.secret) == 1
}

// Handle authenticates and applies one delivery. Authentication and payload
// errors are returned as errors; every other outcome, including unknown
// references, is a Result the caller acknowledges.
func (p *Processor) Handle(ctx context.Context, signature string, body []byte) (Result, error) {
	ctx, span := tracer.Start(ctx, "settlement.handle")
	defer span.End()

	if !p.Verify(signature) {
		p.metrics.IncrWebhook("rejected")
		span.SetStatus(codes.Error, "invalid signature")
		p.logger.Warn("webhook signature rejected")
		return Result{}, apperrors.ErrInvalidSignature
	}

	var event gateway.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil || event.Event == "" {
		p.metrics.IncrWebhook("malformed")
		span.SetStatus(codes.Error, "malformed payload")
		return Result{}, apperrors.ErrMalformedPayload.Wrap(err)
	}
	span.SetAttributes(
		attribute.String("webhook.event", event.Event),
		attribute.String("webhook.tx_ref", event.Data.TxRef),
	)

	eventID := p.logEvent(ctx, event, body)

	res, err := p.apply(ctx, event, body)
	if err != nil {
		p.metrics.IncrWebhook("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.completeEvent(ctx, eventID, "error", err.Error())
		return Result{}, err
	}

	p.metrics.IncrWebhook(string(res.Outcome))
	span.SetAttributes(attribute.String("webhook.outcome", string(res.Outcome)))
	p.completeEvent(ctx, eventID, string(res.Outcome), res.Reason)
	return res, nil
}

func (p *Processor) apply(ctx context.Context, event gateway.WebhookEvent, body []byte) (Result, error) {
	if !event.IsSuccessfulCharge() {
		// A failed charge leaves the intent pending so the customer can
		// retry on the same link.
		p.logger.Info("webhook event ignored",
			zap.String("event", event.Event),
			zap.String("status", event.Data.Status),
			zap.String("tx_ref", event.Data.TxRef),
		)
		return Result{Outcome: OutcomeIgnored, Reason: ReasonEventNotHandled}, nil
	}
	if event.Data.TxRef == "" {
		return Result{}, apperrors.ErrMalformedPayload.WithFields("data.tx_ref")
	}

	txRef := event.Data.TxRef
	tx, err := p.ledger.Lookup(ctx, txRef)
	if errors.Is(err, apperrors.ErrTransactionNotFound) {
		p.logger.Warn("webhook for unknown transaction", zap.String("tx_ref", txRef))
		return Result{Outcome: OutcomeUnknownReference}, nil
	}
	if err != nil {
		return Result{}, err
	}

	if tx.Status.Terminal() {
		return Result{Outcome: OutcomeDuplicate, Reason: ReasonAlreadyTerminal, Transaction: tx}, nil
	}
	if reason := mismatch(tx, event.Data); reason != "" {
		p.logger.Warn("webhook does not match intent",
			zap.String("tx_ref", txRef),
			zap.String("reason", reason),
		)
		return Result{Outcome: OutcomeIgnored, Reason: reason, Transaction: tx}, nil
	}

	settledTx, applied, err := p.ledger.MarkSuccessful(ctx, txRef, gatewayRef(event.Data), body)
	if err != nil {
		return Result{}, err
	}
	if !applied {
		return Result{Outcome: OutcomeDuplicate, Reason: ReasonLostTransitionRace, Transaction: settledTx}, nil
	}

	// The transaction is settled at this point. Revenue gaps are closed by
	// the reconcile job, so failures here are logged only.
	if _, _, err := p.revenue.Record(ctx, settledTx); err != nil {
		p.logger.Error("record platform revenue", zap.String("tx_ref", txRef), zap.Error(err))
	}
	if p.dashboard != nil {
		if err := p.dashboard.InvalidateDashboard(ctx, settledTx.BusinessID); err != nil {
			p.logger.Warn("invalidate dashboard cache", zap.String("business_id", settledTx.BusinessID), zap.Error(err))
		}
	}

	p.logger.Info("payment settled",
		zap.String("tx_ref", txRef),
		zap.String("business_id", settledTx.BusinessID),
		zap.String("amount", settledTx.Amount.StringFixed(2)),
	)
	return Result{Outcome: OutcomeSettled, Transaction: settledTx}, nil
}

// mismatch reports why a charge cannot settle tx, or "" when it can. Absent
// amount and currency fields are not checked.
func mismatch(tx *models.Transaction, charge gateway.ChargeData) string {
	if charge.Currency != "" && !strings.EqualFold(charge.Currency, tx.Currency) {
		return ReasonCurrencyMismatch
	}
	if charge.Amount != nil && charge.Amount.LessThan(tx.Amount) {
		return ReasonAmountMismatch
	}
	return ""
}

func gatewayRef(charge gateway.ChargeData) string {
	if charge.FlwRef != "" {
		return charge.FlwRef
	}
	if charge.ID != 0 {
		return strconv.FormatInt(charge.ID, 10)
	}
	return ""
}

func (p *Processor) logEvent(ctx context.Context, event gateway.WebhookEvent, body []byte) uuid.UUID {
	if p.events == nil {
		return uuid.Nil
	}
	rec := &models.WebhookEvent{
		Provider:   "flutterwave",
		EventType:  event.Event,
		TxRef:      event.Data.TxRef,
		GatewayRef: gatewayRef(event.Data),
		Payload:    body,
		Outcome:    "received",
		ReceivedAt: p.now(),
	}
	if err := p.events.Create(ctx, rec); err != nil {
		p.logger.Warn("log webhook event", zap.Error(err))
		return uuid.Nil
	}
	return rec.ID
}

func (p *Processor) completeEvent(ctx context.Context, id uuid.UUID, outcome, reason string) {
	if p.events == nil || id == uuid.Nil {
		return
	}
	if err := p.events.Complete(ctx, id, outcome, reason, p.now()); err != nil {
		p.logger.Warn("complete webhook event", zap.String("event_id", id.String()), zap.Error(err))
	}
}
