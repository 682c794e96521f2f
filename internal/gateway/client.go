// Package gateway is the HTTP client for the payment gateway's v3 API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "sitepay/internal/errors"
	"sitepay/internal/observability"
	"sitepay/internal/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("sitepay/gateway")

const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	cb         *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func NewClient(cfg Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		cb:         resilience.NewCircuitBreaker("payment-gateway", countsAsSuccess),
		metrics:    metrics,
		logger:     logger,
	}
}

// providerError is a non-2xx (or status "error") reply from the gateway.
type providerError struct {
	StatusCode int
	Message    string
}

func (e *providerError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// countsAsSuccess keeps client-side rejections (bad account number and the
// like) from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var pe *providerError
	return errors.As(err, &pe) && pe.StatusCode < http.StatusInternalServerError
}

func (c *Client) CreateSubAccount(ctx context.Context, req SubAccountRequest) (*SubAccount, error) {
	var out SubAccount
	if err := c.do(ctx, "create_subaccount", http.MethodPost, "/v3/subaccounts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResolveAccount(ctx context.Context, req ResolveAccountRequest) (*ResolvedAccount, error) {
	var out ResolvedAccount
	if err := c.do(ctx, "resolve_account", http.MethodPost, "/v3/accounts/resolve", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentLink, error) {
	var out PaymentLink
	if err := c.do(ctx, "initiate_payment", http.MethodPost, "/v3/payments", req, &out); err != nil {
		return nil, err
	}
	if out.Link == "" {
		return nil, apperrors.Gateway("payment gateway returned no payment link", nil)
	}
	return &out, nil
}

func (c *Client) ListBanks(ctx context.Context, country string) ([]Bank, error) {
	var out []Bank
	path := "/v3/banks/" + url.PathEscape(country)
	if err := c.do(ctx, "list_banks", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	ctx, span := tracer.Start(ctx, "gateway."+op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("gateway.path", path))

	start := time.Now()
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, method, path, body, out)
	})
	c.metrics.RecordGatewayCall(op, time.Since(start), err)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Warn("gateway call failed", zap.String("operation", op), zap.Error(err))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.Gateway("payment gateway temporarily unavailable", err)
	}
	var pe *providerError
	if errors.As(err, &pe) {
		return apperrors.Gateway(pe.Message, err)
	}
	return apperrors.Gateway("", err)
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &providerError{StatusCode: resp.StatusCode, Message: msg}
	}

	env := envelope{Data: out}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Status == "error" {
		return &providerError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return nil
}
