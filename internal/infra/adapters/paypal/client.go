// File: internal/infra/adapters/paypal/client.go
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"paypal-relay/internal/config"
	"paypal-relay/internal/domain"
	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/domain/ports/adapter"
	"paypal-relay/internal/infra/logging"
	"paypal-relay/internal/infra/metrics"
)

var _ adapter.PaymentProvider = (*Client)(nil)

const (
	sandboxBase = "https://api-m.sandbox.paypal.com"
	liveBase    = "https://api-m.paypal.com"

	maxResponseBytes = 1 << 20
)

// Client implements adapter.PaymentProvider against PayPal REST v2 (orders) and
// v1 (webhook signature verification). Every call goes through one circuit breaker.
type Client struct {
	base    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	log     *zerolog.Logger
}

// NewClient builds the provider client. tokens may be nil, in which case access
// tokens are only reused within this process.
func NewClient(cfg config.PayPalConfig, tokens TokenStore, logger *zerolog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("paypal client id/secret empty")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	base := sandboxBase
	if cfg.Mode == "live" {
		base = liveBase
	}
	if cfg.BaseURL != "" {
		if _, err := url.Parse(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid paypal base url: %w", err)
		}
		base = strings.TrimRight(cfg.BaseURL, "/")
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// token fetches outlive any single request
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: 15 * time.Second})
	var src oauth2.TokenSource = cc.TokenSource(tokenCtx)
	if tokens != nil {
		src = newSharedTokenSource(tokens, tokenKey(cfg), src, logger)
	}
	hc := oauth2.NewClient(tokenCtx, oauth2.ReuseTokenSource(nil, src))
	hc.Timeout = 15 * time.Second

	c := &Client{
		base:   base,
		client: hc,
		tracer: otel.Tracer("paypal-relay/paypal"),
		log:    logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "paypal",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		// a 4xx is PayPal answering, not PayPal being down
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
			logger.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return c, nil
}

func (c *Client) Name() string { return "paypal" }

// APIError is a non-2xx PayPal response.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *APIError) Error() string {
	if e.Name == "" && e.Message == "" {
		return fmt.Sprintf("paypal http %d", e.StatusCode)
	}
	return fmt.Sprintf("paypal http %d: %s: %s (debug_id=%s)", e.StatusCode, e.Name, e.Message, e.DebugID)
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount amount `json:"amount"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type createOrderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

// CreateOrder calls POST /v2/checkout/orders and returns the full order representation.
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	body := createOrderRequest{
		Intent:        "CAPTURE",
		PurchaseUnits: []purchaseUnit{{Amount: amount{CurrencyCode: req.Currency, Value: req.Amount}}},
		ApplicationContext: applicationContext{
			ReturnURL: req.ReturnURL,
			CancelURL: req.CancelURL,
		},
	}
	headers := map[string]string{
		"Prefer":            "return=representation",
		"PayPal-Request-Id": uuid.NewString(),
	}
	var out model.Order
	raw, err := c.call(ctx, "create_order", http.MethodPost, "/v2/checkout/orders", body, headers, &out,
		attribute.String("paypal.currency", req.Currency))
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// CaptureOrder calls POST /v2/checkout/orders/{id}/capture.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*model.CaptureResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: capture_order: %w", domain.ErrProvider, domain.ErrInvalidArgument)
	}
	headers := map[string]string{
		"Prefer":            "return=representation",
		"PayPal-Request-Id": uuid.NewString(),
	}
	var out model.CaptureResult
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	raw, err := c.call(ctx, "capture_order", http.MethodPost, path, nil, headers, &out,
		attribute.String("paypal.order_id", orderID))
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

// VerifyWebhookSignature calls POST /v1/notifications/verify-webhook-signature.
// The event is forwarded byte-for-byte as received.
func (c *Client) VerifyWebhookSignature(ctx context.Context, h model.SignatureHeaders, body []byte, webhookID string) (model.VerificationStatus, error) {
	if !json.Valid(body) {
		return "", fmt.Errorf("%w: verify_webhook: event body is not valid JSON", domain.ErrProvider)
	}
	req := verifyRequest{
		AuthAlgo:         h.AuthAlgo,
		CertURL:          h.CertURL,
		TransmissionID:   h.TransmissionID,
		TransmissionSig:  h.TransmissionSig,
		TransmissionTime: h.TransmissionTime,
		WebhookID:        webhookID,
		WebhookEvent:     body,
	}
	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if _, err := c.call(ctx, "verify_webhook", http.MethodPost, "/v1/notifications/verify-webhook-signature", req, nil, &out,
		attribute.String("paypal.transmission_id", h.TransmissionID)); err != nil {
		return "", err
	}
	if model.VerificationStatus(out.VerificationStatus) == model.VerificationSuccess {
		return model.VerificationSuccess, nil
	}
	return model.VerificationFailure, nil
}

// call runs one REST round trip inside a span and the breaker, decodes a 2xx body into out
// and returns the raw body. Every error is wrapped with domain.ErrProvider.
func (c *Client) call(ctx context.Context, op, method, path string, body any, headers map[string]string, out any, attrs ...attribute.KeyValue) (json.RawMessage, error) {
	defer logging.TraceDuration(c.log, "PayPal."+op)()

	ctx, span := c.tracer.Start(ctx, "paypal."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("http.method", method), attribute.String("http.route", path))...),
	)
	defer span.End()

	start := time.Now()
	raw, err := execute(c.breaker, func() (json.RawMessage, error) {
		return c.roundTrip(ctx, method, path, body, headers)
	})
	metrics.ObserveProviderCall(op, err == nil, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrProvider, op, err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode response")
			return nil, fmt.Errorf("%w: %s: decode response: %w", domain.ErrProvider, op, err)
		}
	}
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, headers map[string]string) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(b, apiErr)
		return nil, apiErr
	}
	return b, nil
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return *new(T), err
	}
	return res.(T), nil
}
