//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/domain/ports/adapter"
)

// --- Mock PaymentProvider ---

type MockPaymentProvider struct {
	adapter.PaymentProvider

	CreateOrderFunc func(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	CaptureFunc     func(ctx context.Context, orderID string) (*model.CaptureResult, error)
	VerifyFunc      func(ctx context.Context, h model.SignatureHeaders, body []byte, webhookID string) (model.VerificationStatus, error)

	mu           sync.Mutex
	CaptureCalls []string
	VerifyCalls  int
}

func (m *MockPaymentProvider) Name() string { return "mock" }

func (m *MockPaymentProvider) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return &model.Order{
		ID:     "ORDER-1",
		Status: "CREATED",
		Links: []model.Link{
			{Href: "https://api-m.sandbox.paypal.com/v2/checkout/orders/ORDER-1", Rel: "self", Method: "GET"},
			{Href: "https://www.sandbox.paypal.com/checkoutnow?token=ORDER-1", Rel: "approve", Method: "GET"},
		},
	}, nil
}

func (m *MockPaymentProvider) CaptureOrder(ctx context.Context, orderID string) (*model.CaptureResult, error) {
	m.mu.Lock()
	m.CaptureCalls = append(m.CaptureCalls, orderID)
	m.mu.Unlock()
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, orderID)
	}
	return &model.CaptureResult{ID: orderID, Status: "COMPLETED"}, nil
}

func (m *MockPaymentProvider) VerifyWebhookSignature(ctx context.Context, h model.SignatureHeaders, body []byte, webhookID string) (model.VerificationStatus, error) {
	m.mu.Lock()
	m.VerifyCalls++
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, h, body, webhookID)
	}
	return model.VerificationSuccess, nil
}

// --- In-memory PaymentRecordRepository ---

type memRecordRepo struct {
	mu      sync.Mutex
	records []*model.PaymentRecord
	saveErr error
	listErr error
	onSave  func(rec *model.PaymentRecord)
}

func newMemRecordRepo() *memRecordRepo { return &memRecordRepo{} }

func (m *memRecordRepo) Save(ctx context.Context, rec *model.PaymentRecord) error {
	if m.onSave != nil {
		m.onSave(rec)
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memRecordRepo) ListAll(ctx context.Context) ([]*model.PaymentRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PaymentRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memRecordRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// --- Notifier that reports on a channel ---

type chanNotifier struct {
	msgs chan string
	err  error
}

func newChanNotifier() *chanNotifier { return &chanNotifier{msgs: make(chan string, 8)} }

func (n *chanNotifier) Notify(ctx context.Context, text string) error {
	n.msgs <- text
	return n.err
}

var errBoom = errors.New("boom")

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
