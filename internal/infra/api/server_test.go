//go:build !integration

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"paypal-relay/internal/domain"
	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/infra/api"
	"paypal-relay/internal/usecase"
)

//
// ---------------- mocks ----------------
//

type mockLinks struct {
	usecase.LinkUseCase
	fn          func(ctx context.Context, amount, currency string) (*model.Order, error)
	gotAmount   string
	gotCurrency string
}

func (m *mockLinks) CreateLink(ctx context.Context, amount, currency string) (*model.Order, error) {
	m.gotAmount, m.gotCurrency = amount, currency
	return m.fn(ctx, amount, currency)
}

type mockWebhooks struct {
	usecase.WebhookUseCase
	err   error
	got   model.WebhookDelivery
	calls int
}

func (m *mockWebhooks) HandleDelivery(ctx context.Context, d model.WebhookDelivery) (*model.DispatchReport, error) {
	m.got = d
	m.calls++
	return &model.DispatchReport{}, m.err
}

type mockRecords struct {
	recs []*model.PaymentRecord
	err  error
}

func (m *mockRecords) Save(ctx context.Context, rec *model.PaymentRecord) error { return nil }
func (m *mockRecords) ListAll(ctx context.Context) ([]*model.PaymentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.recs == nil {
		return []*model.PaymentRecord{}, nil
	}
	return m.recs, nil
}

func silentLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type fixture struct {
	links    *mockLinks
	webhooks *mockWebhooks
	records  *mockRecords
	auth     *api.AuthManager
}

func newFixture() *fixture {
	return &fixture{
		links: &mockLinks{fn: func(ctx context.Context, amount, currency string) (*model.Order, error) {
			raw := json.RawMessage(`{"id":"O-1","status":"CREATED","links":[{"href":"https://www.sandbox.paypal.com/checkoutnow?token=O-1","rel":"approve","method":"GET"}]}`)
			return &model.Order{ID: "O-1", Status: "CREATED", Raw: raw}, nil
		}},
		webhooks: &mockWebhooks{},
		records:  &mockRecords{},
	}
}

func (f *fixture) handler() http.Handler {
	return api.NewServer(f.links, f.webhooks, f.records, f.auth, 5*time.Second, silentLogger()).Routes()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

//
// ---------------- tests ----------------
//

func TestCreatePaymentLink(t *testing.T) {
	t.Run("returns the provider order under response", func(t *testing.T) {
		f := newFixture()
		rec := do(f.handler(), httptest.NewRequest(http.MethodGet, "/create-payment-link", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Response struct {
				ID    string `json:"id"`
				Links []struct {
					Href string `json:"href"`
					Rel  string `json:"rel"`
				} `json:"links"`
			} `json:"response"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Response.ID != "O-1" || len(body.Response.Links) != 1 || body.Response.Links[0].Rel != "approve" {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
		if f.links.gotAmount != "" || f.links.gotCurrency != "" {
			t.Errorf("expected empty params to reach use case for defaulting, got %q %q", f.links.gotAmount, f.links.gotCurrency)
		}
	})

	t.Run("binds amount and currency", func(t *testing.T) {
		f := newFixture()
		rec := do(f.handler(), httptest.NewRequest(http.MethodGet, "/create-payment-link?amount=25.00&currency=EUR", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if f.links.gotAmount != "25.00" || f.links.gotCurrency != "EUR" {
			t.Errorf("unexpected params %q %q", f.links.gotAmount, f.links.gotCurrency)
		}
	})

	t.Run("any failure is a 500 with the fixed message", func(t *testing.T) {
		f := newFixture()
		f.links.fn = func(context.Context, string, string) (*model.Order, error) {
			return nil, domain.ErrLinkNotFound
		}
		rec := do(f.handler(), httptest.NewRequest(http.MethodGet, "/create-payment-link", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"error":"An error occurred while creating the payment link"}` {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})
}

func TestWebhook(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"dispatched", nil, http.StatusOK, "OK"},
		{"verification failed", domain.ErrVerification, http.StatusBadRequest, "Webhook verification failed"},
		{"signature rejected", fmt.Errorf("%w: %w: status FAILURE", domain.ErrVerification, domain.ErrSignatureRejected), http.StatusBadRequest, "Bad Request"},
		{"dispatch error", domain.ErrDispatch, http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture()
			f.webhooks.err = c.err

			req := httptest.NewRequest(http.MethodPost, "/paypal-webhook", strings.NewReader(`{"event_type":"X"}`))
			req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
			req.Header.Set("Paypal-Cert-Url", "https://cert")
			req.Header.Set("Paypal-Transmission-Id", "tid")
			req.Header.Set("Paypal-Transmission-Sig", "sig")
			req.Header.Set("Paypal-Transmission-Time", "2024-01-01T00:00:00Z")
			rec := do(f.handler(), req)

			if rec.Code != c.wantCode || rec.Body.String() != c.wantBody {
				t.Errorf("got %d %q, want %d %q", rec.Code, rec.Body.String(), c.wantCode, c.wantBody)
			}
			got := f.webhooks.got
			if string(got.Body) != `{"event_type":"X"}` {
				t.Errorf("raw body not forwarded: %q", got.Body)
			}
			if got.Headers.AuthAlgo != "SHA256withRSA" || got.Headers.CertURL != "https://cert" ||
				got.Headers.TransmissionID != "tid" || got.Headers.TransmissionSig != "sig" ||
				got.Headers.TransmissionTime != "2024-01-01T00:00:00Z" {
				t.Errorf("headers not forwarded: %+v", got.Headers)
			}
		})
	}

	t.Run("missing headers pass through empty", func(t *testing.T) {
		f := newFixture()
		rec := do(f.handler(), httptest.NewRequest(http.MethodPost, "/paypal-webhook", strings.NewReader(`{}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if f.webhooks.got.Headers != (model.SignatureHeaders{}) {
			t.Errorf("expected empty headers, got %+v", f.webhooks.got.Headers)
		}
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestFallback_SomethingBroke(t *testing.T) {
	t.Run("unreadable body", func(t *testing.T) {
		f := newFixture()
		rec := do(f.handler(), httptest.NewRequest(http.MethodPost, "/paypal-webhook", errReader{}))
		if rec.Code != http.StatusInternalServerError || strings.TrimSpace(rec.Body.String()) != "Something broke!" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("body that is not JSON", func(t *testing.T) {
		f := newFixture()
		rec := do(f.handler(), httptest.NewRequest(http.MethodPost, "/paypal-webhook", strings.NewReader(`{"event_type":`)))
		if rec.Code != http.StatusInternalServerError || strings.TrimSpace(rec.Body.String()) != "Something broke!" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
		if f.webhooks.calls != 0 {
			t.Errorf("expected the dispatcher not to run, got %d calls", f.webhooks.calls)
		}
	})

	t.Run("panic in a handler", func(t *testing.T) {
		f := newFixture()
		f.links.fn = func(context.Context, string, string) (*model.Order, error) { panic("boom") }
		rec := do(f.handler(), httptest.NewRequest(http.MethodGet, "/create-payment-link", nil))
		if rec.Code != http.StatusInternalServerError || strings.TrimSpace(rec.Body.String()) != "Something broke!" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestListPayments(t *testing.T) {
	t.Run("empty store is an empty array", func(t *testing.T) {
		f := newFixture()
		rec := do(f.handler(), httptest.NewRequest(http.MethodGet, "/payments", nil))
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("records render amount as a number and payer as null", func(t *testing.T) {
		f := newFixture()
		payer, email := "P1", "a@b.com"
		ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		f.records.recs = []*model.PaymentRecord{
			{ID: "01H", OrderID: "O1", Status: "COMPLETED", Amount: decimal.RequireFromString("9.99"), Currency: "USD", PayerID: &payer, PayerEmail: &email, CreateTime: ts, UpdateTime: ts},
			{ID: "01J", OrderID: "O2", Status: "COMPLETED", Amount: decimal.RequireFromString("1"), Currency: "EUR", CreateTime: ts, UpdateTime: ts},
		}
		rec := do(f.handler(), httptest.NewRequest(http.MethodGet, "/payments", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 records, got %d", len(got))
		}
		if got[0]["orderId"] != "O1" || got[0]["amount"] != 9.99 || got[0]["payerEmail"] != "a@b.com" {
			t.Errorf("unexpected first record %v", got[0])
		}
		if got[1]["payerId"] != nil || got[1]["payerEmail"] != nil {
			t.Errorf("expected null payer fields, got %v", got[1])
		}
		if !strings.Contains(rec.Body.String(), `"amount":9.99`) {
			t.Errorf("amount not rendered as a number: %s", rec.Body.String())
		}
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		f.records.err = domain.ErrPersistence
		rec := do(f.handler(), httptest.NewRequest(http.MethodGet, "/payments", nil))
		if rec.Code != http.StatusInternalServerError || strings.TrimSpace(rec.Body.String()) != `{"error":"Failed to fetch payments"}` {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestListPayments_AdminToken(t *testing.T) {
	f := newFixture()
	f.auth = api.NewAuthManager("s3cret", time.Hour)
	h := f.handler()

	rec := do(h, httptest.NewRequest(http.MethodGet, "/payments", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/payments", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	if rec := do(h, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", rec.Code)
	}

	other, _ := api.NewAuthManager("other", time.Hour).Mint("admin")
	req = httptest.NewRequest(http.MethodGet, "/payments", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	if rec := do(h, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("foreign token: expected 401, got %d", rec.Code)
	}

	tok, err := f.auth.Mint("ops")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/payments", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if rec := do(h, req); rec.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", rec.Code)
	}

	// other routes stay open
	if rec := do(h, httptest.NewRequest(http.MethodGet, "/create-payment-link", nil)); rec.Code != http.StatusOK {
		t.Errorf("link route should not require a token, got %d", rec.Code)
	}
}

func TestNewAuthManager_EmptySecretDisablesGuard(t *testing.T) {
	if api.NewAuthManager("", time.Hour) != nil {
		t.Error("expected nil manager for empty secret")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newFixture().handler()

	rec := do(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health: got %d %q", rec.Code, rec.Body.String())
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics: got %d", rec.Code)
	}
	if rec.Header().Get("X-Trace-Id") == "" {
		t.Error("expected X-Trace-Id header")
	}
}
