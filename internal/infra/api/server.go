package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"paypal-relay/internal/domain"
	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/domain/ports/repository"
	"paypal-relay/internal/infra/logging"
	"paypal-relay/internal/usecase"
)

const maxWebhookBody = 1 << 20

// Server exposes the relay over HTTP: checkout links, the PayPal webhook and
// the stored records.
type Server struct {
	links    usecase.LinkUseCase
	webhooks usecase.WebhookUseCase
	records  repository.PaymentRecordRepository
	auth     *AuthManager
	timeout  time.Duration
	log      *zerolog.Logger
}

// NewServer builds the HTTP layer. auth may be nil (no guard on /payments).
func NewServer(
	links usecase.LinkUseCase,
	webhooks usecase.WebhookUseCase,
	records repository.PaymentRecordRepository,
	auth *AuthManager,
	requestTimeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		links:    links,
		webhooks: webhooks,
		records:  records,
		auth:     auth,
		timeout:  requestTimeout,
		log:      logger,
	}
}

// Routes returns the full handler with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/create-payment-link", s.handleCreatePaymentLink)
	r.Post("/paypal-webhook", s.handleWebhook)
	if s.auth != nil {
		r.With(s.auth.Require).Get("/payments", s.handleListPayments)
	} else {
		r.Get("/payments", s.handleListPayments)
	}
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return Chain(r,
		TraceID(s.log),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.timeout),
	)
}

type errorBody struct {
	Error string `json:"error"`
}

type linkResponse struct {
	Response *model.Order `json:"response"`
}

func (s *Server) handleCreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	params, err := bindCreatePaymentLinkParams(r)
	if err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("bind query parameters")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "An error occurred while creating the payment link"})
		return
	}

	order, err := s.links.CreateLink(r.Context(), deref(params.Amount), deref(params.Currency))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "An error occurred while creating the payment link"})
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{Response: order})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("read webhook body")
		somethingBroke(w)
		return
	}
	// a malformed body never reaches the route, same as an unreadable one
	if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		logging.With(r.Context(), s.log).Warn().Int("bytes", len(body)).Msg("webhook body is not JSON")
		somethingBroke(w)
		return
	}

	d := model.WebhookDelivery{
		Headers: model.SignatureHeaders{
			AuthAlgo:         r.Header.Get("PAYPAL-AUTH-ALGO"),
			CertURL:          r.Header.Get("PAYPAL-CERT-URL"),
			TransmissionID:   r.Header.Get("PAYPAL-TRANSMISSION-ID"),
			TransmissionSig:  r.Header.Get("PAYPAL-TRANSMISSION-SIG"),
			TransmissionTime: r.Header.Get("PAYPAL-TRANSMISSION-TIME"),
		},
		Body: body,
	}

	_, err = s.webhooks.HandleDelivery(r.Context(), d)
	switch {
	case err == nil:
		writeText(w, http.StatusOK, "OK")
	case errors.Is(err, domain.ErrSignatureRejected):
		writeText(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
	case errors.Is(err, domain.ErrVerification):
		writeText(w, http.StatusBadRequest, "Webhook verification failed")
	default:
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	recs, err := s.records.ListAll(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list payments")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch payments"})
		return
	}
	writeJSON(w, http.StatusOK, ToPaymentRecordDTOs(recs))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, text)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
