// File: internal/usecase/webhook_uc.go
package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"paypal-relay/internal/domain"
	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/domain/ports/adapter"
	"paypal-relay/internal/domain/ports/repository"
	"paypal-relay/internal/infra/i18n"
	"paypal-relay/internal/infra/logging"
	"paypal-relay/internal/infra/metrics"
	"paypal-relay/internal/infra/worker"
)

const notifyTimeout = 10 * time.Second

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

type WebhookUseCase interface {
	// HandleDelivery verifies one PayPal notification and acts on it.
	// The returned error wraps domain.ErrVerification (event dropped, plus
	// domain.ErrSignatureRejected for a non-SUCCESS status) or domain.ErrDispatch
	// (event could not be routed). Capture and persistence failures, panics
	// included, are logged and reported as success.
	HandleDelivery(ctx context.Context, d model.WebhookDelivery) (*model.DispatchReport, error)
}

type webhookUC struct {
	provider  adapter.PaymentProvider
	records   repository.PaymentRecordRepository
	notifier  adapter.Notifier
	pool      *worker.Pool
	messages  *i18n.Translator
	webhookID string
	dev       bool
	log       *zerolog.Logger
}

// NewWebhookUseCase wires the dispatcher. notifier and pool may be nil, which
// disables operator notifications; nil messages means English.
func NewWebhookUseCase(
	provider adapter.PaymentProvider,
	records repository.PaymentRecordRepository,
	notifier adapter.Notifier,
	pool *worker.Pool,
	messages *i18n.Translator,
	webhookID string,
	dev bool,
	logger *zerolog.Logger,
) WebhookUseCase {
	if messages == nil {
		messages = i18n.English()
	}
	return &webhookUC{
		provider:  provider,
		records:   records,
		notifier:  notifier,
		pool:      pool,
		messages:  messages,
		webhookID: webhookID,
		dev:       dev,
		log:       logger,
	}
}

func (u *webhookUC) HandleDelivery(ctx context.Context, d model.WebhookDelivery) (*model.DispatchReport, error) {
	start := time.Now()
	report := &model.DispatchReport{}
	defer func() {
		metrics.ObserveWebhook(string(report.Outcome), eventTypeLabel(report), time.Since(start).Seconds())
	}()
	log := logging.With(ctx, u.log)

	status, err := u.provider.VerifyWebhookSignature(ctx, d.Headers, d.Body, u.webhookID)
	if err != nil {
		report.Outcome = model.OutcomeVerifyFailed
		log.Warn().Err(err).Str("transmission_id", d.Headers.TransmissionID).Msg("webhook verification failed")
		return report, fmt.Errorf("%w: %w", domain.ErrVerification, err)
	}
	if status != model.VerificationSuccess {
		report.Outcome = model.OutcomeVerifyFailed
		log.Warn().Str("status", string(status)).Str("transmission_id", d.Headers.TransmissionID).Msg("webhook signature rejected")
		return report, fmt.Errorf("%w: %w: status %s", domain.ErrVerification, domain.ErrSignatureRejected, status)
	}

	if err := u.dispatch(ctx, d.Body, report); err != nil {
		report.Outcome = model.OutcomeDispatchError
		log.Error().Err(err).Str("event_type", report.EventType).Msg("webhook dispatch failed")
		return report, err
	}
	report.Outcome = model.OutcomeDispatched
	return report, nil
}

// dispatch routes a verified event. A panic outside the guarded capture and
// save calls becomes ErrDispatch.
func (u *webhookUC) dispatch(ctx context.Context, body []byte, report *model.DispatchReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrDispatch, r)
		}
	}()

	var ev model.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: decode event: %w", domain.ErrDispatch, err)
	}
	report.EventType = ev.EventType
	ctx = logging.WithEventType(ctx, ev.EventType)

	switch ev.EventType {
	case model.EventCheckoutOrderApproved:
		report.Handled = true
		return u.onOrderApproved(ctx, ev)
	case model.EventPaymentCaptureComplete:
		report.Handled = true
		return u.onCaptureCompleted(ctx, ev, report)
	default:
		logging.With(ctx, u.log).Info().Str("event_id", ev.ID).Msg("unhandled event type")
		return nil
	}
}

func (u *webhookUC) onOrderApproved(ctx context.Context, ev model.WebhookEvent) error {
	if isEmptyJSON(ev.Resource) {
		return fmt.Errorf("%w: %s without resource", domain.ErrDispatch, ev.EventType)
	}
	var res model.OrderResource
	if err := json.Unmarshal(ev.Resource, &res); err != nil {
		return fmt.Errorf("%w: decode order resource: %w", domain.ErrDispatch, err)
	}

	ctx = logging.WithOrderID(ctx, res.ID)
	log := logging.With(ctx, u.log)

	// an empty id is left to the provider call to reject
	var capture *model.CaptureResult
	err := guarded(func() (err error) {
		capture, err = u.provider.CaptureOrder(ctx, res.ID)
		return err
	})
	if err != nil {
		metrics.IncCapture("error")
		log.Error().Err(err).Msg("order capture failed")
		return nil
	}
	metrics.IncCapture("ok")
	log.Info().Str("capture_status", capture.Status).Msg("order captured")
	return nil
}

func (u *webhookUC) onCaptureCompleted(ctx context.Context, ev model.WebhookEvent, report *model.DispatchReport) error {
	if isEmptyJSON(ev.Resource) {
		return fmt.Errorf("%w: %s without resource", domain.ErrDispatch, ev.EventType)
	}
	var res model.CaptureResource
	if err := json.Unmarshal(ev.Resource, &res); err != nil {
		return fmt.Errorf("%w: decode capture resource: %w", domain.ErrDispatch, err)
	}
	if res.Amount == nil {
		return fmt.Errorf("%w: %s without resource.amount", domain.ErrDispatch, ev.EventType)
	}

	ctx = logging.WithOrderID(ctx, res.ID)
	log := logging.With(ctx, u.log)

	var rec *model.PaymentRecord
	err := guarded(func() (err error) {
		if rec, err = newPaymentRecord(res); err != nil {
			return err
		}
		return u.records.Save(ctx, rec)
	})
	if err != nil {
		metrics.IncRecordSave("error")
		log.Error().Err(err).Msg("error saving payment")
		u.notify("record_failed", u.messages.T(i18n.KeyRecordFailed, res.ID, err))
		return nil
	}

	metrics.IncRecordSave("ok")
	metrics.AddPaymentRevenue(rec.Currency, rec.Amount.InexactFloat64())
	entry := log.Info().
		Str("record_id", rec.ID).
		Str("amount", rec.Amount.String()).
		Str("currency", rec.Currency)
	if rec.PayerEmail != nil {
		entry = entry.Str("payer_email", logging.Redact(*rec.PayerEmail, u.dev))
	}
	entry.Msg("payment saved")

	report.Record = rec
	u.notify("recorded", u.messages.T(i18n.KeyPaymentRecorded, rec.OrderID, rec.Amount.String(), rec.Currency, rec.Status))
	return nil
}

// newPaymentRecord maps a capture resource to a record. Unparseable values are
// reported as persistence failures, the way a rejected write would be.
func newPaymentRecord(res model.CaptureResource) (*model.PaymentRecord, error) {
	amount, err := decimal.NewFromString(res.Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %w", domain.ErrPersistence, res.Amount.Value, err)
	}
	created, err := time.Parse(time.RFC3339, res.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("%w: create_time %q: %w", domain.ErrPersistence, res.CreateTime, err)
	}
	updated, err := time.Parse(time.RFC3339, res.UpdateTime)
	if err != nil {
		return nil, fmt.Errorf("%w: update_time %q: %w", domain.ErrPersistence, res.UpdateTime, err)
	}

	rec := &model.PaymentRecord{
		ID:         model.NewPaymentRecordID(),
		OrderID:    res.ID,
		Status:     res.Status,
		Amount:     amount,
		Currency:   res.Amount.CurrencyCode,
		CreateTime: created.UTC(),
		UpdateTime: updated.UTC(),
	}
	if res.Payer != nil {
		// present but empty fields stay "", only a missing payer is null
		id, email := res.Payer.PayerID, res.Payer.EmailAddress
		rec.PayerID, rec.PayerEmail = &id, &email
	}
	return rec, nil
}

// notify hands an operator message to the worker pool. It never blocks the webhook.
func (u *webhookUC) notify(kind, text string) {
	if u.notifier == nil || u.pool == nil {
		return
	}
	task := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := u.notifier.Notify(ctx, text); err != nil {
			metrics.IncNotification(kind, "error")
			return fmt.Errorf("notify %s: %w", kind, err)
		}
		metrics.IncNotification(kind, "sent")
		return nil
	}
	if err := u.pool.Submit(task); err != nil {
		metrics.IncNotification(kind, "dropped")
		u.log.Warn().Err(err).Str("kind", kind).Msg("operator notification dropped")
	}
}

func eventTypeLabel(r *model.DispatchReport) string {
	switch {
	case r.EventType == "":
		return "unknown"
	case !r.Handled:
		return "other"
	default:
		return r.EventType
	}
}

func isEmptyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// guarded runs a swallowed side effect, reporting a panic as an error.
func guarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
