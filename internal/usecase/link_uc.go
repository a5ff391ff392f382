// File: internal/usecase/link_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"paypal-relay/internal/domain"
	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/domain/ports/adapter"
	"paypal-relay/internal/infra/logging"
	"paypal-relay/internal/infra/metrics"
)

const (
	DefaultLinkAmount   = "10.00"
	DefaultLinkCurrency = "USD"
)

// Compile-time check
var _ LinkUseCase = (*linkUC)(nil)

type LinkUseCase interface {
	// CreateLink opens a PayPal order and returns it; the buyer approves it via
	// the link with rel "approve". Empty amount/currency fall back to the defaults.
	CreateLink(ctx context.Context, amount, currency string) (*model.Order, error)
}

type linkUC struct {
	provider  adapter.PaymentProvider
	returnURL string
	cancelURL string
	log       *zerolog.Logger
}

func NewLinkUseCase(provider adapter.PaymentProvider, returnURL, cancelURL string, logger *zerolog.Logger) LinkUseCase {
	return &linkUC{
		provider:  provider,
		returnURL: returnURL,
		cancelURL: cancelURL,
		log:       logger,
	}
}

func (u *linkUC) CreateLink(ctx context.Context, amount, currency string) (*model.Order, error) {
	if amount == "" {
		amount = DefaultLinkAmount
	}
	if currency == "" {
		currency = DefaultLinkCurrency
	}
	log := logging.With(ctx, u.log)

	order, err := u.provider.CreateOrder(ctx, model.OrderRequest{
		Amount:    amount,
		Currency:  currency,
		ReturnURL: u.returnURL,
		CancelURL: u.cancelURL,
	})
	if err != nil {
		metrics.IncPaymentLink("provider_error")
		log.Error().Err(err).Str("amount", amount).Str("currency", currency).Msg("create order failed")
		return nil, err
	}

	href, ok := order.ApprovalLink()
	if !ok {
		metrics.IncPaymentLink("link_missing")
		log.Error().Str("order_id", order.ID).Msg("order has no approve link")
		return nil, fmt.Errorf("order %s: %w", order.ID, domain.ErrLinkNotFound)
	}

	metrics.IncPaymentLink("ok")
	log.Info().
		Str("order_id", order.ID).
		Str("amount", amount).
		Str("currency", currency).
		Str("approval_link", href).
		Msg("payment link created")
	return order, nil
}
