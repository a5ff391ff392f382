package adapter

import (
	"context"

	"paypal-relay/internal/domain/model"
)

// PaymentProvider is the port for the remote payment provider.
type PaymentProvider interface {
	Name() string

	// CreateOrder opens a CAPTURE-intent order with a single purchase unit.
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	// CaptureOrder finalizes collection of funds for an approved order.
	CaptureOrder(ctx context.Context, orderID string) (*model.CaptureResult, error)
	// VerifyWebhookSignature asks the provider whether a delivery is authentic.
	// An error means the provider could not evaluate the signature material at all.
	VerifyWebhookSignature(ctx context.Context, headers model.SignatureHeaders, body []byte, webhookID string) (model.VerificationStatus, error)
}
