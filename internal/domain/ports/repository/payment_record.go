package repository

import (
	"context"

	"paypal-relay/internal/domain/model"
)

// PaymentRecordRepository persists captured payments. Writes are plain appends.
type PaymentRecordRepository interface {
	Save(ctx context.Context, rec *model.PaymentRecord) error
	// ListAll returns every stored record in storage order; empty slice when none.
	ListAll(ctx context.Context) ([]*model.PaymentRecord, error)
}
