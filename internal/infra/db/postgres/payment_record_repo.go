package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"paypal-relay/internal/domain"
	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/domain/ports/repository"
)

var _ repository.PaymentRecordRepository = (*paymentRecordRepo)(nil)

// querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type paymentRecordRepo struct{ db querier }

func NewPaymentRecordRepo(db querier) repository.PaymentRecordRepository {
	return &paymentRecordRepo{db: db}
}

func (r *paymentRecordRepo) Save(ctx context.Context, rec *model.PaymentRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, domain.ErrInvalidArgument)
	}
	if rec.ID == "" {
		rec.ID = model.NewPaymentRecordID()
	}
	const q = `
INSERT INTO payment_records (
  id, order_id, status, amount, currency, payer_id, payer_email, create_time, update_time
) VALUES (
  $1, $2, $3, $4::numeric, $5, $6, $7, $8, $9
);`
	_, err := r.db.Exec(ctx, q,
		rec.ID, rec.OrderID, rec.Status, rec.Amount.String(), rec.Currency,
		rec.PayerID, rec.PayerEmail, rec.CreateTime, rec.UpdateTime)
	if err != nil {
		return fmt.Errorf("%w: insert payment record: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *paymentRecordRepo) ListAll(ctx context.Context) ([]*model.PaymentRecord, error) {
	const q = `
SELECT id, order_id, status, amount::text, currency, payer_id, payer_email, create_time, update_time
FROM payment_records
ORDER BY stored_at, id;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list payment records: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]*model.PaymentRecord, 0)
	for rows.Next() {
		var (
			rec    model.PaymentRecord
			amount string
			ct, ut time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.Status, &amount, &rec.Currency,
			&rec.PayerID, &rec.PayerEmail, &ct, &ut); err != nil {
			return nil, fmt.Errorf("%w: scan payment record: %w", domain.ErrPersistence, err)
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: amount %q: %w", domain.ErrPersistence, amount, err)
		}
		rec.CreateTime, rec.UpdateTime = ct.UTC(), ut.UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate payment records: %w", domain.ErrPersistence, err)
	}
	return out, nil
}
