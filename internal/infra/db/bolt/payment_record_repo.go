// Package bolt keeps payment records in a single BoltDB file, for deployments
// without a Postgres server.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"paypal-relay/internal/domain"
	"paypal-relay/internal/domain/model"
	"paypal-relay/internal/domain/ports/repository"
)

const bucketName = "payment_records"

var _ repository.PaymentRecordRepository = (*PaymentRecordRepo)(nil)

// PaymentRecordRepo stores one JSON document per record, keyed by record id.
// Ids are ULIDs so bucket order is insertion order.
type PaymentRecordRepo struct {
	db *bolt.DB
}

// Open opens (or creates) the database file and ensures the bucket exists.
func Open(path string) (*PaymentRecordRepo, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &PaymentRecordRepo{db: db}, nil
}

func (r *PaymentRecordRepo) Close() error {
	return r.db.Close()
}

func (r *PaymentRecordRepo) Save(ctx context.Context, rec *model.PaymentRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if rec.ID == "" {
		rec.ID = model.NewPaymentRecordID()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode payment record: %w", domain.ErrPersistence, err)
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("record %s already exists", rec.ID)
		}
		return b.Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *PaymentRecordRepo) ListAll(ctx context.Context) ([]*model.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	items := make([]*model.PaymentRecord, 0)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var rec model.PaymentRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			items = append(items, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return items, nil
}
