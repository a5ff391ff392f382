package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"paypal-relay/internal/config"
	"paypal-relay/internal/domain/ports/repository"
	"paypal-relay/internal/infra/db/bolt"
	pg "paypal-relay/internal/infra/db/postgres"
)

type store struct {
	records repository.PaymentRecordRepository
	pool    *pgxpool.Pool // nil unless the driver is postgres
	close   func()
}

// openStore opens the configured record store. With migrate set, pending
// PostgreSQL migrations are applied first.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (*store, error) {
	switch cfg.Store.Driver {
	case "bolt":
		repo, err := bolt.Open(cfg.Database.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("bolt: %w", err)
		}
		return &store{records: repo, close: func() { _ = repo.Close() }}, nil
	case "postgres":
		if migrate {
			if err := pg.MigrateUp(cfg.Database.URL); err != nil {
				return nil, fmt.Errorf("postgres: %w", err)
			}
		}
		pool, err := pg.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &store{records: pg.NewPaymentRecordRepo(pool), pool: pool, close: pool.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
