// File: cmd/paypal-relay/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"paypal-relay/internal/config"
	"paypal-relay/internal/domain/ports/adapter"
	"paypal-relay/internal/infra/adapters/paypal"
	"paypal-relay/internal/infra/adapters/telegram"
	"paypal-relay/internal/infra/api"
	pg "paypal-relay/internal/infra/db/postgres"
	"paypal-relay/internal/infra/i18n"
	"paypal-relay/internal/infra/logging"
	"paypal-relay/internal/infra/metrics"
	red "paypal-relay/internal/infra/redis"
	"paypal-relay/internal/infra/security"
	"paypal-relay/internal/infra/tracing"
	"paypal-relay/internal/infra/worker"
	"paypal-relay/internal/usecase"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(parent context.Context, flags *rootFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.LoadConfig(flags.configPath, flags.dev)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Observability ----
	env := "production"
	if cfg.Runtime.Dev {
		env = "development"
	}
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, env)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown")
		}
	}()
	metrics.MustRegister()
	metrics.SetBuildInfo(Version, Commit)

	// ---- Store ----
	st, err := openStore(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer st.close()
	if st.pool != nil {
		go pg.ReportPoolStats(ctx, st.pool, poolStatsInterval, logger)
	}

	// ---- PayPal ----
	var tokens paypal.TokenStore
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		tokens = rc
		if cfg.Redis.TokenKey != "" {
			enc, err := security.NewEncryptionService(cfg.Redis.TokenKey)
			if err != nil {
				return fmt.Errorf("redis token key: %w", err)
			}
			tokens = paypal.SealTokenStore(rc, enc)
		} else {
			logger.Warn().Msg("redis.token_key not set; cached access tokens are stored in clear text")
		}
	} else {
		logger.Info().Msg("redis.url not set; access tokens are cached per process")
	}
	provider, err := paypal.NewClient(cfg.PayPal, tokens, logger)
	if err != nil {
		return fmt.Errorf("paypal: %w", err)
	}

	// ---- Operator notifications ----
	var notifier adapter.Notifier = telegram.NewNoopNotifier(logger)
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBotNotifier(cfg.Telegram)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		notifier = bot
	}
	messages, err := i18n.Load(cfg.Telegram.Lang)
	if err != nil {
		return fmt.Errorf("messages: %w", err)
	}
	// the pool outlives the signal context so queued notifications drain on Stop
	poolCtx, cancelPool := context.WithCancel(context.Background())
	pool := worker.NewPool(cfg.Worker.Workers, logger)
	pool.Start(poolCtx)
	defer func() {
		pool.Stop()
		cancelPool()
	}()

	// ---- Use cases ----
	links := usecase.NewLinkUseCase(provider, cfg.PayPal.ReturnURL, cfg.PayPal.CancelURL, logger)
	webhooks := usecase.NewWebhookUseCase(provider, st.records, notifier, pool, messages, cfg.PayPal.WebhookID, cfg.Runtime.Dev, logger)

	auth := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if auth == nil {
		logger.Warn().Msg("admin.jwt_secret not set; /payments is unauthenticated")
	}

	// ---- HTTP ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           api.NewServer(links, webhooks, st.records, auth, requestTimeout(cfg.HTTP), logger).Routes(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("mode", cfg.PayPal.Mode).
			Str("store", cfg.Store.Driver).
			Str("version", Version).
			Msg("paypal relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// requestTimeout leaves the handler a second to answer before the write deadline.
func requestTimeout(cfg config.HTTPConfig) time.Duration {
	if cfg.WriteTimeout > 2*time.Second {
		return cfg.WriteTimeout - time.Second
	}
	return cfg.WriteTimeout
}
