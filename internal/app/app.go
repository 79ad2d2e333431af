package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiltvault/payments-gateway/config"
	"github.com/tiltvault/payments-gateway/internal/api"
	"github.com/tiltvault/payments-gateway/internal/api/handlers"
	"github.com/tiltvault/payments-gateway/internal/domain/payment"
	"github.com/tiltvault/payments-gateway/internal/external/square"
	"github.com/tiltvault/payments-gateway/internal/idempotency"
	"github.com/tiltvault/payments-gateway/internal/kvstore"
	"github.com/tiltvault/payments-gateway/internal/ratelimit"
	"github.com/tiltvault/payments-gateway/pkg/health"
	"github.com/tiltvault/payments-gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) error {
	logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("app - Run - openStore: %w", err)
	}
	defer store.Close()

	squareClient := square.New(square.ClientConfig{
		BaseURL:     cfg.SquareBaseURL,
		AccessToken: cfg.SquareAccessToken,
		APIVersion:  cfg.SquareAPIVersion,
		LocationID:  cfg.SquareLocationID,
		Timeout:     cfg.SquareClientTimeout,
		Retry: square.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
	})

	guard := idempotency.NewGuard(store, cfg.IdempotencyTTL, cfg.IdempotencyStrict)
	limiter := ratelimit.New(store, ratelimit.Limits{
		RequestsPerMinute: cfg.RequestsPerMinute,
		HourlyAmount:      decimal.NewFromFloat(cfg.HourlyLimit),
		DailyAmount:       decimal.NewFromFloat(cfg.DailyLimit),
	})

	service := payment.NewService(squareClient, guard, limiter, store, payment.ServiceConfig{
		Bounds: payment.Bounds{
			Min: decimal.NewFromFloat(cfg.MinAmount),
			Max: decimal.NewFromFloat(cfg.MaxAmount),
		},
		AccessTokenSet: cfg.SquareAccessToken != "",
		LocationIDSet:  cfg.SquareLocationID != "",
		MetadataTTL:    cfg.MetadataTTL,
	})

	healthRegistry := health.NewRegistry(storeChecker(store))

	router := api.NewRouter(
		handlers.NewPaymentHandler(service, cfg.MaxBodyBytes, cfg.Hardened),
		handlers.NewHealthHandler(cfg),
		handlers.NewConfigHandler(cfg),
		handlers.NewBalanceHandler(squareClient, cfg.CredentialsConfigured(), cfg.Hardened),
		healthRegistry,
	)

	engine := api.NewGinEngine(cfg.AllowedOrigins)
	router.SetUp(engine)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", slog.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("app - Run - ListenAndServe: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app - Run - Shutdown: %w", err)
	}

	return nil
}

func openStore(cfg config.Config) (kvstore.Store, error) {
	if cfg.StorePath == "" {
		slog.Warn("STORE_PATH not set, using in-memory store; idempotency state will not survive restarts")
		return kvstore.NewMemory(), nil
	}
	return kvstore.NewBolt(cfg.StorePath)
}

// storeChecker probes the key-value store with a throwaway read so that
// readiness reflects store availability.
func storeChecker(store kvstore.Store) health.Checker {
	return health.CheckerFunc{
		CheckerName: "kvstore",
		Fn: func(ctx context.Context) health.Result {
			if _, _, err := store.Get(ctx, "health:probe"); err != nil {
				return health.Result{Status: health.StatusDown, Message: err.Error()}
			}
			return health.Result{Status: health.StatusUp}
		},
	}
}
