// Package app wires the cashier server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/cashier/internal/cashier"
	"github.com/xenking/cashier/internal/domain/basket"
	"github.com/xenking/cashier/internal/domain/order"
	"github.com/xenking/cashier/internal/handler"
	"github.com/xenking/cashier/internal/storage/postgres"
	"github.com/xenking/cashier/pkg/health"
	"github.com/xenking/cashier/pkg/httpmiddleware"
)

const instrumentationName = "github.com/xenking/cashier"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("currency", cfg.Till.Currency),
		zap.String("discount_percent", cfg.Till.DiscountPercent),
	)

	policy, err := cfg.Till.Policy()
	if err != nil {
		return errors.Wrap(err, "discount policy")
	}

	// PostgreSQL migrations + pool.
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	// Health check service.
	healthSvc := health.New()
	healthSvc.Register(health.Readiness, "postgres", health.PingCheck(pool),
		health.WithTimeout(cfg.Health.DatabaseTimeout))
	healthSvc.Register(health.Liveness, "goroutines", health.GoroutineCountCheck(cfg.Health.MaxGoroutines))
	healthSvc.Start(ctx, cfg.Health.Interval)
	healthSvc.SetReady(true)

	// Repositories and domain services.
	stockRepo := postgres.NewStockRepository(pool)
	orderService := order.NewService(postgres.NewOrderRepository(pool))

	metrics, err := cashier.NewMetrics(m.MeterProvider().Meter(instrumentationName))
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}

	h := handler.NewHandler(handler.HandlerConfig{
		TillOptions: []cashier.TillOption{
			cashier.WithCurrency(cfg.Till.Currency),
			cashier.WithBasketOptions(basket.WithPolicy(policy)),
			cashier.WithTracer(m.TracerProvider().Tracer(instrumentationName)),
		},
		Metrics: metrics,
	}, stockRepo, orderService)

	// Mux: health endpoints + till API on one server.
	mux := http.NewServeMux()
	mux.Handle("/livez", healthSvc.LiveHandler())
	mux.Handle("/readyz", healthSvc.ReadyHandler())
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			httpmiddleware.Wrap(mux,
				httpmiddleware.InjectLogger(zctx.From(ctx)),
				httpmiddleware.Recovery(),
				httpmiddleware.RequestID(),
				httpmiddleware.LogRequests(),
			),
			"cashier",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
