package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"innkeeper/cmd/server/config"
	"innkeeper/internal/api"
	"innkeeper/internal/booking"
	"innkeeper/internal/events"
	"innkeeper/internal/observability"
	"innkeeper/internal/providers"
	"innkeeper/internal/realtime"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := buildLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(ctx, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func buildLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, logger *zap.Logger) error {
	httpCfg, err := config.LoadHTTP()
	if err != nil {
		return err
	}
	pipelineCfg, err := config.LoadPipeline()
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()

	bus := events.NewBus(pipelineCfg.BusSubscriberBuffer, logger)
	bus.OnDrop(func(string) { metrics.AddDroppedEvent() })
	notifier := events.NewNotifier(bus)

	store, cleanupStore, err := buildBookingStore(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanupStore()

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)
	_, feed := bus.Subscribe("booking:*")
	go hub.Forward(ctx, feed)

	registry := buildProviderRegistry()

	service := booking.NewService(booking.ServiceConfig{
		Store:           store,
		Gateway:         booking.NewMemoryPaymentGateway(),
		Hotels:          registry.Hotels(),
		Mailer:          booking.NewLogMailer(logger),
		Notifier:        notifier,
		Metrics:         metrics,
		Logger:          logger,
		PollInterval:    pipelineCfg.PaymentPollInterval,
		PollMaxAttempts: pipelineCfg.PaymentPollMaxAttempts,
	})

	var limiter *api.RateLimiter
	if httpCfg.RateLimitInterval > 0 {
		limiter = api.NewRateLimiter(httpCfg.RateLimitInterval, httpCfg.RateLimitBurst, metrics.AddRateLimitWait)
	}

	server := api.NewServer(api.ServerConfig{
		Service: service,
		Bus:     bus,
		Hub:     hub,
		Metrics: metrics,
		Logger:  logger,
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:    httpCfg.Addr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpCfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		snap := metrics.Snapshot()
		metrics.MarkShutdown(snap.InFlight)
		logger.Info("shutting down", zap.Int64("in_flight", snap.InFlight))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildProviderRegistry wires the hotel provider chain. The in-memory
// provider ships with a small catalog so the service runs end-to-end with no
// upstream credentials; real providers slot in ahead of it and fall back to
// it on transient failures.
func buildProviderRegistry() *providers.Registry {
	catalog := providers.NewMemoryProvider("memory")
	catalog.AddHotel(providers.HotelDetails{
		HotelCode:   "HTL-LIS-001",
		Name:        "Harbor View Lisbon",
		Address:     "Lisbon",
		Description: "Waterfront rooms near Alfama.",
		Amenities:   []string{"wifi", "breakfast"},
	}, 120)
	catalog.AddHotel(providers.HotelDetails{
		HotelCode:   "HTL-PRT-002",
		Name:        "Douro Terrace",
		Address:     "Porto",
		Description: "Terrace suites above the river.",
		Amenities:   []string{"wifi", "bar"},
	}, 95)

	guarded := providers.NewGuardedProvider(catalog, 5, 30*time.Second)

	return providers.NewRegistryBuilder().
		WithHotelProvider(guarded).
		Build()
}
