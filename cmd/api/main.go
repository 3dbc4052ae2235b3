package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lagunahotels/channelsync-backend/api/routes"
	"github.com/lagunahotels/channelsync-backend/internal/booking"
	"github.com/lagunahotels/channelsync-backend/internal/channels"
	"github.com/lagunahotels/channelsync-backend/internal/inventory"
	"github.com/lagunahotels/channelsync-backend/internal/pricing"
	syncsvc "github.com/lagunahotels/channelsync-backend/internal/sync"
	"github.com/lagunahotels/channelsync-backend/internal/sync/adapters/otahttp"
	"github.com/lagunahotels/channelsync-backend/pkg/config"
	"github.com/lagunahotels/channelsync-backend/pkg/db"
	"github.com/lagunahotels/channelsync-backend/pkg/events"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
	"github.com/lagunahotels/channelsync-backend/pkg/metrics"
	"github.com/lagunahotels/channelsync-backend/pkg/migrate"
	"github.com/lagunahotels/channelsync-backend/pkg/redis"
	"github.com/lagunahotels/channelsync-backend/pkg/vault"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	credentialVault, err := vault.New(cfg.Vault.Secret)
	if err != nil {
		logg.Error(context.Background(), "failed to create credential vault", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	roomTypeRepo := inventory.NewRoomTypeRepository(dbClient.DB())
	inventoryService, err := inventory.NewService(inventoryRepo, roomTypeRepo, cfg.Inventory.SalesHorizonDays)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	channelRepo := channels.NewRepository(dbClient.DB())
	channelService, err := channels.NewService(channelRepo, channelRepo, roomTypeRepo, credentialVault)
	if err != nil {
		logg.Error(context.Background(), "failed to create channel service", err)
		os.Exit(1)
	}

	quotes, err := pricing.NewLedgerQuoteProvider(inventoryRepo, roomTypeRepo, cfg.Pricing.TaxRatePercent, cfg.Pricing.FeeRatePercent)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote provider", err)
		os.Exit(1)
	}

	bus := events.NewBus(logg)
	bookingService, err := booking.NewService(
		booking.NewRepository(dbClient.DB()),
		inventoryRepo,
		quotes,
		dbClient,
		bus,
		redisClient,
		cfg.Sync.DedupTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	registry := syncsvc.NewRegistry()
	registerChannelClients(context.Background(), logg, registry, channelService, cfg.Sync.ChannelTimeout)

	orchestrator, err := syncsvc.NewOrchestrator(
		registry,
		channelService,
		channelRepo,
		channelRepo,
		inventoryRepo,
		quotes,
		bookingService,
		syncsvc.NewLogRepository(dbClient.DB()),
		syncMetrics,
		logg,
		syncsvc.Options{
			PushWindowDays: cfg.Sync.PushWindowDays,
			ChannelTimeout: cfg.Sync.ChannelTimeout,
			MaxFailures:    cfg.Sync.MaxFailures,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync orchestrator", err)
		os.Exit(1)
	}

	bus.Subscribe(events.TopicBookingCreated, orchestrator.HandleBookingEvent)
	bus.Subscribe(events.TopicBookingConfirmed, orchestrator.HandleBookingEvent)
	bus.Subscribe(events.TopicBookingCancelled, orchestrator.HandleBookingEvent)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config: cfg,
			Logger: logg,
			Probes: map[string]func(context.Context) error{
				"db":    dbClient.Ping,
				"redis": redisClient.Ping,
			},
			Inventory: inventoryService,
			Bookings:  bookingService,
			Channels:  channelService,
			SyncLogs:  syncsvc.NewLogRepository(dbClient.DB()),
			Sync:      orchestrator,
			Metrics:   prometheus.DefaultGatherer,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}
}

// registerChannelClients binds the shared HTTP adapter to every channel known
// at boot. Connections created afterwards become syncable on the next restart.
func registerChannelClients(ctx context.Context, logg *logger.Logger, registry *syncsvc.Registry, directory channels.Service, timeout time.Duration) {
	client := otahttp.New(timeout)
	connections, err := directory.ListConnections(ctx, false)
	if err != nil {
		logg.Warn(ctx, "could not list channel connections for client registration")
		return
	}
	for _, conn := range connections {
		registry.Register(conn.ChannelName, client)
	}
	logg.Info(logg.WithField(ctx, "channels", len(connections)), "registered channel clients")
}
