package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lagunahotels/channelsync-backend/internal/booking"
	"github.com/lagunahotels/channelsync-backend/internal/channels"
	"github.com/lagunahotels/channelsync-backend/internal/inventory"
	"github.com/lagunahotels/channelsync-backend/internal/pricing"
	"github.com/lagunahotels/channelsync-backend/internal/scheduler"
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

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
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

	logRepo := syncsvc.NewLogRepository(dbClient.DB())
	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	clientRegistry := syncsvc.NewRegistry()
	adapter := otahttp.New(cfg.Sync.ChannelTimeout)
	connections, err := channelService.ListConnections(context.Background(), false)
	if err != nil {
		logg.Error(context.Background(), "failed to list channel connections", err)
		os.Exit(1)
	}
	for _, conn := range connections {
		clientRegistry.Register(conn.ChannelName, adapter)
	}

	orchestrator, err := syncsvc.NewOrchestrator(
		clientRegistry,
		channelService,
		channelRepo,
		channelRepo,
		inventoryRepo,
		quotes,
		bookingService,
		logRepo,
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

	pullJob, err := scheduler.NewReservationPullJob(scheduler.ReservationPullJobParams{
		Logger:       logg,
		Orchestrator: orchestrator,
		Interval:     cfg.Sync.PullInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation pull job", err)
		os.Exit(1)
	}
	pushJob, err := scheduler.NewInventoryPushJob(scheduler.InventoryPushJobParams{
		Logger:       logg,
		Orchestrator: orchestrator,
		Interval:     cfg.Sync.PushInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory push job", err)
		os.Exit(1)
	}
	pruneJob, err := scheduler.NewSyncLogPruneJob(scheduler.SyncLogPruneJobParams{
		Logger:        logg,
		Logs:          logRepo,
		RetentionDays: cfg.Sync.LogRetentionDays,
		Interval:      cfg.Sync.LogPruneInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync log prune job", err)
		os.Exit(1)
	}

	service, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:   logg,
		Registry: scheduler.NewRegistry(pullJob, pushJob, pruneJob),
		Locks: func(jobName string, ttl time.Duration) (scheduler.Lock, error) {
			key := redisClient.LockKey(fmt.Sprintf("sync-worker:%s:%s", lockEnv(cfg.App.Env), jobName))
			return scheduler.NewRedisLock(redisClient, key, ttl)
		},
		Metrics:       metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		TTLMultiplier: cfg.Sync.LockTTLMultiplier,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
