package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	escrowengine "caravel/contexts/market-core/escrow-engine"
	"caravel/contexts/market-core/escrow-engine/adapters/memory"
	postgresadapter "caravel/contexts/market-core/escrow-engine/adapters/postgres"
	redisadapter "caravel/contexts/market-core/escrow-engine/adapters/redis"
	workerapp "caravel/contexts/market-core/escrow-engine/application/workers"
	"caravel/contexts/market-core/escrow-engine/ports"
	"caravel/internal/platform/config"
	"caravel/internal/platform/db"
	"caravel/internal/platform/httpserver"
	"caravel/internal/platform/messaging"

	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

var errPostgresDSNRequired = errors.New("POSTGRES_DSN is required")

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	window, err := cfg.GraceWindowDuration()
	if err != nil {
		return nil, err
	}

	// Without a DSN the process runs entirely on in-memory adapters. That is
	// the current developer bootstrap path.
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Info("postgres dsn absent, using in-memory adapters",
			"event", "bootstrap_memory_mode",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		module := escrowengine.NewInMemoryModule(logger)
		server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
		return &APIApp{server: server, logger: logger}, nil
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(context.Background()); err != nil {
		_ = pg.Close()
		return nil, err
	}

	var guard ports.EntryGuard = memory.NewLatch()
	if cfg.EnableRedisGuard && strings.TrimSpace(cfg.RedisAddr) != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		guard = redisadapter.NewGuard(rdb, "guard:market-escrow", 30*time.Second)
	}

	// Asset custody, payments, and rarity scoring remain on in-memory
	// collaborators until the external registries are wired into bootstrap.
	assets := memory.NewAssetLedger()
	payments := memory.NewPaymentLedger(cfg.EscrowAccount)

	module := escrowengine.NewModule(escrowengine.Dependencies{
		Items:           repo,
		Assets:          assets,
		Royalties:       assets,
		Payments:        payments,
		Rarity:          memory.RarityScorer{},
		Guard:           guard,
		Clock:           postgresadapter.SystemClock{},
		IDGenerator:     postgresadapter.UUIDGenerator{},
		ListingFee:      cfg.ListingFee,
		GraceWindow:     window,
		EscrowAccount:   cfg.EscrowAccount,
		PlatformAccount: cfg.PlatformAccount,
		Logger:          logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errPostgresDSNRequired
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"relay_enabled", w.relayEnabled,
	)

	for {
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
