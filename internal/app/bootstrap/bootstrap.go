package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	leaderboardservice "turnboard/contexts/turnover/leaderboard-service"
	postgresadapter "turnboard/contexts/turnover/leaderboard-service/adapters/postgres"
	workerapp "turnboard/contexts/turnover/leaderboard-service/application/workers"
	"turnboard/internal/platform/config"
	"turnboard/internal/platform/db"
	"turnboard/internal/platform/httpserver"
	"turnboard/internal/platform/messaging"
	"turnboard/internal/platform/notify"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	outboxRelay   workerapp.OutboxRelay
	notifications workerapp.NotificationConsumer
	relayEnabled  bool
	notifyEnabled bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := leaderboardservice.NewModule(leaderboardservice.Dependencies{
		Batches:   repo,
		Records:   repo,
		Synthetic: repo,
		Outbox:    repo,
		Clock:     postgresadapter.SystemClock{},
		IDGen:     postgresadapter.UUIDGenerator{},
		Logger:    logger,
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
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	telegram := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramTopicID, logger)

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxRelayBatchSize,
			Logger:    logger,
		},
		notifications: workerapp.NotificationConsumer{
			Subscriber:    kafka,
			Notifier:      telegram,
			ConsumerGroup: "turnover-notifications-cg",
			Logger:        logger,
		},
		relayEnabled:  cfg.EnableOutboxRelay,
		notifyEnabled: cfg.EnableNotifications && telegram.Enabled(),
		pollInterval:  cfg.WorkerPollInterval,
		logger:        logger,
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
	if w.notifyEnabled {
		if err := w.notifications.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"relay_enabled", w.relayEnabled,
		"notify_enabled", w.notifyEnabled,
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
