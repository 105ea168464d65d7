package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/config"
	"ObituaryScanner/internal/domain"
	"ObituaryScanner/internal/extract"
	"ObituaryScanner/internal/infrastructure/parser"
	"ObituaryScanner/internal/infrastructure/rewrite"
	"ObituaryScanner/internal/infrastructure/scheduler"
	"ObituaryScanner/internal/infrastructure/storage"
	"ObituaryScanner/internal/infrastructure/telegram"
	"ObituaryScanner/internal/logging"
	"ObituaryScanner/internal/ports"
	"ObituaryScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	db         *sql.DB
	collector  *usecase.Collector
	scheduler  *usecase.Scheduler
	repository *storage.PostgresRepository
	logger     *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	fetcher := adapter.NewFetcher(nil, cfg.Collector.UserAgent, cfg.Collector.AcceptLang)

	registry := adapter.NewRegistry()
	registry.Register(parser.NewNetworkAdapter(fetcher))
	registry.Register(parser.NewChapelAdapter(fetcher))
	registry.Register(parser.NewPressAdapter(fetcher))
	registry.Register(parser.NewGenericAdapter(fetcher))

	sources := make([]domain.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		sources = append(sources, sc.ToSource())
	}

	repository := storage.NewPostgresRepository(db)

	var rewriter ports.Rewriter
	if cfg.Rewrite.APIKey != "" {
		rewriter = rewrite.NewClient(cfg.Rewrite)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	collector := usecase.NewCollector(usecase.CollectorDeps{
		Registry:    registry,
		Sources:     sources,
		Health:      storage.NewPostgresHealthStore(db),
		Repository:  repository,
		Suppression: repository,
		Images:      extract.NewImageChecker(nil, cfg.Collector.MinImageBytes),
		Rewriter:    rewriter,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "collector"),
		Options: usecase.Options{
			BanPatterns:          cfg.Collector.BanPatterns,
			ListingOnly:          cfg.Collector.ListingOnly,
			RunBudget:            cfg.Collector.Budget(),
			MaxAgeDays:           cfg.Collector.MaxAgeDays,
			NameOnlyWindowDays:   cfg.Collector.NameOnlyWindowDays,
			DisableAfterFailures: cfg.Collector.DisableAfterFailures,
			MaxConcurrentSources: cfg.Collector.MaxConcurrentSources,
		},
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())

	return &Application{
		cfg:        cfg,
		db:         db,
		collector:  collector,
		scheduler:  usecase.NewScheduler(driver, collector),
		repository: repository,
		logger:     baseLogger,
	}, nil
}

// RunOnce performs a single full collection run.
func (a *Application) RunOnce(ctx context.Context) error {
	_, err := a.collector.Collect(ctx)
	return err
}

// RunSource performs a single-source run on demand.
func (a *Application) RunSource(ctx context.Context, slug string) error {
	_, err := a.collector.CollectSource(ctx, slug)
	return err
}

// Suppress marks a stored record as removed-on-request.
func (a *Application) Suppress(ctx context.Context, id int64) error {
	return a.repository.Suppress(ctx, id)
}

// Serve starts the cron scheduler and blocks until the context ends.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)
	<-ctx.Done()
	return a.scheduler.Stop(context.Background())
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
