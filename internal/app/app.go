package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"DjenScanner/internal/config"
	"DjenScanner/internal/httpapi"
	"DjenScanner/internal/infrastructure/djen"
	"DjenScanner/internal/infrastructure/scheduler"
	"DjenScanner/internal/infrastructure/storage"
	"DjenScanner/internal/infrastructure/webhook"
	"DjenScanner/internal/logging"
	"DjenScanner/internal/ports"
	"DjenScanner/internal/textproc"
	"DjenScanner/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	server    *http.Server
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance. The only fatal path is missing
// required configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := storage.NewPostgresRepository(db, cfg.Database, baseLogger.With("component", "storage"))
	processor := textproc.NewProcessor(cfg.Lawyer.Name, baseLogger.With("component", "textproc"))
	source := djen.NewClient(cfg.API, cfg.Lawyer, nil, baseLogger.With("component", "djen"))
	store := usecase.NewStoreGateway(repo, baseLogger.With("component", "store"))

	extractor := usecase.NewExtractor(usecase.ExtractorDeps{
		Source:    source,
		Repo:      repo,
		Store:     store,
		Processor: processor,
		Logger:    baseLogger.With("component", "extractor"),
	})

	var notifier ports.Notifier
	if cfg.Webhook.URL != "" {
		notifier = webhook.NewNotifier(cfg.Webhook.URL, baseLogger.With("component", "webhook"))
	}

	cronDriver := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		baseLogger.With("component", "cron"),
	)

	apiServer := httpapi.NewServer(httpapi.ServerDeps{
		Extractor:   extractor,
		Repo:        repo,
		Processor:   processor,
		Scheduler:   cronDriver,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      baseLogger.With("component", "httpapi"),
	})

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: apiServer.Handler(),
		},
		scheduler: usecase.NewScheduler(cronDriver, extractor, notifier, baseLogger.With("component", "scheduler")),
	}, nil
}

// Run starts the scheduler and HTTP server, blocking until the context is
// cancelled, then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := a.db.PingContext(pingCtx); err != nil {
		a.logger.Warn("database not reachable at startup", "error", err)
	}
	cancel()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler stop", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("database close", "error", err)
	}

	return nil
}
