// Command monthly_sync keeps the archive store current: on a cron schedule it
// runs the ingestion pipeline for the previous (closed) calendar month over a
// configured instrument list. Only closed periods are ever requested.
package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"spotArchiver/config"
	"spotArchiver/internal/adapters/csvstore"
	"spotArchiver/internal/adapters/logger"
	"spotArchiver/internal/adapters/postgres"
	"spotArchiver/internal/adapters/sqlite"
	"spotArchiver/internal/adapters/visionclient"
	"spotArchiver/internal/domain"
	"spotArchiver/internal/pipeline"
	"spotArchiver/internal/ports"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		zl, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger: %v", err)
		}
		defer zl.Sync()
		appLogger = zl
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := domain.ValidateInterval(cfg.SyncInterval); err != nil {
		appLogger.Error(ctx, err, "FATAL: Invalid sync interval")
		log.Fatalf("FATAL: Invalid sync interval: %v", err)
	}
	instruments := make([]domain.Instrument, 0, len(cfg.SyncSymbols))
	for _, base := range cfg.SyncSymbols {
		inst, err := domain.NewInstrument(base, cfg.QuoteAsset)
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Invalid sync symbol", map[string]interface{}{"base": base})
			log.Fatalf("FATAL: Invalid sync symbol %q: %v", base, err)
		}
		instruments = append(instruments, inst)
	}

	// 3. Initialize collaborators
	visionClient, err := visionclient.New(visionclient.Config{
		BaseURL: cfg.VisionBaseURL,
		Timeout: cfg.FetchTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize archive host client: %v", err)
	}

	var writers []ports.SeriesWriter
	if cfg.EnableCSV {
		store, err := csvstore.New(csvstore.Config{Dir: cfg.DataDir, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize CSV store: %v", err)
		}
		writers = append(writers, store)
	}
	if cfg.EnableSQLite {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize SQLite repository: %v", err)
		}
		defer repo.Close()
		writers = append(writers, repo)
	}
	if cfg.EnablePostgres {
		store, err := postgres.New(ctx, postgres.Config{DSN: cfg.PostgresDSN, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Postgres store: %v", err)
		}
		defer store.Close()
		writers = append(writers, store)
	}

	service, err := pipeline.NewService(pipeline.Config{
		Source:     visionClient,
		Writers:    writers,
		Logger:     appLogger,
		FetchPause: cfg.FetchPause,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize pipeline service: %v", err)
	}

	// 4. Schedule the sync job. Runs never overlap: a tick that fires while
	// the previous run is still in flight is skipped.
	var running sync.Mutex
	syncJob := func() {
		if !running.TryLock() {
			appLogger.Warn(ctx, "Previous sync still running, skipping this tick")
			return
		}
		defer running.Unlock()

		month := domain.PreviousMonth(time.Now())
		appLogger.Info(ctx, "Starting monthly sync", map[string]interface{}{
			"month": month.String(), "interval": cfg.SyncInterval,
		})
		reports, err := service.Run(ctx, instruments, cfg.SyncInterval, []domain.Month{month})
		if err != nil {
			appLogger.Error(ctx, err, "Monthly sync aborted")
			return
		}
		for _, r := range reports {
			appLogger.Info(ctx, "Monthly sync instrument summary", map[string]interface{}{
				"symbol": r.Instrument.Symbol, "rows": r.Rows, "written": r.Written,
			})
		}
	}

	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.SyncCron, syncJob); err != nil {
		appLogger.Error(ctx, err, "FATAL: Invalid SYNC_CRON expression", map[string]interface{}{"cron": cfg.SyncCron})
		log.Fatalf("FATAL: Invalid SYNC_CRON expression %q: %v", cfg.SyncCron, err)
	}
	scheduler.Start()
	appLogger.Info(ctx, "Monthly sync scheduler started", map[string]interface{}{
		"cron": cfg.SyncCron, "instruments": len(instruments),
	})

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutting down monthly sync scheduler")
	<-scheduler.Stop().Done()
}
