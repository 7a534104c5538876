package main

import (
	"context"
	"flag"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"spotArchiver/config"
	"spotArchiver/internal/adapters/binanceclient"
	"spotArchiver/internal/adapters/csvstore"
	"spotArchiver/internal/adapters/logger"
	"spotArchiver/internal/adapters/postgres"
	"spotArchiver/internal/adapters/sqlite"
	"spotArchiver/internal/adapters/visionclient"
	"spotArchiver/internal/domain"
	"spotArchiver/internal/pipeline"
	"spotArchiver/internal/ports"
	"spotArchiver/internal/report"
	"spotArchiver/internal/symbols"
)

func main() {
	startFlag := flag.String("start", "", "start month YYYY-MM (inclusive, required)")
	endFlag := flag.String("end", "", "end month YYYY-MM (inclusive, required)")
	intervalFlag := flag.String("interval", "1h", "kline interval (1m, 5m, 1h, 1d, ...)")
	symbolsFlag := flag.String("symbols", "", "comma-separated base assets, e.g. BTC,ETH,SOL; empty auto-picks the most liquid pairs")
	dryFlag := flag.Bool("dry", false, "only print the planned downloads")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, syncLogger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer syncLogger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Validate run parameters (flag errors are configuration errors:
	// fatal before any processing)
	if *startFlag == "" || *endFlag == "" {
		log.Fatalf("FATAL: %v: -start and -end are required", ports.ErrConfiguration)
	}
	start, err := domain.ParseMonth(*startFlag)
	if err != nil {
		log.Fatalf("FATAL: %v: %v", ports.ErrConfiguration, err)
	}
	end, err := domain.ParseMonth(*endFlag)
	if err != nil {
		log.Fatalf("FATAL: %v: %v", ports.ErrConfiguration, err)
	}
	months, err := domain.MonthsBetween(start, end)
	if err != nil {
		log.Fatalf("FATAL: %v: %v", ports.ErrConfiguration, err)
	}
	if err := domain.ValidateInterval(*intervalFlag); err != nil {
		log.Fatalf("FATAL: %v: %v", ports.ErrConfiguration, err)
	}

	// 4. Resolve the instrument list
	instruments, err := resolveInstruments(ctx, cfg, appLogger, *symbolsFlag)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to resolve instrument list")
		log.Fatalf("FATAL: Failed to resolve instrument list: %v", err)
	}
	appLogger.Info(ctx, "Instruments resolved", map[string]interface{}{
		"instruments": instrumentSymbols(instruments), "months": len(months),
	})

	// 5. Initialize the archive host client
	visionClient, err := visionclient.New(visionclient.Config{
		BaseURL: cfg.VisionBaseURL,
		Timeout: cfg.FetchTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize archive host client")
		log.Fatalf("FATAL: Failed to initialize archive host client: %v", err)
	}

	// Dry run: print the fetch plan and exit
	if *dryFlag {
		for _, inst := range instruments {
			for _, m := range months {
				fmt.Println(visionClient.ArchiveURL(inst.Symbol, *intervalFlag, m))
			}
		}
		return
	}

	// 6. Initialize output sinks
	writers, closeSinks, err := buildWriters(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize output sinks")
		log.Fatalf("FATAL: Failed to initialize output sinks: %v", err)
	}
	defer closeSinks()

	// 7. Initialize and run the pipeline
	service, err := pipeline.NewService(pipeline.Config{
		Source:     visionClient,
		Writers:    writers,
		Logger:     appLogger,
		FetchPause: cfg.FetchPause,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize pipeline service")
		log.Fatalf("FATAL: Failed to initialize pipeline service: %v", err)
	}

	runID := uuid.NewString()
	appLogger.Info(ctx, "Starting archive run", map[string]interface{}{
		"runID": runID, "start": start.String(), "end": end.String(), "interval": *intervalFlag,
	})

	reports, runErr := service.Run(ctx, instruments, *intervalFlag, months)
	if runErr != nil {
		appLogger.Error(ctx, runErr, "Archive run aborted; writing partial manifest")
	}

	// 8. Write the run manifest
	manifest := report.Build(runID, start, end, *intervalFlag, reports)
	if path, err := manifest.Write(cfg.DataDir); err != nil {
		appLogger.Error(ctx, err, "Failed to write run manifest")
	} else {
		appLogger.Info(ctx, "Run manifest written", map[string]interface{}{"path": path})
	}

	for _, r := range reports {
		appLogger.Info(ctx, "Instrument summary", map[string]interface{}{
			"symbol":    r.Instrument.Symbol,
			"rows":      r.Rows,
			"succeeded": r.CountByStatus(pipeline.MonthSucceeded),
			"absent":    r.CountByStatus(pipeline.MonthAbsent),
			"failed":    r.CountByStatus(pipeline.MonthFailed),
			"written":   r.Written,
		})
	}

	if runErr != nil {
		syncLogger()
		os.Exit(1)
	}
	appLogger.Info(ctx, "Archive run finished")
}

func instrumentSymbols(instruments []domain.Instrument) []string {
	out := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, inst.Symbol)
	}
	return out
}

// buildLogger selects the text or JSON logger per LOG_FORMAT.
func buildLogger(cfg *config.Config) (ports.Logger, func(), error) {
	if cfg.LogFormat == "json" {
		zl, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		return zl, func() { _ = zl.Sync() }, nil
	}
	return logger.NewStdLogger(cfg.LogLevel), func() {}, nil
}

// resolveInstruments builds the instrument list: explicit bases when given,
// otherwise BTC and ETH plus the most liquid pairs from the 24h ticker.
func resolveInstruments(ctx context.Context, cfg *config.Config, appLogger ports.Logger, symbolsArg string) ([]domain.Instrument, error) {
	var bases []string
	if strings.TrimSpace(symbolsArg) != "" {
		for _, s := range strings.Split(symbolsArg, ",") {
			if s = strings.TrimSpace(s); s != "" {
				bases = append(bases, s)
			}
		}
	} else {
		tickerClient, err := binanceclient.New(binanceclient.Config{
			APIKey:    cfg.APIKey,
			SecretKey: cfg.SecretKey,
			Logger:    appLogger,
		})
		if err != nil {
			return nil, err
		}
		volumes, err := tickerClient.QuoteVolumes(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching 24h ticker statistics: %w", err)
		}
		picker := symbols.NewPicker(symbols.Config{QuoteAsset: cfg.QuoteAsset})
		picked := picker.TopBases(volumes, cfg.AutoPickCount, []string{"BTC", "ETH"})
		bases = append([]string{"BTC", "ETH"}, picked...)
		appLogger.Info(ctx, "Auto-picked instruments", map[string]interface{}{"bases": bases})
	}

	instruments := make([]domain.Instrument, 0, len(bases))
	for _, base := range bases {
		inst, err := domain.NewInstrument(base, cfg.QuoteAsset)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ports.ErrConfiguration, err)
		}
		instruments = append(instruments, inst)
	}
	return instruments, nil
}

// buildWriters composes the enabled persistence sinks.
func buildWriters(ctx context.Context, cfg *config.Config, appLogger ports.Logger) ([]ports.SeriesWriter, func(), error) {
	var writers []ports.SeriesWriter
	var closers []func()

	if cfg.EnableCSV {
		store, err := csvstore.New(csvstore.Config{Dir: cfg.DataDir, Logger: appLogger})
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, store)
	}
	if cfg.EnableSQLite {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, repo)
		closers = append(closers, func() {
			if err := repo.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing SQLite repository")
			}
		})
	}
	if cfg.EnablePostgres {
		store, err := postgres.New(ctx, postgres.Config{DSN: cfg.PostgresDSN, Logger: appLogger})
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, store)
		closers = append(closers, store.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return writers, closeAll, nil
}
