// Command series_report prints a per-series summary of the SQLite kline
// store: row counts, time span, and an estimate of missing buckets. Series
// are sparse-in-time by contract (absent months are skipped, not null-filled),
// so the gap estimate is how consumers see where the holes are.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"spotArchiver/config"
	"spotArchiver/internal/adapters/logger"
	"spotArchiver/internal/adapters/sqlite"
	"spotArchiver/internal/domain"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(logger.LevelWarn) // keep the table clean

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open SQLite repository: %v", err)
	}
	defer repo.Close()

	infos, err := repo.ListSeries(context.Background())
	if err != nil {
		log.Fatalf("FATAL: Failed to list series: %v", err)
	}
	if len(infos) == 0 {
		fmt.Println("No series stored.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tINTERVAL\tROWS\tFIRST\tLAST\tEST. GAPS")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			info.Symbol, info.Interval, info.Rows,
			info.First.Format(time.RFC3339), info.Last.Format(time.RFC3339),
			gapEstimate(info))
	}
	w.Flush()
}

// gapEstimate compares the actual row count against the number of buckets the
// span would hold at the nominal interval duration. Weeks and months use
// approximate durations, so the estimate is indicative, not exact.
func gapEstimate(info sqlite.SeriesInfo) string {
	d, err := domain.IntervalDuration(info.Interval)
	if err != nil || d <= 0 {
		return "n/a"
	}
	expected := int(info.Last.Sub(info.First)/d) + 1
	gaps := expected - info.Rows
	if gaps < 0 {
		gaps = 0
	}
	return fmt.Sprintf("%d", gaps)
}
