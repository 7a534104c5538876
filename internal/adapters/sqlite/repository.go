package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"spotArchiver/internal/domain"
	"spotArchiver/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.SeriesWriter interface using SQLite and
// exposes the query surface the report tool reads from.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/klines.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %w", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("%w: failed to ping database at '%s': %w", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS klines (
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		open_time INTEGER NOT NULL, -- Unix milliseconds, UTC
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (symbol, interval, open_time)
	);
	CREATE INDEX IF NOT EXISTS idx_klines_symbol_interval ON klines (symbol, interval);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("%w: failed to execute schema initialization: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// WriteSeries upserts the whole series in one transaction. INSERT OR REPLACE
// keyed on (symbol, interval, open_time) makes re-running a month range
// idempotent.
func (r *Repository) WriteSeries(ctx context.Context, series *domain.Series) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction for %s: %w", ports.ErrUpdateFailed, series.Instrument.Symbol, err)
	}
	defer tx.Rollback()

	const query = `
	INSERT OR REPLACE INTO klines (symbol, interval, open_time, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: preparing insert for %s: %w", ports.ErrUpdateFailed, series.Instrument.Symbol, err)
	}
	defer stmt.Close()

	for _, c := range series.Candles {
		_, err := stmt.ExecContext(ctx,
			series.Instrument.Symbol, series.Interval, c.OpenTime.UnixMilli(),
			c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("%w: inserting kline for %s at %s: %w",
				ports.ErrUpdateFailed, series.Instrument.Symbol, c.OpenTime, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing series for %s: %w", ports.ErrUpdateFailed, series.Instrument.Symbol, err)
	}
	r.logger.Info(ctx, "Series written to SQLite", map[string]interface{}{
		"symbol": series.Instrument.Symbol, "interval": series.Interval, "rows": len(series.Candles),
	})
	return nil
}

// FindBySymbol retrieves the stored candles for a symbol and interval,
// ordered by open time ascending.
func (r *Repository) FindBySymbol(ctx context.Context, symbol, interval string) ([]*domain.Candle, error) {
	const query = `
	SELECT open_time, open, high, low, close, volume
	FROM klines
	WHERE symbol = ? AND interval = ?
	ORDER BY open_time ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("%w: querying klines for %s: %w", ports.ErrQueryFailed, symbol, err)
	}
	defer rows.Close()

	var candles []*domain.Candle
	for rows.Next() {
		var openTimeMs int64
		c := &domain.Candle{}
		if err := rows.Scan(&openTimeMs, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("%w: scanning kline for %s: %w", ports.ErrQueryFailed, symbol, err)
		}
		c.OpenTime = time.UnixMilli(openTimeMs).UTC()
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating klines for %s: %w", ports.ErrQueryFailed, symbol, err)
	}
	return candles, nil
}

// SeriesInfo summarizes one stored (symbol, interval) series.
type SeriesInfo struct {
	Symbol   string
	Interval string
	Rows     int
	First    time.Time
	Last     time.Time
}

// ListSeries returns a summary of every stored series, ordered by symbol then
// interval.
func (r *Repository) ListSeries(ctx context.Context) ([]SeriesInfo, error) {
	const query = `
	SELECT symbol, interval, COUNT(*), MIN(open_time), MAX(open_time)
	FROM klines
	GROUP BY symbol, interval
	ORDER BY symbol, interval`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing series: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var infos []SeriesInfo
	for rows.Next() {
		var info SeriesInfo
		var firstMs, lastMs int64
		if err := rows.Scan(&info.Symbol, &info.Interval, &info.Rows, &firstMs, &lastMs); err != nil {
			return nil, fmt.Errorf("%w: scanning series summary: %w", ports.ErrQueryFailed, err)
		}
		info.First = time.UnixMilli(firstMs).UTC()
		info.Last = time.UnixMilli(lastMs).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating series summaries: %w", ports.ErrQueryFailed, err)
	}
	return infos, nil
}
