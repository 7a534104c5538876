package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"spotArchiver/internal/archive"
	"spotArchiver/internal/domain"
	"spotArchiver/internal/ports"
	"spotArchiver/internal/series"
)

// MonthStatus is the outcome classification of one instrument-month attempt.
type MonthStatus string

const (
	// MonthSucceeded means the archive was fetched and decoded; the month
	// contributed Rows candles (possibly zero).
	MonthSucceeded MonthStatus = "succeeded"
	// MonthAbsent means the host confirmed no archive exists for the period.
	MonthAbsent MonthStatus = "absent"
	// MonthFailed means transport or decoding failed; the month contributed
	// nothing and the run continued.
	MonthFailed MonthStatus = "failed"
)

// MonthOutcome records what happened to one instrument-month.
type MonthOutcome struct {
	Month  domain.Month
	Status MonthStatus
	Rows   int             // candles contributed after per-month normalization
	Unit   domain.TimeUnit // detected timestamp unit (succeeded months only)
	Err    error           // cause (failed months only)
}

// InstrumentReport summarizes one instrument's run for the manifest.
type InstrumentReport struct {
	Instrument domain.Instrument
	Rows       int // rows in the final merged series
	Outcomes   []MonthOutcome
	Written    bool // at least one sink accepted the series
	SinkErrors int  // sinks that failed to persist the series
}

// CountByStatus returns how many months ended in the given status.
func (r *InstrumentReport) CountByStatus(status MonthStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Units returns the distinct timestamp units detected across succeeded
// months, in first-seen order.
func (r *InstrumentReport) Units() []string {
	seen := make(map[string]bool)
	var units []string
	for _, o := range r.Outcomes {
		if o.Status != MonthSucceeded {
			continue
		}
		u := o.Unit.String()
		if !seen[u] {
			seen[u] = true
			units = append(units, u)
		}
	}
	return units
}

// Config holds the collaborators and tuning of the pipeline service.
type Config struct {
	Source  ports.ArchiveSource
	Writers []ports.SeriesWriter
	Logger  ports.Logger
	// FetchPause is the minimum delay enforced between successive fetches
	// after a data-bearing month, to be polite to the shared archive host.
	FetchPause time.Duration
}

// Service drives the fetch → decode → normalize → merge flow. Instruments and
// months are processed strictly sequentially; the per-instrument accumulator
// is owned by the service for the duration of that instrument's run and never
// shared.
type Service struct {
	source  ports.ArchiveSource
	decoder *archive.Decoder
	writers []ports.SeriesWriter
	logger  ports.Logger
	limiter *rate.Limiter
}

// NewService creates the pipeline service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("archive source is required for pipeline service")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for pipeline service")
	}
	pause := cfg.FetchPause
	if pause <= 0 {
		pause = 250 * time.Millisecond
	}
	decoder, err := archive.NewDecoder(cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		source:  cfg.Source,
		decoder: decoder,
		writers: cfg.Writers,
		logger:  cfg.Logger,
		limiter: rate.NewLimiter(rate.Every(pause), 1),
	}, nil
}

// Run processes every instrument over the given month sequence and returns a
// report per instrument. A fully failed instrument never blocks the others;
// only context cancellation aborts the run, returning the partial reports.
func (s *Service) Run(ctx context.Context, instruments []domain.Instrument, interval string, months []domain.Month) ([]*InstrumentReport, error) {
	reports := make([]*InstrumentReport, 0, len(instruments))
	for _, inst := range instruments {
		report, err := s.runInstrument(ctx, inst, interval, months)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (s *Service) runInstrument(ctx context.Context, inst domain.Instrument, interval string, months []domain.Month) (*InstrumentReport, error) {
	report := &InstrumentReport{Instrument: inst}
	var monthly [][]*domain.Candle

	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
		}

		outcome := s.processMonth(ctx, inst, interval, month)
		report.Outcomes = append(report.Outcomes, outcome.MonthOutcome)

		switch outcome.Status {
		case MonthAbsent:
			s.logger.Info(ctx, "No archive for period, skipping", map[string]interface{}{
				"symbol": inst.Symbol, "month": month.String(),
			})
		case MonthFailed:
			s.logger.Error(ctx, outcome.Err, "Month failed, continuing with next", map[string]interface{}{
				"symbol": inst.Symbol, "month": month.String(),
			})
		case MonthSucceeded:
			s.logger.Info(ctx, "Month decoded", map[string]interface{}{
				"symbol": inst.Symbol,
				"month":  month.String(),
				"rows":   outcome.Rows,
				"unit":   outcome.Unit.String(),
			})
			if outcome.Rows > 0 {
				monthly = append(monthly, outcome.candles)
				// Pace the next request to the shared archive host.
				if err := s.limiter.Wait(ctx); err != nil {
					return report, fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
				}
			}
		}
	}

	merged := series.Merge(monthly)
	report.Rows = len(merged)
	if len(merged) == 0 {
		s.logger.Warn(ctx, "No data for instrument over requested range, skipping output", map[string]interface{}{
			"symbol": inst.Symbol,
		})
		return report, nil
	}

	out := &domain.Series{Instrument: inst, Interval: interval, Candles: merged}
	for _, w := range s.writers {
		if err := w.WriteSeries(ctx, out); err != nil {
			report.SinkErrors++
			s.logger.Error(ctx, err, "Failed to persist series", map[string]interface{}{
				"symbol": inst.Symbol, "rows": len(merged),
			})
			continue
		}
		report.Written = true
	}
	return report, nil
}

// monthResult is the internal tagged outcome of one fetch-decode cycle.
type monthResult struct {
	MonthOutcome
	candles []*domain.Candle
}

// processMonth performs one fetch-decode cycle and classifies the result as
// absent, failed, or succeeded. The raw archive bytes live only for the
// duration of this call.
func (s *Service) processMonth(ctx context.Context, inst domain.Instrument, interval string, month domain.Month) monthResult {
	res := monthResult{MonthOutcome: MonthOutcome{Month: month}}

	data, err := s.source.FetchMonthlyArchive(ctx, inst.Symbol, interval, month)
	if err != nil {
		if errors.Is(err, ports.ErrArchiveNotFound) {
			res.Status = MonthAbsent
			return res
		}
		res.Status = MonthFailed
		res.Err = fmt.Errorf("fetching archive: %w", err)
		return res
	}

	decoded, err := s.decoder.DecodeMonthArchive(ctx, data)
	if err != nil {
		res.Status = MonthFailed
		res.Err = fmt.Errorf("decoding archive: %w", err)
		return res
	}

	res.Status = MonthSucceeded
	res.Unit = decoded.Unit
	res.candles = series.Normalize(decoded.Candles)
	res.Rows = len(res.candles)
	return res
}
