// Package report produces the per-run YAML manifest: the operator-facing
// summary of what each instrument yielded, derived entirely from the
// pipeline's month outcomes.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"spotArchiver/internal/domain"
	"spotArchiver/internal/pipeline"
)

// Manifest is the YAML document written next to the output files after a run.
type Manifest struct {
	RunID       string              `yaml:"run_id"`
	GeneratedAt time.Time           `yaml:"generated_at"`
	Start       string              `yaml:"start"`
	End         string              `yaml:"end"`
	Interval    string              `yaml:"interval"`
	Instruments []InstrumentSummary `yaml:"instruments"`
}

// InstrumentSummary aggregates one instrument's month outcomes.
type InstrumentSummary struct {
	Symbol          string   `yaml:"symbol"`
	Base            string   `yaml:"base"`
	Rows            int      `yaml:"rows"`
	MonthsSucceeded int      `yaml:"months_succeeded"`
	MonthsAbsent    int      `yaml:"months_absent"`
	MonthsFailed    int      `yaml:"months_failed"`
	DetectedUnits   []string `yaml:"detected_units,omitempty"`
	Written         bool     `yaml:"written"`
	NoData          bool     `yaml:"no_data"`
}

// Build assembles a manifest from the pipeline reports. Instruments that
// produced nothing are included; their summary says so.
func Build(runID string, start, end domain.Month, interval string, reports []*pipeline.InstrumentReport) *Manifest {
	m := &Manifest{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Start:       start.String(),
		End:         end.String(),
		Interval:    interval,
		Instruments: make([]InstrumentSummary, 0, len(reports)),
	}
	for _, r := range reports {
		m.Instruments = append(m.Instruments, InstrumentSummary{
			Symbol:          r.Instrument.Symbol,
			Base:            r.Instrument.Base,
			Rows:            r.Rows,
			MonthsSucceeded: r.CountByStatus(pipeline.MonthSucceeded),
			MonthsAbsent:    r.CountByStatus(pipeline.MonthAbsent),
			MonthsFailed:    r.CountByStatus(pipeline.MonthFailed),
			DetectedUnits:   r.Units(),
			Written:         r.Written,
			NoData:          r.Rows == 0,
		})
	}
	return m
}

// Write renders the manifest as manifest.yaml inside dir.
func (m *Manifest) Write(dir string) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing manifest to %q: %w", path, err)
	}
	return path, nil
}
