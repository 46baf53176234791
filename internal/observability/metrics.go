package observability

import (
	"log/slog"
	"sync/atomic"

	"github.com/IshaanNene/NewsHound/internal/types"
)

// Metrics tracks the progress of a scrape run.
type Metrics struct {
	Pages      atomic.Int64
	Processed  atomic.Int64
	Saved      atomic.Int64
	Duplicates atomic.Int64
	Skipped    atomic.Int64

	// Failures by class
	FetchFailures    atomic.Int64
	ParseFailures    atomic.Int64
	AnalysisFailures atomic.Int64
	StoreFailures    atomic.Int64
}

// Counters is a point-in-time copy of Metrics.
type Counters struct {
	Pages            int64 `json:"pages"`
	Processed        int64 `json:"processed"`
	Saved            int64 `json:"saved"`
	Duplicates       int64 `json:"duplicates"`
	Skipped          int64 `json:"skipped"`
	FetchFailures    int64 `json:"fetch_failures"`
	ParseFailures    int64 `json:"parse_failures"`
	AnalysisFailures int64 `json:"analysis_failures"`
	StoreFailures    int64 `json:"store_failures"`
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Failure counts err under its failure class. Canceled operations are not
// counted.
func (m *Metrics) Failure(err error) {
	switch types.Kind(err) {
	case types.KindNone, types.KindCanceled:
	case types.KindNetwork:
		m.FetchFailures.Add(1)
	case types.KindParse:
		m.ParseFailures.Add(1)
	case types.KindAnalysis:
		m.AnalysisFailures.Add(1)
	case types.KindPersistence:
		m.StoreFailures.Add(1)
	default:
		m.Skipped.Add(1)
	}
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Counters {
	return Counters{
		Pages:            m.Pages.Load(),
		Processed:        m.Processed.Load(),
		Saved:            m.Saved.Load(),
		Duplicates:       m.Duplicates.Load(),
		Skipped:          m.Skipped.Load(),
		FetchFailures:    m.FetchFailures.Load(),
		ParseFailures:    m.ParseFailures.Load(),
		AnalysisFailures: m.AnalysisFailures.Load(),
		StoreFailures:    m.StoreFailures.Load(),
	}
}

// Failures is the sum of all failure counters.
func (c Counters) Failures() int64 {
	return c.FetchFailures + c.ParseFailures + c.AnalysisFailures + c.StoreFailures
}

// LogValue implements slog.LogValuer.
func (c Counters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("pages", c.Pages),
		slog.Int64("processed", c.Processed),
		slog.Int64("saved", c.Saved),
		slog.Int64("duplicates", c.Duplicates),
		slog.Int64("skipped", c.Skipped),
		slog.Int64("fetch_failures", c.FetchFailures),
		slog.Int64("parse_failures", c.ParseFailures),
		slog.Int64("analysis_failures", c.AnalysisFailures),
		slog.Int64("store_failures", c.StoreFailures),
	)
}
