package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/IshaanNene/NewsHound/internal/types"
)

func TestFailureClassification(t *testing.T) {
	m := NewMetrics()

	m.Failure(&types.FetchError{URL: "https://a.kr", StatusCode: 503, Err: errors.New("x")})
	m.Failure(fmt.Errorf("page: %w", types.ErrMaxRetries))
	m.Failure(types.ErrEmptyTitle)
	m.Failure(&types.AnalysisError{Provider: "openai", Err: errors.New("x")})
	m.Failure(&types.StorageError{Backend: "sqlite", Err: errors.New("x")})
	m.Failure(context.Canceled)
	m.Failure(nil)
	m.Failure(errors.New("something else"))

	got := m.Snapshot()
	want := Counters{
		FetchFailures:    2,
		ParseFailures:    1,
		AnalysisFailures: 1,
		StoreFailures:    1,
		Skipped:          1,
	}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
	if got.Failures() != 5 {
		t.Errorf("Failures() = %d, want 5", got.Failures())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	m := NewMetrics()
	m.Saved.Add(2)
	snap := m.Snapshot()
	m.Saved.Add(1)
	if snap.Saved != 2 {
		t.Errorf("snapshot changed to %d", snap.Saved)
	}
}
