package monitor

import (
	"time"

	"github.com/google/uuid"

	"github.com/gilsentrycs/monitor-flights/quotes"
)

// RunContext carries the counters and results of one scan through every stage.
type RunContext struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// APICalls counts every request sent to the search API, failed ones included.
	APICalls    int
	CacheHits   int
	FailedCalls int
	Candidates  int
	Sampled     int

	Records   []quotes.QuoteRecord
	LastError error
}

// NewRunContext starts a run with a fresh id
func NewRunContext(startedAt time.Time) *RunContext {
	return &RunContext{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		Records:   []quotes.QuoteRecord{},
	}
}

func (rc *RunContext) finish(at time.Time) {
	rc.FinishedAt = at
}

// Duration is the wall time of the run so far
func (rc *RunContext) Duration() time.Duration {
	if rc.FinishedAt.IsZero() {
		return 0
	}
	return rc.FinishedAt.Sub(rc.StartedAt)
}

// Attempts is the number of searches tried, from the API or the cache
func (rc *RunContext) Attempts() int {
	return rc.APICalls + rc.CacheHits
}

// AllFailed reports a run where searches were attempted and none succeeded
func (rc *RunContext) AllFailed() bool {
	return rc.FailedCalls > 0 && rc.FailedCalls == rc.Attempts()
}

// Status is a short label for metrics and run history
func (rc *RunContext) Status() string {
	switch {
	case rc.AllFailed():
		return "failed"
	case rc.FailedCalls > 0:
		return "partial"
	default:
		return "ok"
	}
}
