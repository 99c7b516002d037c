package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/aggregator"
	"github.com/spigell/job-radar/internal/dispatch"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted      Status = "completed"
	StatusNoPostings     Status = "no_postings"
	StatusNoMatches      Status = "no_matches"
	StatusOracleFailed   Status = "oracle_failed"
	StatusDispatchFailed Status = "dispatch_failed"
	StatusDeclined       Status = "declined"
	StatusFailed         Status = "failed"
)

// Successful reports whether the run ended without a run-level failure.
func (s Status) Successful() bool {
	switch s {
	case StatusCompleted, StatusNoPostings, StatusNoMatches, StatusDeclined:
		return true
	default:
		return false
	}
}

// Report summarizes one run. It is returned even when the run fails.
type Report struct {
	RunID  string
	Status Status

	Sources    []aggregator.AdapterReport
	Raw        int
	Rejected   int
	Duplicates int
	Postings   int

	Verdicts      int
	ParseFailures int
	Unmatched     int
	Filtered      int

	Dispatch *dispatch.Outcome
	DumpFile string

	StartedAt time.Time
	Duration  time.Duration
}

// Log writes the report as structured entries.
func (r *Report) Log(log *zap.Logger) {
	for _, src := range r.Sources {
		log.Info("source report",
			zap.String("source", src.Name),
			zap.String("status", string(src.Status)),
			zap.Int("raw", src.Raw),
			zap.Int("normalized", src.Normalized),
			zap.Int("rejected", len(src.Rejections)),
			zap.Strings("errors", src.Errors),
			zap.Duration("duration", src.Duration),
		)
	}

	fields := []zap.Field{
		zap.String("status", string(r.Status)),
		zap.Int("raw", r.Raw),
		zap.Int("rejected", r.Rejected),
		zap.Int("duplicates", r.Duplicates),
		zap.Int("postings", r.Postings),
		zap.Int("verdicts", r.Verdicts),
		zap.Int("parse_failures", r.ParseFailures),
		zap.Int("unmatched", r.Unmatched),
		zap.Int("filtered", r.Filtered),
		zap.Duration("duration", r.Duration),
	}
	if r.Dispatch != nil {
		fields = append(fields, zap.Stringer("dispatch", r.Dispatch))
	}
	if r.DumpFile != "" {
		fields = append(fields, zap.String("dump_file", r.DumpFile))
	}

	if r.Status.Successful() {
		log.Info("run finished", fields...)
		return
	}
	log.Error("run finished", fields...)
}
