package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/aggregator"
	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/ai/scoring"
	"github.com/spigell/job-radar/internal/dispatch"
	"github.com/spigell/job-radar/internal/filtering"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/posting"
)

const dumpPattern = "job-radar-verdicts-*.json"

type Aggregator interface {
	Run(ctx context.Context) *aggregator.Result
}

type Scorer interface {
	Evaluate(ctx context.Context, postings []*posting.Posting, criteria string) (*scoring.Evaluation, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, summary string, count int) dispatch.Outcome
}

// ConfirmFunc is asked before dispatch. Returning false skips delivery.
type ConfirmFunc func(ctx context.Context, verdicts *ai.Verdicts) (bool, error)

type Options struct {
	Criteria string
	Deadline time.Duration
	Filters  []filtering.Filter
	Filter   *filtering.Config
	Confirm  ConfirmFunc
}

// Pipeline runs aggregation, scoring, filtering and dispatch once.
type Pipeline struct {
	aggregator Aggregator
	scorer     Scorer
	dispatcher Dispatcher
	opts       Options
	logger     *zap.Logger
}

func New(agg Aggregator, scorer Scorer, dispatcher Dispatcher, opts Options, log *zap.Logger) *Pipeline {
	if opts.Filters == nil {
		opts.Filters = filtering.Default()
	}
	if opts.Filter == nil {
		opts.Filter = &filtering.Config{Threshold: filtering.DefaultThreshold}
	}

	return &Pipeline{
		aggregator: agg,
		scorer:     scorer,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger.OrNop(log),
	}
}

// Run executes one pipeline pass. The report is always returned; the error
// is an *OracleCallError, a *DispatchError or a filtering failure.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := logger.WithRun(p.logger, report.RunID)

	if p.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Deadline)
		defer cancel()
	}

	err := p.run(ctx, log, report)
	report.Duration = time.Since(report.StartedAt)
	report.Log(log)

	return report, err
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, report *Report) error {
	if err := filtering.Prepare(p.opts.Filter, p.opts.Filters); err != nil {
		report.Status = StatusFailed
		return fmt.Errorf("filtering: %w", err)
	}
	filtering.LogStatus(log, p.opts.Filters)

	log.Info("aggregating postings")

	agg := p.aggregator.Run(ctx)
	report.Sources = agg.Reports
	report.Raw = agg.Raw
	report.Rejected = agg.Rejected
	report.Duplicates = agg.Duplicates
	report.Postings = len(agg.Postings)

	if agg.Empty() {
		log.Info("exiting", zap.String("reason", "no postings found"))
		report.Status = StatusNoPostings
		return nil
	}

	log.Info("scoring postings", zap.Int("postings", len(agg.Postings)))

	eval, err := p.scorer.Evaluate(ctx, agg.Postings, p.opts.Criteria)
	if err != nil {
		report.Status = StatusOracleFailed
		return err
	}
	report.Verdicts = eval.Verdicts.Len()
	report.ParseFailures = len(eval.ParseFailures)
	report.Unmatched = len(eval.Unmatched)

	filtered, err := filtering.Run(ctx, p.opts.Filter, filtering.Deps{Logger: log}, p.opts.Filters, eval.Verdicts)
	if err != nil {
		report.Status = StatusFailed
		return fmt.Errorf("filtering: %w", err)
	}
	report.Filtered = filtered.Len()

	if filtered.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no postings left after filters"))
		report.Status = StatusNoMatches
		return nil
	}

	if p.opts.Confirm != nil {
		ok, err := p.opts.Confirm(ctx, filtered)
		if err != nil {
			report.Status = StatusFailed
			return fmt.Errorf("confirmation: %w", err)
		}
		if !ok {
			log.Info("exiting", zap.String("reason", "dispatch declined"))
			report.Status = StatusDeclined
			return nil
		}
	}

	outcome := p.dispatcher.Dispatch(ctx, filtered.Summary(), filtered.Len())
	report.Dispatch = &outcome

	if outcome.Delivered() {
		report.Status = StatusCompleted
		return nil
	}

	report.Status = StatusDispatchFailed
	dispatchErr := &DispatchError{Status: outcome.Status, Body: outcome.Body, Err: outcome.Err}

	log.Warn("undelivered verdicts", zap.String("summary", filtered.Summary()))
	if file, err := posting.DumpToTmpFile(dumpPattern, filtered); err != nil {
		log.Error("dumping undelivered verdicts failed", zap.Error(err))
	} else {
		report.DumpFile = file
		dispatchErr.DumpFile = file
	}

	return dispatchErr
}
