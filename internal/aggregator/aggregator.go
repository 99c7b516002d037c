package aggregator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/posting"
	"github.com/spigell/job-radar/internal/source"
)

const DefaultAdapterTimeout = 2 * time.Minute

type Options struct {
	// MaxParallel bounds concurrent adapters. Zero runs all at once.
	MaxParallel int
	// Timeout applies to each adapter separately.
	Timeout time.Duration
	// Timeouts overrides Timeout by adapter name.
	Timeouts map[string]time.Duration
}

// AdapterReport describes what one adapter contributed.
type AdapterReport struct {
	Name       string
	Status     source.Status
	Raw        int
	Normalized int
	Rejections []*posting.Rejection
	Errors     []string
	Duration   time.Duration
}

// Result is the deduplicated output of every adapter.
type Result struct {
	Postings []*posting.Posting
	Reports  []AdapterReport

	Raw        int
	Rejected   int
	Normalized int
	// Duplicates is the number of postings merged away.
	Duplicates int
}

func (r *Result) Empty() bool { return len(r.Postings) == 0 }

type Aggregator struct {
	adapters   []source.Adapter
	normalizer *posting.Normalizer
	opts       Options
	logger     *zap.Logger
}

func New(adapters []source.Adapter, opts Options, log *zap.Logger) *Aggregator {
	log = logger.OrNop(log).Named("aggregator")
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAdapterTimeout
	}

	return &Aggregator{
		adapters:   adapters,
		normalizer: posting.NewNormalizer(log),
		opts:       opts,
		logger:     log,
	}
}

type fetched struct {
	records  []posting.RawRecord
	outcome  source.Outcome
	duration time.Duration
}

// Run fetches every adapter and returns the canonical posting set. Adapter
// failures are recorded in the result and never returned as an error.
func (a *Aggregator) Run(ctx context.Context) *Result {
	results := make([]fetched, len(a.adapters))

	g, gctx := errgroup.WithContext(ctx)
	if a.opts.MaxParallel > 0 {
		g.SetLimit(a.opts.MaxParallel)
	}

	for i, adapter := range a.adapters {
		g.Go(func() error {
			start := time.Now()
			records, outcome := a.fetch(gctx, adapter)
			results[i] = fetched{records: records, outcome: outcome, duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	return a.collect(results)
}

// fetch runs one adapter under its own timeout. A hung adapter is abandoned
// when the deadline passes.
func (a *Aggregator) fetch(ctx context.Context, adapter source.Adapter) ([]posting.RawRecord, source.Outcome) {
	log := logger.WithSource(a.logger, adapter.Name())

	timeout := a.opts.Timeout
	if t := a.opts.Timeouts[adapter.Name()]; t > 0 {
		timeout = t
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		records []posting.RawRecord
		outcome source.Outcome
	}
	done := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("adapter panicked", zap.Any("panic", r))
				done <- reply{outcome: source.TotalFailure(fmt.Errorf("adapter panicked: %v", r))}
			}
		}()

		records, outcome := adapter.Fetch(ctx)
		done <- reply{records: records, outcome: outcome}
	}()

	select {
	case r := <-done:
		if r.outcome.Failed() {
			log.Warn("adapter failed", zap.Error(r.outcome.Err))
			return nil, r.outcome
		}
		log.Info("adapter finished", zap.String("status", string(r.outcome.Status)), zap.Int("records", len(r.records)))
		return r.records, r.outcome
	case <-ctx.Done():
		log.Warn("adapter abandoned", zap.Error(ctx.Err()))
		return nil, source.TotalFailure(fmt.Errorf("adapter %s: %w", adapter.Name(), ctx.Err()))
	}
}

func (a *Aggregator) collect(results []fetched) *Result {
	res := &Result{Reports: make([]AdapterReport, 0, len(results))}
	var all []*posting.Posting

	for i, f := range results {
		name := a.adapters[i].Name()
		postings, rejections := a.normalizer.NormalizeBatch(f.records, name)

		res.Reports = append(res.Reports, AdapterReport{
			Name:       name,
			Status:     f.outcome.Status,
			Raw:        len(f.records),
			Normalized: len(postings),
			Rejections: rejections,
			Errors:     f.outcome.Messages(),
			Duration:   f.duration,
		})

		res.Raw += len(f.records)
		res.Rejected += len(rejections)
		all = append(all, postings...)
	}

	res.Normalized = len(all)
	res.Postings = posting.Dedupe(all)
	res.Duplicates = res.Normalized - len(res.Postings)

	a.logger.Info("aggregation finished",
		zap.Int("raw", res.Raw),
		zap.Int("rejected", res.Rejected),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("postings", len(res.Postings)),
	)

	return res
}
