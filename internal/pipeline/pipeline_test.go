package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/aggregator"
	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/ai/scoring"
	"github.com/spigell/job-radar/internal/dispatch"
	"github.com/spigell/job-radar/internal/filtering"
	"github.com/spigell/job-radar/internal/posting"
	"github.com/spigell/job-radar/internal/source"
)

type stubAdapter struct {
	name    string
	records []posting.RawRecord
	outcome source.Outcome
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(context.Context) ([]posting.RawRecord, source.Outcome) {
	return s.records, s.outcome
}

type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) GenerateContent(context.Context, string, string) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubGenerator) Provider() string { return "stub" }
func (s *stubGenerator) Model() string    { return "stub-1" }

type countingDispatcher struct {
	calls   int
	summary string
	count   int
	outcome dispatch.Outcome
}

func (d *countingDispatcher) Dispatch(_ context.Context, summary string, count int) dispatch.Outcome {
	d.calls++
	d.summary = summary
	d.count = count
	return d.outcome
}

func twoPostings() []source.Adapter {
	return []source.Adapter{
		&stubAdapter{name: "a", outcome: source.Success(2), records: []posting.RawRecord{
			{"title": "Data Analyst", "company": "Acme", "link": "https://acme.example.com/jobs/1"},
			{"title": "Office Manager", "company": "Globex", "link": "https://globex.example.com/jobs/2"},
		}},
	}
}

const mixedResponse = "1. Data Analyst at Acme\nScore: 85/100\nRecommendation: Apply.\n\n" +
	"2. Office Manager at Globex\nScore: 42\nRecommendation: Skip.\n\n" +
	"Both roles were reviewed."

func newPipeline(adapters []source.Adapter, gen *stubGenerator, d Dispatcher, opts Options) *Pipeline {
	agg := aggregator.New(adapters, aggregator.Options{}, zap.NewNop())
	return New(agg, scoring.New(gen, zap.NewNop(), 0), d, opts, zap.NewNop())
}

func TestRunCompleted(t *testing.T) {
	gen := &stubGenerator{response: mixedResponse}
	d := &countingDispatcher{outcome: dispatch.Outcome{Result: dispatch.Delivered, Status: http.StatusOK}}

	report, err := newPipeline(twoPostings(), gen, d, Options{}).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, StatusCompleted, report.Status)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, 2, report.Postings)
	require.Equal(t, 2, report.Verdicts)
	require.Equal(t, 1, report.Filtered)

	require.Equal(t, 1, d.calls)
	require.Equal(t, 1, d.count)
	require.Equal(t, "1. Data Analyst at Acme\nScore: 85/100\nRecommendation: Apply.", d.summary)
}

func TestRunAllSourcesFailed(t *testing.T) {
	adapters := []source.Adapter{
		&stubAdapter{name: "a", outcome: source.TotalFailure(errors.New("403"))},
		&stubAdapter{name: "b", outcome: source.TotalFailure(errors.New("timeout"))},
	}
	gen := &stubGenerator{}
	d := &countingDispatcher{}

	report, err := newPipeline(adapters, gen, d, Options{}).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, StatusNoPostings, report.Status)
	require.True(t, report.Status.Successful())
	require.Zero(t, report.Postings)
	require.Zero(t, gen.calls)
	require.Zero(t, d.calls)
	require.Len(t, report.Sources, 2)
}

func TestRunNoMatchesSkipsDispatch(t *testing.T) {
	gen := &stubGenerator{response: "Score: 10\n\nScore: 79"}
	d := &countingDispatcher{}

	report, err := newPipeline(twoPostings(), gen, d, Options{}).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, StatusNoMatches, report.Status)
	require.Equal(t, 2, report.Verdicts)
	require.Zero(t, report.Filtered)
	require.Zero(t, d.calls)
}

func TestRunSinkRejection(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("zap failed: upstream timeout"))
	}))
	defer srv.Close()

	gen := &stubGenerator{response: mixedResponse}
	report, err := newPipeline(twoPostings(), gen, dispatch.New(srv.URL, 0, nil), Options{}).Run(context.Background())

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	require.Equal(t, http.StatusInternalServerError, dispatchErr.Status)
	require.Equal(t, "zap failed: upstream timeout", dispatchErr.Body)

	require.Equal(t, StatusDispatchFailed, report.Status)
	require.Equal(t, 1, report.Filtered)
	require.NotEmpty(t, report.DumpFile)

	data, readErr := os.ReadFile(report.DumpFile)
	require.NoError(t, readErr)
	require.Contains(t, string(data), "https://acme.example.com/jobs/1")
}

func TestRunOracleFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("401 unauthorized")}
	d := &countingDispatcher{}

	report, err := newPipeline(twoPostings(), gen, d, Options{}).Run(context.Background())

	var callErr *OracleCallError
	require.ErrorAs(t, err, &callErr)
	require.Equal(t, StatusOracleFailed, report.Status)
	require.False(t, report.Status.Successful())
	require.Equal(t, 2, report.Postings)
	require.Zero(t, d.calls)
}

func TestRunDeclined(t *testing.T) {
	gen := &stubGenerator{response: mixedResponse}
	d := &countingDispatcher{}

	var asked int
	opts := Options{
		Filter: &filtering.Config{Threshold: 40},
		Confirm: func(_ context.Context, v *ai.Verdicts) (bool, error) {
			asked = v.Len()
			return false, nil
		},
	}

	report, err := newPipeline(twoPostings(), gen, d, opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusDeclined, report.Status)
	require.Equal(t, 2, asked)
	require.Zero(t, d.calls)
}

func TestRunInvalidFilterConfigFailsBeforeAggregation(t *testing.T) {
	gen := &stubGenerator{response: mixedResponse}
	d := &countingDispatcher{}

	report, err := newPipeline(twoPostings(), gen, d, Options{Filter: &filtering.Config{Threshold: 101}}).Run(context.Background())
	require.ErrorContains(t, err, "minimum_score")
	require.Equal(t, StatusFailed, report.Status)
	require.Zero(t, report.Raw)
	require.Zero(t, gen.calls)
	require.Zero(t, d.calls)
}

func TestRunZeroThresholdKeepsEveryVerdict(t *testing.T) {
	gen := &stubGenerator{response: "Score: 10\n\nScore: 0"}
	d := &countingDispatcher{outcome: dispatch.Outcome{Result: dispatch.Delivered, Status: http.StatusOK}}

	report, err := newPipeline(twoPostings(), gen, d, Options{Filter: &filtering.Config{Threshold: 0}}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, report.Status)
	require.Equal(t, 2, report.Filtered)
	require.Equal(t, 2, d.count)
}

func TestRunSkipsDisabledCompanyFilter(t *testing.T) {
	gen := &stubGenerator{response: mixedResponse}
	d := &countingDispatcher{outcome: dispatch.Outcome{Result: dispatch.Delivered, Status: http.StatusOK}}

	steps := filtering.Default()
	require.True(t, filtering.DisableByName(steps, "excluded_companies", "disabled in config"))

	opts := Options{
		Filters: steps,
		Filter:  &filtering.Config{Threshold: 80, ExcludedCompanies: []string{"Acme"}},
	}
	report, err := newPipeline(twoPostings(), gen, d, opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, report.Status)
	require.Equal(t, 1, report.Filtered)
}
