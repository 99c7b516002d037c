package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/job-radar/internal/posting"
)

// Adapter retrieves raw postings from one external origin. Implementations
// must not panic or return errors past Fetch: every failure is reported
// through the Outcome.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]posting.RawRecord, Outcome)
}

// Status classifies a fetch outcome.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusTotalFailure   Status = "total_failure"
)

// Outcome is the result of one adapter fetch.
type Outcome struct {
	Status Status
	Count  int
	// Errors holds per-query failures of a partial failure.
	Errors []error
	// Err is the cause of a total failure.
	Err error
}

func Success(count int) Outcome {
	return Outcome{Status: StatusSuccess, Count: count}
}

func PartialFailure(count int, errs []error) Outcome {
	return Outcome{Status: StatusPartialFailure, Count: count, Errors: errs}
}

func TotalFailure(err error) Outcome {
	return Outcome{Status: StatusTotalFailure, Err: err}
}

// Failed reports whether the adapter contributed nothing because of an error.
func (o Outcome) Failed() bool { return o.Status == StatusTotalFailure }

// Messages returns every error message of the outcome.
func (o Outcome) Messages() []string {
	var out []string
	if o.Err != nil {
		out = append(out, o.Err.Error())
	}
	for _, err := range o.Errors {
		out = append(out, err.Error())
	}
	return out
}

// Query is one keyword and location pair an adapter searches for.
type Query struct {
	Keyword  string
	Location string
}

func (q Query) String() string {
	switch {
	case q.Keyword == "" && q.Location == "":
		return "*"
	case q.Location == "":
		return q.Keyword
	case q.Keyword == "":
		return "@" + q.Location
	default:
		return q.Keyword + "@" + q.Location
	}
}

// Expand returns the keyword x location cartesian product. An empty side
// contributes a single empty value.
func Expand(keywords, locations []string) []Query {
	keywords = nonEmpty(keywords)
	locations = nonEmpty(locations)

	queries := make([]Query, 0, len(keywords)*len(locations))
	for _, k := range keywords {
		for _, l := range locations {
			queries = append(queries, Query{Keyword: k, Location: l})
		}
	}
	return queries
}

// QueryResult is what one query of an adapter produced.
type QueryResult struct {
	Query   Query
	Records []posting.RawRecord
	Err     error
}

// Collect folds per-query results into records and an outcome. Records of
// failed queries are still kept.
func Collect(results []QueryResult) ([]posting.RawRecord, Outcome) {
	if len(results) == 0 {
		return nil, Success(0)
	}

	var (
		records []posting.RawRecord
		errs    []error
	)
	for _, res := range results {
		records = append(records, res.Records...)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("query %s: %w", res.Query, res.Err))
		}
	}

	switch {
	case len(errs) == 0:
		return records, Success(len(records))
	case len(errs) == len(results) && len(records) == 0:
		return nil, TotalFailure(errors.Join(errs...))
	default:
		return records, PartialFailure(len(records), errs)
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}
