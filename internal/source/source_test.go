package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/time/rate"

	"github.com/spigell/job-radar/internal/posting"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		keywords  []string
		locations []string
		expect    []string
	}{
		{name: "cartesian", keywords: []string{"analytics", "data"}, locations: []string{"Remote", "NYC"}, expect: []string{"analytics@Remote", "analytics@NYC", "data@Remote", "data@NYC"}},
		{name: "no locations", keywords: []string{"analytics"}, expect: []string{"analytics"}},
		{name: "no keywords", locations: []string{" NYC "}, expect: []string{"@NYC"}},
		{name: "nothing", expect: []string{"*"}},
		{name: "blank values dropped", keywords: []string{"", "sql", "  "}, expect: []string{"sql"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			queries := Expand(tc.keywords, tc.locations)
			if len(queries) != len(tc.expect) {
				t.Fatalf("expected %d queries, got %d (%v)", len(tc.expect), len(queries), queries)
			}
			for i, q := range queries {
				if q.String() != tc.expect[i] {
					t.Fatalf("query %d: expected %q, got %q", i, tc.expect[i], q.String())
				}
			}
		})
	}
}

func TestCollect(t *testing.T) {
	record := posting.RawRecord{"title": "A"}
	boom := errors.New("boom")

	records, outcome := Collect([]QueryResult{
		{Query: Query{Keyword: "a"}, Records: []posting.RawRecord{record}},
		{Query: Query{Keyword: "b"}, Records: []posting.RawRecord{record}},
	})
	if outcome.Status != StatusSuccess || outcome.Count != 2 || len(records) != 2 {
		t.Fatalf("unexpected success outcome: %+v", outcome)
	}

	records, outcome = Collect([]QueryResult{
		{Query: Query{Keyword: "a"}, Records: []posting.RawRecord{record}},
		{Query: Query{Keyword: "b"}, Err: boom},
	})
	if outcome.Status != StatusPartialFailure || outcome.Count != 1 || len(outcome.Errors) != 1 || len(records) != 1 {
		t.Fatalf("unexpected partial outcome: %+v", outcome)
	}
	if !errors.Is(outcome.Errors[0], boom) || !strings.Contains(outcome.Errors[0].Error(), "query b") {
		t.Fatalf("expected wrapped query error, got %v", outcome.Errors[0])
	}

	records, outcome = Collect([]QueryResult{
		{Query: Query{Keyword: "a"}, Err: boom},
		{Query: Query{Keyword: "b"}, Err: boom},
	})
	if !outcome.Failed() || records != nil || !errors.Is(outcome.Err, boom) {
		t.Fatalf("unexpected total failure outcome: %+v", outcome)
	}
	if len(outcome.Messages()) != 1 {
		t.Fatalf("expected joined error message, got %v", outcome.Messages())
	}
}

func TestHTTPClientGet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("User-Agent") != "job-radar-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><body><h1>ok</h1></body></html>"))
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPOptions{UserAgent: "job-radar-test"})
	defer client.Close()

	doc, err := client.Document(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "ok" {
		t.Fatalf("unexpected heading %q", got)
	}

	if _, err := client.Get(context.Background(), srv.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected bad status error, got %v", err)
	}

	if hits.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", hits.Load())
	}
}

func TestHTTPRenderer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>static</p>"))
	}))
	defer srv.Close()

	r := &HTTPRenderer{Client: NewHTTPClient(HTTPOptions{})}
	html, err := r.Render(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "<p>static</p>" {
		t.Fatalf("unexpected html %q", html)
	}
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	if l := NewLimiter(0); l.Limit() != rate.Inf {
		t.Fatalf("zero rate must disable throttling, got %v", l.Limit())
	}
	if l := NewLimiter(2); l.Limit() != 2 || l.Burst() != 1 {
		t.Fatalf("unexpected limiter %v/%d", l.Limit(), l.Burst())
	}
}
