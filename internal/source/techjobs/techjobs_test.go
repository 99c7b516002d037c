package techjobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/source"
)

const searchPage = `<html><body>
<div class="job-card">
  <a href="/jobs/5512-data-analyst/"><span class="job-title">Data Analyst</span></a>
  <span class="organization-name">Code for Good</span>
  <span class="job-location">Remote</span>
</div>
<div class="job-card">
  <a href="https://www.techjobsforgood.com/jobs/5513/"><span class="job-title">Data Engineer</span></a>
  <span class="organization-name">Open Data Org</span>
</div>
</body></html>`

func TestFetchParsesCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") != "analytics" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Keywords: []string{"analytics"}}, zap.NewNop())

	records, outcome := a.Fetch(context.Background())
	if outcome.Status != source.StatusSuccess {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0]["link"] != srv.URL+"/jobs/5512-data-analyst/" {
		t.Fatalf("expected absolute link, got %v", records[0]["link"])
	}
	if records[0]["company"] != "Code for Good" || records[0]["location"] != "Remote" {
		t.Fatalf("unexpected record: %v", records[0])
	}
	if records[1]["location"] != "" {
		t.Fatalf("expected empty location, got %v", records[1]["location"])
	}
}

func TestFetchPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("location") == "Mars" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Keywords: []string{"data"}, Locations: []string{"Remote", "Mars"}}, zap.NewNop())

	records, outcome := a.Fetch(context.Background())
	if outcome.Status != source.StatusPartialFailure {
		t.Fatalf("expected partial failure, got %+v", outcome)
	}
	if len(records) != 2 || len(outcome.Errors) != 1 {
		t.Fatalf("unexpected partial result: %d records, %v", len(records), outcome.Errors)
	}
	if !strings.Contains(outcome.Errors[0].Error(), "data@Mars") {
		t.Fatalf("expected failing query in error, got %v", outcome.Errors[0])
	}
}

func TestFetchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(Config{BaseURL: "http://127.0.0.1:1", Keywords: []string{"data"}}, zap.NewNop())

	_, outcome := a.Fetch(ctx)
	if !outcome.Failed() {
		t.Fatalf("expected total failure, got %+v", outcome)
	}
}
