package remoteok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/source"
)

const listing = `<html><body><table>
<tr class="job" data-href="/remote-jobs/101-data-analyst-acme">
  <td><h2> Data Analyst </h2><h3>Acme</h3><div class="location">Worldwide</div></td>
</tr>
<tr class="job" data-href="/remote-jobs/102">
  <td><h2>Analytics Engineer</h2><div class="location">USA</div></td>
</tr>
</table></body></html>`

func TestFetchParsesRows(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.RequestURI())
		mu.Unlock()
		_, _ = w.Write([]byte(listing))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Keywords: []string{"Data Analytics"}}, zap.NewNop())

	records, outcome := a.Fetch(context.Background())
	if outcome.Status != source.StatusSuccess || outcome.Count != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "/remote-data-analytics-jobs" {
		t.Fatalf("unexpected requests: %v", paths)
	}

	first := records[0]
	if first["title"] != "Data Analyst" || first["company"] != "Acme" || first["location"] != "Worldwide" {
		t.Fatalf("unexpected first record: %v", first)
	}
	if first["link"] != srv.URL+"/remote-jobs/101-data-analyst-acme" {
		t.Fatalf("unexpected link: %v", first["link"])
	}

	// the second row has no company; the normalizer decides what to do with it
	if records[1]["company"] != "" {
		t.Fatalf("expected empty company, got %v", records[1]["company"])
	}
}

func TestFetchTotalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Keywords: []string{"analytics"}}, zap.NewNop())

	records, outcome := a.Fetch(context.Background())
	if !outcome.Failed() || len(records) != 0 {
		t.Fatalf("expected total failure, got %+v", outcome)
	}
}

func TestPageURL(t *testing.T) {
	a := New(Config{BaseURL: "https://remoteok.com/"}, nil)

	if got := a.pageURL(source.Query{}); got != "https://remoteok.com/remote-jobs" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := a.pageURL(source.Query{Keyword: "sql", Location: "New York"}); got != "https://remoteok.com/remote-sql-jobs?location=New+York" {
		t.Fatalf("unexpected url %q", got)
	}
}
