package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestBuildParams(t *testing.T) {
	q := buildParams(&SearchParams{
		Text:      "golang",
		Areas:     []int{1, 2},
		Schedules: []string{"remote"},
		PerPage:   "50",
	})

	if got := q["area"]; len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("unexpected areas: %v", got)
	}
	if q.Get("text") != "golang" || q.Get("schedule") != "remote" || q.Get("per_page") != "50" {
		t.Fatalf("unexpected params: %v", q)
	}
	if q.Has("period") || q.Has("order_by") {
		t.Fatalf("zero values must be omitted: %v", q)
	}
}

func vacancyPage(page, pages int) map[string]any {
	return map[string]any{
		"items": []map[string]any{{
			"id":            strconv.Itoa(page),
			"name":          "Go Developer " + strconv.Itoa(page),
			"alternate_url": "https://hh.ru/vacancy/" + strconv.Itoa(page),
			"employer":      map[string]any{"id": "e1", "name": "Acme"},
			"area":          map[string]any{"id": "1", "name": "Moscow"},
		}},
		"found":    pages,
		"pages":    pages,
		"page":     page,
		"per_page": 1,
	}
}

func TestSearchFollowsPagesAndGzip(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != SearchPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("anonymous client must not send a token")
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode(vacancyPage(page, 3))
	}))
	defer srv.Close()

	c := New(zap.NewNop(), "")
	c.APIURL = srv.URL

	vacancies, err := c.Search(context.Background(), &SearchParams{Text: "go"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if vacancies.Len() != 3 || hits.Load() != 3 {
		t.Fatalf("expected 3 vacancies from 3 requests, got %d from %d", vacancies.Len(), hits.Load())
	}
	if vacancies.Items[2].Employer.Name != "Acme" || vacancies.Items[2].AlternateURL != "https://hh.ru/vacancy/2" {
		t.Fatalf("unexpected vacancy: %+v", vacancies.Items[2])
	}
}

func TestSearchRespectsMaxPages(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(vacancyPage(page, 10))
	}))
	defer srv.Close()

	c := New(nil, "token")
	c.APIURL = srv.URL
	c.MaxPages = 2

	vacancies, err := c.Search(context.Background(), &SearchParams{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if vacancies.Len() != 2 || hits.Load() != 2 {
		t.Fatalf("expected 2 pages, got %d vacancies from %d requests", vacancies.Len(), hits.Load())
	}
}

func TestSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(nil, "")
	c.APIURL = srv.URL

	if _, err := c.Search(context.Background(), &SearchParams{}); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestSearchSpacesPageRequests(t *testing.T) {
	var (
		mu    sync.Mutex
		times []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(vacancyPage(page, 3))
	}))
	defer srv.Close()

	const interval = 50 * time.Millisecond
	c := New(nil, "")
	c.APIURL = srv.URL
	c.Limiter = rate.NewLimiter(rate.Every(interval), 1)

	if _, err := c.Search(context.Background(), &SearchParams{}); err != nil {
		t.Fatalf("search: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 3 {
		t.Fatalf("expected 3 page requests, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		// Small slack for timer granularity.
		if gap := times[i].Sub(times[i-1]); gap < interval-10*time.Millisecond {
			t.Fatalf("page %d requested %s after the previous one", i, gap)
		}
	}
}

func TestSearchLimiterHonoursContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(vacancyPage(page, 3))
	}))
	defer srv.Close()

	c := New(nil, "")
	c.APIURL = srv.URL
	c.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	vacancies, err := c.Search(ctx, &SearchParams{})
	if err == nil {
		t.Fatalf("expected limiter error")
	}
	if hits.Load() != 1 || vacancies.Len() != 1 {
		t.Fatalf("expected only the first page, got %d requests", hits.Load())
	}
}
