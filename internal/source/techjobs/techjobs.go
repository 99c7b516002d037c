package techjobs

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly"
	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/posting"
	"github.com/spigell/job-radar/internal/source"
	"github.com/spigell/job-radar/internal/utils"
)

const (
	Name           = "techjobsforgood"
	defaultBaseURL = "https://www.techjobsforgood.com"
)

type Config struct {
	BaseURL   string
	Keywords  []string
	Locations []string
	HTTP      source.HTTPOptions
}

// Adapter crawls the Tech Jobs for Good search pages with a colly collector.
type Adapter struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Adapter{cfg: cfg, logger: logger.WithSource(log, Name)}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Queries() []source.Query {
	return source.Expand(a.cfg.Keywords, a.cfg.Locations)
}

func (a *Adapter) Fetch(ctx context.Context) ([]posting.RawRecord, source.Outcome) {
	c := a.newCollector(ctx)

	var current []posting.RawRecord
	c.OnHTML(".job-card", func(e *colly.HTMLElement) {
		record := posting.RawRecord{
			posting.FieldTitle:    utils.CleanText(e.ChildText(".job-title")),
			posting.FieldCompany:  utils.CleanText(e.ChildText(".organization-name")),
			posting.FieldLocation: utils.CleanText(e.ChildText(".job-location")),
		}
		if href := strings.TrimSpace(e.ChildAttr("a", "href")); href != "" {
			record[posting.FieldLink] = e.Request.AbsoluteURL(href)
		}
		if desc := utils.CleanText(e.ChildText(".job-description")); desc != "" {
			record[posting.FieldDescription] = desc
		}
		current = append(current, record)
	})

	c.OnError(func(r *colly.Response, err error) {
		a.logger.Debug("request failed",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Error(err),
		)
	})

	queries := a.Queries()
	results := make([]source.QueryResult, 0, len(queries))

	for _, q := range queries {
		current = nil
		pageURL := a.pageURL(q)

		if err := ctx.Err(); err != nil {
			results = append(results, source.QueryResult{Query: q, Err: err})
			continue
		}

		if err := c.Visit(pageURL); err != nil {
			a.logger.Warn("visiting search page failed", zap.String("url", pageURL), zap.Error(err))
			results = append(results, source.QueryResult{Query: q, Err: err})
			continue
		}

		a.logger.Debug("search page parsed", zap.String("url", pageURL), zap.Int("records", len(current)))
		results = append(results, source.QueryResult{Query: q, Records: current})
	}

	return source.Collect(results)
}

func (a *Adapter) newCollector(ctx context.Context) *colly.Collector {
	userAgent := a.cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = source.DefaultUserAgent
	}

	c := colly.NewCollector(colly.UserAgent(userAgent))

	timeout := a.cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c.SetRequestTimeout(timeout)

	var delay time.Duration
	if rps := a.cfg.HTTP.RequestsPerSecond; rps > 0 {
		delay = time.Duration(float64(time.Second) / rps)
	}
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	})

	base := a.cfg.HTTP.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.WithTransport(&contextTransport{ctx: ctx, base: base})

	return c
}

func (a *Adapter) pageURL(q source.Query) string {
	params := url.Values{}
	if q.Keyword != "" {
		params.Set("search", q.Keyword)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}

	u := a.cfg.BaseURL + "/jobs/"
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// contextTransport binds every collector request to the fetch context so a
// timed out adapter stops crawling.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
