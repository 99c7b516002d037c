package idealist

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/posting"
	"github.com/spigell/job-radar/internal/source"
	"github.com/spigell/job-radar/internal/utils"
)

const (
	Name           = "idealist"
	defaultBaseURL = "https://www.idealist.org"

	cardSelector = "[data-testid='job-card'], .styles_component__JobCardWrapper-sc-1lf4q2o-0"
)

type Config struct {
	BaseURL   string
	Keywords  []string
	Locations []string
	// Pages is the number of result pages requested per query.
	Pages int
	// Render loads pages through a headless browser.
	Render bool
	HTTP   source.HTTPOptions
}

// Adapter reads Idealist job search results.
type Adapter struct {
	cfg    Config
	logger *zap.Logger

	// newRenderer is replaced in tests.
	newRenderer func() (source.Renderer, func())
}

func New(cfg Config, log *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Pages <= 0 {
		cfg.Pages = 1
	}

	a := &Adapter{cfg: cfg, logger: logger.WithSource(log, Name)}
	a.newRenderer = a.defaultRenderer
	return a
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Queries() []source.Query {
	return source.Expand(a.cfg.Keywords, a.cfg.Locations)
}

func (a *Adapter) Fetch(ctx context.Context) ([]posting.RawRecord, source.Outcome) {
	renderer, release := a.newRenderer()
	defer release()

	queries := a.Queries()
	results := make([]source.QueryResult, 0, len(queries))

	for _, q := range queries {
		var (
			records []posting.RawRecord
			errs    []error
		)

		for page := 1; page <= a.cfg.Pages; page++ {
			pageURL := a.pageURL(q, page)

			html, err := renderer.Render(ctx, pageURL)
			if err != nil {
				a.logger.Warn("loading search page failed", zap.String("url", pageURL), zap.Error(err))
				errs = append(errs, err)
				break
			}

			doc, err := source.ParseDocument(html)
			if err != nil {
				errs = append(errs, err)
				break
			}

			found := a.parse(doc)
			a.logger.Debug("search page parsed", zap.String("url", pageURL), zap.Int("records", len(found)))
			if len(found) == 0 {
				break
			}
			records = append(records, found...)
		}

		res := source.QueryResult{Query: q, Records: records}
		if len(errs) > 0 {
			res.Err = errs[0]
		}
		results = append(results, res)
	}

	return source.Collect(results)
}

func (a *Adapter) defaultRenderer() (source.Renderer, func()) {
	if a.cfg.Render {
		return &source.ChromeRenderer{
			UserAgent:    a.cfg.HTTP.UserAgent,
			WaitSelector: "main",
			Settle:       2 * time.Second,
		}, func() {}
	}

	client := source.NewHTTPClient(a.cfg.HTTP)
	return &source.HTTPRenderer{Client: client}, client.Close
}

func (a *Adapter) pageURL(q source.Query, page int) string {
	params := url.Values{}
	params.Set("searchMode", "true")
	if q.Keyword != "" {
		params.Set("q", q.Keyword)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	return a.cfg.BaseURL + "/en/jobs?" + params.Encode()
}

func (a *Adapter) parse(doc *goquery.Document) []posting.RawRecord {
	var records []posting.RawRecord

	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		record := posting.RawRecord{
			posting.FieldTitle:    utils.CleanText(card.Find("h2, h3").First().Text()),
			posting.FieldCompany:  utils.CleanText(card.Find("[data-testid='job-company-name']").First().Text()),
			posting.FieldLocation: utils.CleanText(card.Find("[data-testid='job-location']").First().Text()),
		}

		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			record[posting.FieldLink] = posting.ResolveLink(a.cfg.BaseURL+"/", href)
		}

		records = append(records, record)
	})

	return records
}
