package remoteok

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/posting"
	"github.com/spigell/job-radar/internal/source"
	"github.com/spigell/job-radar/internal/utils"
)

const (
	Name           = "remoteok"
	defaultBaseURL = "https://remoteok.com"
)

type Config struct {
	BaseURL   string
	Keywords  []string
	Locations []string
	HTTP      source.HTTPOptions
}

// Adapter scrapes the RemoteOK listing pages.
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
	client := source.NewHTTPClient(a.cfg.HTTP)
	defer client.Close()

	queries := a.Queries()
	results := make([]source.QueryResult, 0, len(queries))

	for _, q := range queries {
		pageURL := a.pageURL(q)

		doc, err := client.Document(ctx, pageURL)
		if err != nil {
			a.logger.Warn("fetching listing page failed", zap.String("url", pageURL), zap.Error(err))
			results = append(results, source.QueryResult{Query: q, Err: err})
			continue
		}

		records := a.parse(doc)
		a.logger.Debug("listing page parsed", zap.String("url", pageURL), zap.Int("records", len(records)))
		results = append(results, source.QueryResult{Query: q, Records: records})
	}

	return source.Collect(results)
}

func (a *Adapter) pageURL(q source.Query) string {
	path := "/remote-jobs"
	if slug := slugify(q.Keyword); slug != "" {
		path = fmt.Sprintf("/remote-%s-jobs", slug)
	}

	u := a.cfg.BaseURL + path
	if q.Location != "" {
		u += "?location=" + url.QueryEscape(q.Location)
	}
	return u
}

func (a *Adapter) parse(doc *goquery.Document) []posting.RawRecord {
	var records []posting.RawRecord

	doc.Find("tr.job").Each(func(_ int, row *goquery.Selection) {
		record := posting.RawRecord{
			posting.FieldTitle:    utils.CleanText(row.Find("h2").First().Text()),
			posting.FieldCompany:  utils.CleanText(row.Find("h3").First().Text()),
			posting.FieldLocation: utils.CleanText(row.Find(".location").First().Text()),
		}

		if href, ok := row.Attr("data-href"); ok && strings.TrimSpace(href) != "" {
			record[posting.FieldLink] = posting.ResolveLink(a.cfg.BaseURL+"/", href)
		}

		if desc := utils.CleanText(row.Find(".description").First().Text()); desc != "" {
			record[posting.FieldDescription] = desc
		}

		records = append(records, record)
	})

	return records
}

func slugify(s string) string {
	s = strings.ToLower(utils.CleanText(s))
	return strings.ReplaceAll(s, " ", "-")
}
