package hh

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/headhunter"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/posting"
	"github.com/spigell/job-radar/internal/source"
	"github.com/spigell/job-radar/internal/utils"
)

const Name = "hh"

type Config struct {
	// APIURL overrides the public API endpoint.
	APIURL   string
	Token    string
	Keywords []string
	// Areas are HH.ru area identifiers, for example 1 for Moscow.
	Areas     []int
	Schedules []string
	Pages     int
	// Timeout bounds a single page request.
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
}

// Adapter searches vacancies through the HH.ru API.
type Adapter struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Adapter {
	return &Adapter{cfg: cfg, logger: logger.WithSource(log, Name)}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Queries() []source.Query {
	areas := make([]string, 0, len(a.cfg.Areas))
	for _, area := range a.cfg.Areas {
		areas = append(areas, strconv.Itoa(area))
	}
	return source.Expand(a.cfg.Keywords, areas)
}

func (a *Adapter) Fetch(ctx context.Context) ([]posting.RawRecord, source.Outcome) {
	client := a.client()
	defer client.HTTPClient.CloseIdleConnections()

	queries := a.Queries()
	results := make([]source.QueryResult, 0, len(queries))

	for _, q := range queries {
		params := &headhunter.SearchParams{
			Text:      q.Keyword,
			Schedules: a.cfg.Schedules,
		}
		if q.Location != "" {
			area, _ := strconv.Atoi(q.Location)
			params.Areas = []int{area}
		}

		vacancies, err := client.Search(ctx, params)
		if err != nil {
			a.logger.Warn("vacancy search failed", zap.Stringer("query", q), zap.Error(err))
		}

		res := source.QueryResult{Query: q, Err: err}
		if vacancies != nil {
			res.Records = toRecords(vacancies)
		}
		results = append(results, res)
	}

	return source.Collect(results)
}

func (a *Adapter) client() *headhunter.Client {
	c := headhunter.New(a.logger, a.cfg.Token)
	if a.cfg.APIURL != "" {
		c.APIURL = a.cfg.APIURL
	}
	if a.cfg.UserAgent != "" {
		c.UserAgent = a.cfg.UserAgent
	}
	if a.cfg.Timeout > 0 {
		c.HTTPClient = &http.Client{Timeout: a.cfg.Timeout}
	}
	c.MaxPages = a.cfg.Pages
	// One limiter per fetch covers pagination of every query.
	c.Limiter = source.NewLimiter(a.cfg.RequestsPerSecond)
	return c
}

func toRecords(vacancies *headhunter.Vacancies) []posting.RawRecord {
	records := make([]posting.RawRecord, 0, vacancies.Len())
	for _, v := range vacancies.Items {
		if v.Archived {
			continue
		}

		record := posting.RawRecord{
			posting.FieldTitle:    v.Name,
			posting.FieldCompany:  v.Employer.Name,
			posting.FieldLocation: v.Area.Name,
			posting.FieldLink:     v.AlternateURL,
		}
		if summary := utils.CleanText(v.Summary()); summary != "" {
			record[posting.FieldDescription] = summary
		}
		records = append(records, record)
	}
	return records
}
