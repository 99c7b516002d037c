package headhunter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/job-radar (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
	// The API refuses to go deeper than 2000 results.
	maxPages = 20
)

// Client is a read-only client for the public vacancy search of HH.ru.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// MaxPages caps pagination. Zero means the API limit.
	MaxPages int
	// Limiter spaces out every page request. Nil means unthrottled.
	Limiter *rate.Limiter
}

// New returns a client. The token is optional: public search works anonymously.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}
