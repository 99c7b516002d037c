package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20
)

// Payload is the JSON document the sink receives.
type Payload struct {
	Summary  string `json:"summary"`
	JobCount int    `json:"job_count"`
}

// Result classifies a delivery attempt.
type Result string

const (
	Delivered        Result = "delivered"
	Rejected         Result = "rejected"
	TransportFailure Result = "transport_failure"
)

// Outcome is the result of a single delivery attempt.
type Outcome struct {
	Result Result
	// Status and Body are set for Delivered and Rejected.
	Status int
	Body   string
	Err    error
}

func (o Outcome) Delivered() bool { return o.Result == Delivered }

func (o Outcome) String() string {
	switch o.Result {
	case Delivered:
		return "delivered"
	case Rejected:
		return fmt.Sprintf("rejected with status %d", o.Status)
	default:
		return fmt.Sprintf("transport failure: %v", o.Err)
	}
}

// Dispatcher posts summaries to the sink webhook. It never retries.
type Dispatcher struct {
	url        string
	HTTPClient *http.Client
	logger     *zap.Logger
}

func New(url string, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Dispatcher{
		url:        url,
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     logger.OrNop(log).Named("dispatch"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, summary string, count int) Outcome {
	b, err := json.Marshal(Payload{Summary: summary, JobCount: count})
	if err != nil {
		return Outcome{Result: TransportFailure, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(b))
	if err != nil {
		return Outcome{Result: TransportFailure, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	d.logger.Debug("posting summary to sink", zap.Int("job_count", count), zap.Int("payload_size", len(b)))

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return Outcome{Result: TransportFailure, Err: fmt.Errorf("post to sink: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		d.logger.Warn("reading sink response failed", zap.Error(err))
	}

	if resp.StatusCode != http.StatusOK {
		return Outcome{Result: Rejected, Status: resp.StatusCode, Body: string(body)}
	}

	return Outcome{Result: Delivered, Status: resp.StatusCode, Body: string(body)}
}
