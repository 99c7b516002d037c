package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type ItemResponse struct {
	Items   []Item
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

type Item interface{}

// GetItems makes GET request to HeadHunter API and return items from all pages.
func (c *Client) GetItems(ctx context.Context, url string, q url.Values) ([]Item, error) {
	var items []Item

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	req.URL.RawQuery = q.Encode()

	response, err := c.fetchPage(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response from HH.ru",
		zap.Int("found", response.Found),
		zap.Int("pages", response.Pages),
		zap.Int("max items per page", response.PerPage),
	)

	items = append(items, response.Items...)

	limit := c.pageLimit(response.Pages)
	for response.Page < limit-1 {
		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < page count (%d)", response.Page+1, limit),
		))

		response, err = c.fetchPage(addPage(req, response.Page+1))
		if err != nil {
			return items, err
		}

		items = append(items, response.Items...)
	}

	return items, nil
}

func (c *Client) pageLimit(pages int) int {
	limit := maxPages
	if c.MaxPages > 0 && c.MaxPages < limit {
		limit = c.MaxPages
	}
	if pages < limit {
		return pages
	}
	return limit
}

func (c *Client) fetchPage(req *http.Request) (*ItemResponse, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}

	return c.parseItemResponse(resp)
}

func (c *Client) parseItemResponse(resp *http.Response) (*ItemResponse, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response *ItemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if response == nil {
		return nil, fmt.Errorf("empty response")
	}

	return response, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	// Setting the header disables transparent decompression, handled in parseItemResponse.
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

// addPage returns a copy of the request pointed at another page.
func addPage(req *http.Request, page int) *http.Request {
	next := req.Clone(req.Context())
	q := next.URL.Query()
	q.Set("page", strconv.Itoa(page))
	next.URL.RawQuery = q.Encode()

	return next
}
