package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer returns the HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// HTTPRenderer returns the page as served, without running scripts.
type HTTPRenderer struct {
	Client *HTTPClient
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	body, err := r.Client.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ChromeRenderer loads the page in a headless browser so client-side rendered
// listings are present in the returned HTML. Every call starts and tears down
// its own browser.
type ChromeRenderer struct {
	UserAgent string
	// WaitSelector is awaited before the HTML is captured. Empty waits for body.
	WaitSelector string
	// Settle is an extra pause after the selector appears.
	Settle time.Duration
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	userAgent := r.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("headless", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	wait := strings.TrimSpace(r.WaitSelector)
	if wait == "" {
		wait = "body"
	}

	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady(wait, chromedp.ByQuery),
	}
	if r.Settle > 0 {
		actions = append(actions, chromedp.Sleep(r.Settle))
	}
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	return html, nil
}
