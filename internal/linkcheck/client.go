// Package linkcheck verifies that registered document hyperlinks still
// resolve. Shortlink hosts tend to answer 200 with an error landing page
// when a target is gone, so besides status codes the checker inspects the
// returned HTML for dead-link markers.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"
	"github.com/mih97/qcnav-linebot-go/internal/ratelimit"
)

// deadPageMarkers are title fragments of known error landing pages served
// with a 200 status.
var deadPageMarkers = []string{
	"not found",
	"페이지를 찾을 수 없",
	"삭제된 문서",
	"access denied",
}

// Client performs rate-limited, retried link verification requests.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a link verification client. requestsPerMinute bounds the
// request rate so link hosts are not hammered during a full table sweep.
func NewClient(timeout time.Duration, requestsPerMinute float64, maxRetries int, retryDelay time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    ratelimit.NewPerMinute(requestsPerMinute),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Get fetches a URL with rate limiting and backoff retries. The caller owns
// the response body on success.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	err := RetryWithBackoff(ctx, c.maxRetries, c.retryDelay, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", uarand.GetRandom())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized, http.StatusGone:
			return Permanent(fmt.Errorf("client error for %s: status %d", url, resp.StatusCode))
		default:
			return fmt.Errorf("unexpected status for %s: %d", url, resp.StatusCode)
		}
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Check fetches a URL and reports whether it serves live content. A 200
// response carrying an error landing page counts as dead.
func (c *Client) Check(ctx context.Context, url string) (bool, string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return false, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		// PDFs and other binary targets: a 2xx status is good enough
		return true, "", nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return false, "", fmt.Errorf("parse HTML: %w", err)
	}

	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	for _, marker := range deadPageMarkers {
		if strings.Contains(title, strings.ToLower(marker)) {
			return false, fmt.Sprintf("error landing page: %q", title), nil
		}
	}
	return true, "", nil
}
