package bref

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Delayer is the pause taken before every page request.
type Delayer interface {
	Wait(ctx context.Context) error
}

// JitterDelay waits a uniformly random duration in [Min, Max].
type JitterDelay struct {
	Min, Max time.Duration
}

func (d JitterDelay) Wait(ctx context.Context) error {
	span := d.Max - d.Min
	wait := d.Min
	if span > 0 {
		wait += time.Duration(rand.Int63n(int64(span) + 1))
	}
	return sleepCtx(ctx, wait)
}

// NoDelay never waits.
type NoDelay struct{}

func (NoDelay) Wait(context.Context) error { return nil }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchError is a transport failure: network error, timeout or non-2xx status.
type FetchError struct {
	URL        string
	Letter     string
	StatusCode int
	Attempts   int
	Err        error

	retryAfter time.Duration
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("fetch ")
	b.WriteString(e.URL)
	if e.Letter != "" {
		fmt.Fprintf(&b, " (letter %q)", e.Letter)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches site pages. One request per call unless MaxAttempts > 1.
type Client struct {
	BaseURL     string
	HTTP        *http.Client
	Delay       Delayer
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	// Debug dumps every fetched page's tables at debug level.
	Debug bool
}

// NewClient returns a client with the default host, a 60s timeout, a 2-5s jitter and a single attempt.
func NewClient() *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		HTTP:        &http.Client{Timeout: 60 * time.Second},
		Delay:       JitterDelay{Min: 2 * time.Second, Max: 5 * time.Second},
		MaxAttempts: 1,
		RetryBase:   400 * time.Millisecond,
		RetryMax:    6 * time.Second,
	}
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// RosterURL is the listing page for one letter.
func (c *Client) RosterURL(letter string) string {
	return c.url(fmt.Sprintf("/players/%s/", letter))
}

func backoff(attempt int, base, max time.Duration) time.Duration {
	d := base * time.Duration(1<<attempt)
	j := time.Duration(rand.Intn(250)) * time.Millisecond
	if max > 0 && d+j > max {
		return max
	}
	return d + j
}

func parseRetryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// getText waits on the delay policy, then GETs the URL. Network errors, 429 and 5xx
// are retried while attempts remain; any other non-2xx fails immediately.
func (c *Client) getText(ctx context.Context, url string) (string, error) {
	if c.Delay != nil {
		if err := c.Delay.Wait(ctx); err != nil {
			return "", &FetchError{URL: url, Err: err}
		}
	}
	httpCli := c.HTTP
	if httpCli == nil {
		httpCli = http.DefaultClient
	}
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last *FetchError
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt-1, c.RetryBase, c.RetryMax)
			if last != nil && last.StatusCode == http.StatusTooManyRequests {
				if ra := last.retryAfter; ra > 0 {
					wait = ra
				}
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return "", &FetchError{URL: url, Attempts: attempt, Err: err}
			}
		}

		body, ferr := c.do(ctx, httpCli, url)
		if ferr == nil {
			return body, nil
		}
		ferr.Attempts = attempt + 1
		last = ferr.FetchError
		if !ferr.retryable {
			return "", ferr.FetchError
		}
	}
	return "", last
}

type attemptError struct {
	*FetchError
	retryable bool
}

func (c *Client) do(ctx context.Context, httpCli *http.Client, url string) (string, *attemptError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &attemptError{FetchError: &FetchError{URL: url, Err: err}}
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httpCli.Do(req)
	if err != nil {
		return "", &attemptError{FetchError: &FetchError{URL: url, Err: err}, retryable: ctx.Err() == nil}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		fe := &FetchError{URL: url, StatusCode: resp.StatusCode}
		fe.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", &attemptError{FetchError: fe, retryable: retry}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &attemptError{FetchError: &FetchError{URL: url, Err: err}, retryable: true}
	}
	return string(b), nil
}

// FetchDocument fetches and parses any site path (or absolute URL).
func (c *Client) FetchDocument(ctx context.Context, path string) (*goquery.Document, error) {
	html, err := c.getText(ctx, c.url(path))
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// FetchPlayerPage fetches an individual player page, e.g. "/players/j/jamesle01.html",
// for use with ExtractTable.
func (c *Client) FetchPlayerPage(ctx context.Context, path string) (*goquery.Document, error) {
	return c.FetchDocument(ctx, path)
}
