// Package github fetches boilerplate trees from a GitHub repository through
// the contents API. It is the remote counterpart of the embedded template
// store: both produce boilerplate entries, so callers never care where the
// templates came from.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Entalpic/entaldocs/internal/boilerplate"
	"github.com/Entalpic/entaldocs/internal/substitute"
)

const (
	defaultBaseURL     = "https://api.github.com"
	defaultMaxRetries  = 3
	defaultBackoffBase = 500 * time.Millisecond
	maxBackoffDelay    = 10 * time.Second

	limiterRatePerSecond = 5
	limiterBurstTokens   = 10
	downloadConcurrency  = 4

	userAgent = "entaldocs/0.1"
)

// ClientConfig configures the GitHub client.
type ClientConfig struct {
	HTTPClient  *http.Client
	Token       string
	BaseURL     string
	BackoffBase time.Duration
	MaxRetries  int
}

// Client performs authenticated, rate-limited requests against the GitHub
// REST API with bounded retries on throttling and server errors.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	limiter *rate.Limiter
	sleep   func(time.Duration)
	cfg     ClientConfig
}

// NewClient constructs a Client with production-safe defaults.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		panic(fmt.Sprintf("invalid GitHub base URL %q: %v", base, err))
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		baseURL: parsed,
		limiter: rate.NewLimiter(rate.Limit(limiterRatePerSecond), limiterBurstTokens),
		sleep:   time.Sleep,
	}
}

// WithLimiter replaces the rate limiter. Test hook.
func (c *Client) WithLimiter(l *rate.Limiter) { c.limiter = l }

// WithSleeper replaces the backoff sleep function. Test hook.
func (c *Client) WithSleeper(sleep func(time.Duration)) { c.sleep = sleep }

// Error is a structured error returned by the GitHub API.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("github: %s (status=%d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusNotFound
}

// contentItem is the subset of a contents API listing this client needs.
type contentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// FetchTree downloads the file tree rooted at contentPath on ref from the
// owner/name repository and returns it as template entries whose paths are
// relative to contentPath, sorted lexicographically.
func (c *Client) FetchTree(ctx context.Context, repo, contentPath, ref string) ([]boilerplate.Entry, error) {
	files, err := c.listTree(ctx, repo, contentPath, ref)
	if err != nil {
		return nil, err
	}

	// contentPath itself must not appear in the materialized paths: fetching
	// boilerplate/docs has to yield source/conf.py, not
	// boilerplate/docs/source/conf.py.
	prefix := strings.TrimSuffix(contentPath, "/")
	if isFilePath(prefix) {
		prefix = parentPath(prefix)
	}

	entries := make([]boilerplate.Entry, len(files))
	var mu sync.Mutex

	sem := make(chan struct{}, downloadConcurrency)
	g, groupCtx := errgroup.WithContext(ctx)

	for i, item := range files {
		i, item := i, item
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
			defer func() { <-sem }()

			body, err := c.download(groupCtx, item.DownloadURL)
			if err != nil {
				return fmt.Errorf("download %s: %w", item.Path, err)
			}

			rel := strings.TrimPrefix(strings.TrimPrefix(item.Path, prefix), "/")
			mu.Lock()
			entries[i] = boilerplate.Entry{
				Path:   rel,
				Body:   body,
				Binary: substitute.IsBinary(rel, body),
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch boilerplate: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// listTree walks the contents API breadth-first, collecting file items.
func (c *Client) listTree(ctx context.Context, repo, contentPath, ref string) ([]contentItem, error) {
	pending := []string{strings.TrimSuffix(contentPath, "/")}
	var files []contentItem

	for len(pending) > 0 {
		dir := pending[0]
		pending = pending[1:]

		items, err := c.listContents(ctx, repo, dir, ref)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			switch item.Type {
			case "dir":
				pending = append(pending, item.Path)
			case "file":
				files = append(files, item)
			}
		}
	}
	return files, nil
}

func (c *Client) listContents(ctx context.Context, repo, dir, ref string) ([]contentItem, error) {
	path := fmt.Sprintf("/repos/%s/contents/%s", repo, strings.TrimPrefix(dir, "/"))
	query := url.Values{}
	if ref != "" {
		query.Set("ref", ref)
	}

	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	// The API returns an array for directories and a bare object for a file.
	var items []contentItem
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var single contentItem
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("decode contents of %s: %w", dir, err)
	}
	return []contentItem{single}, nil
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, errors.New("missing download URL")
	}
	return c.request(ctx, rawURL, false)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return c.request(ctx, u.String(), true)
}

// request performs one GET with rate limiting and retries. apiCall controls
// whether the Accept header targets the REST API or a raw download.
func (c *Client) request(ctx context.Context, rawURL string, apiCall bool) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		if apiCall {
			req.Header.Set("Accept", "application/vnd.github+json")
		}
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		body, retryAfter, err := c.execute(req)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}
		c.sleep(c.backoffDelay(attempt, retryAfter))
	}
	return nil, lastErr
}

func (c *Client) execute(req *http.Request) (body []byte, retryAfter time.Duration, err error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("github request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close response: %w", cerr)
		}
	}()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, 0, fmt.Errorf("read response: %w", readErr)
		}
		return data, 0, nil
	}

	if after := resp.Header.Get("Retry-After"); after != "" {
		if seconds, perr := strconv.Atoi(after); perr == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}
	return nil, retryAfter, decodeError(resp)
}

func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: resp.Status}
	}
	ge := &Error{Status: resp.StatusCode}
	if jerr := json.Unmarshal(data, ge); jerr != nil || ge.Message == "" {
		ge.Message = strings.TrimSpace(string(data))
	}
	if ge.Message == "" {
		ge.Message = resp.Status
	}
	return ge
}

func retryable(err error) bool {
	var ge *Error
	if !errors.As(err, &ge) {
		return false
	}
	return ge.Status == http.StatusTooManyRequests || ge.Status >= http.StatusInternalServerError
}

func (c *Client) backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	delay := c.cfg.BackoffBase << attempt
	if delay > maxBackoffDelay {
		delay = maxBackoffDelay
	}
	return delay
}

func isFilePath(p string) bool {
	last := p
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		last = p[idx+1:]
	}
	return strings.Contains(last, ".")
}

func parentPath(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[:idx]
	}
	return ""
}
