// Package provider holds the HTTP plumbing shared by the metadata
// providers and the document fetcher: one rate limiter, one client, one
// User-Agent.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is requests per second across all providers.
	RateLimit = 5.0

	// MaxBodySize caps how much of a response is read into memory.
	MaxBodySize = 256 << 20

	userAgentBase = "refman/1.0 (https://github.com/matsen/refman)"
)

// Requester performs rate-limited GET requests.
type Requester struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// Option configures a Requester.
type Option func(*Requester)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Requester) {
		r.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(r *Requester) {
		if d > 0 {
			r.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLimiter replaces the rate limiter. Pass rate.NewLimiter(rate.Inf, 1)
// to disable limiting.
func WithLimiter(l *rate.Limiter) Option {
	return func(r *Requester) {
		r.limiter = l
	}
}

// WithMailto adds a contact address to the User-Agent, which some
// providers (Crossref) use to route requests to a faster pool.
func WithMailto(addr string) Option {
	return func(r *Requester) {
		if addr != "" {
			r.userAgent = fmt.Sprintf("%s mailto:%s", userAgentBase, addr)
		}
	}
}

// NewRequester creates a Requester.
func NewRequester(opts ...Option) *Requester {
	r := &Requester{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		userAgent:  userAgentBase,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open issues a GET and returns the response once the status is known to be
// 2xx. The caller closes the body. name labels errors.
func (r *Requester) Open(ctx context.Context, name, url, accept string) (*http.Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrNetworkError, err)
	}
	if err := checkHTTPErrors(name, url, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// Get issues a GET and returns the whole body.
func (r *Requester) Get(ctx context.Context, name, url, accept string) ([]byte, error) {
	resp, err := r.Open(ctx, name, url, accept)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", name, err)
	}
	return body, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(name, url string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &APIError{
		Provider:   name,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(snippet)),
		URL:        url,
	}
}
