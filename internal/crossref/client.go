// Package crossref resolves DOIs through the Crossref REST API.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/matsen/refman/internal/provider"
)

const (
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	name = "crossref"
)

// Client fetches Crossref works.
type Client struct {
	req     *provider.Requester
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates a Crossref client on top of req.
func NewClient(req *provider.Requester, opts ...ClientOption) *Client {
	c := &Client{req: req, baseURL: BaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BibTeX returns the BibTeX rendering of the work with the given DOI.
func (c *Client) BibTeX(ctx context.Context, doi string) (string, error) {
	u := fmt.Sprintf("%s/works/%s/transform/application/x-bibtex", c.baseURL, escapeDOI(doi))
	body, err := c.req.Get(ctx, name, u, "application/x-bibtex")
	if err != nil {
		return "", fmt.Errorf("crossref bibtex for %s: %w", doi, err)
	}
	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "@") {
		return "", fmt.Errorf("crossref bibtex for %s: %w: not a BibTeX entry", doi, provider.ErrInvalidResponse)
	}
	return text, nil
}

// Work returns the citeproc metadata of the work with the given DOI.
func (c *Client) Work(ctx context.Context, doi string) (*Work, error) {
	u := fmt.Sprintf("%s/works/%s", c.baseURL, escapeDOI(doi))
	body, err := c.req.Get(ctx, name, u, "application/json")
	if err != nil {
		return nil, fmt.Errorf("crossref work %s: %w", doi, err)
	}

	var resp workResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("crossref work %s: %w: %v", doi, provider.ErrInvalidResponse, err)
	}
	if resp.Status != "ok" || resp.Message.DOI == "" {
		return nil, fmt.Errorf("crossref work %s: %w", doi, provider.ErrNotFound)
	}
	return &resp.Message, nil
}

// escapeDOI path-escapes a DOI while keeping its slashes, which Crossref
// expects literally.
func escapeDOI(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
