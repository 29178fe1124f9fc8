// Package document locates and downloads the PDF of a paper.
package document

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/refman/internal/arxiv"
	"github.com/matsen/refman/internal/atomicfile"
	"github.com/matsen/refman/internal/logging"
	"github.com/matsen/refman/internal/pdf"
	"github.com/matsen/refman/internal/provider"
	"github.com/matsen/refman/internal/reference"
)

// Source names, in the order they are tried.
const (
	SourceUser   = "user"
	SourceArXiv  = "arxiv"
	SourceLinks  = "provider"
	SourceMirror = "mirror"
)

// Getter performs HTTP GETs; provider.Requester implements it.
type Getter interface {
	Open(ctx context.Context, name, url, accept string) (*http.Response, error)
	Get(ctx context.Context, name, url, accept string) ([]byte, error)
}

// Request describes the document wanted for one Record.
type Request struct {
	Key string
	// UserSource is a local path or http(s) URL given by the user.
	UserSource string
	ArXiv      string
	DOI        string
	// Links are provider-advertised PDF locations.
	Links []string
}

// Result describes a stored document.
type Result struct {
	Filename string `json:"filename"`
	Source   string `json:"source"`
	Location string `json:"location"`
	Size     int64  `json:"size"`
}

// Fetcher tries each document source in turn and stores the first valid
// PDF as <dir>/<key>.pdf.
type Fetcher struct {
	get       Getter
	dir       string
	mirrorURL string
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMirror enables the mirror lookup with the given base URL.
func WithMirror(baseURL string) Option {
	return func(f *Fetcher) {
		f.mirrorURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher writing into dir.
func NewFetcher(get Getter, dir string, opts ...Option) *Fetcher {
	f := &Fetcher{get: get, dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type attempt struct {
	source   string
	location string
}

// plan lists the attempts for req in priority order.
func (f *Fetcher) plan(req Request) []attempt {
	var plan []attempt
	if req.UserSource != "" {
		plan = append(plan, attempt{SourceUser, req.UserSource})
	}
	if req.ArXiv != "" {
		plan = append(plan, attempt{SourceArXiv, arxiv.PDFURL(req.ArXiv)})
	}
	seen := map[string]bool{}
	for _, l := range req.Links {
		if l != "" && !seen[l] {
			seen[l] = true
			plan = append(plan, attempt{SourceLinks, l})
		}
	}
	if req.DOI != "" && f.mirrorURL != "" {
		plan = append(plan, attempt{SourceMirror, f.mirrorURL + "/" + req.DOI})
	}
	return plan
}

// Fetch stores the document for req. When every source fails the error is
// a *FetchFailure listing each attempt.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	if err := reference.ValidateKey(req.Key); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}
	target := filepath.Join(f.dir, reference.DocumentName(req.Key))

	failure := &FetchFailure{Key: req.Key}
	for _, a := range f.plan(req) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.logger.Info("retrieving PDF", "key", req.Key, "source", a.source, "location", a.location)

		var (
			size int64
			err  error
		)
		switch {
		case a.source == SourceUser && !isHTTP(a.location):
			size, err = copyLocal(a.location, target)
		case a.source == SourceMirror:
			size, err = f.fromMirror(ctx, a.location, target)
		default:
			size, err = f.download(ctx, a.location, target)
		}
		if err == nil {
			return &Result{
				Filename: reference.DocumentName(req.Key),
				Source:   a.source,
				Location: a.location,
				Size:     size,
			}, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		f.logger.Debug("document source failed", "source", a.source, "error", err)
		failure.Attempts = append(failure.Attempts, Attempt{Source: a.source, Location: a.location, Err: err.Error()})
	}
	return nil, failure
}

// download fetches url and stores it at target if the body is a PDF.
func (f *Fetcher) download(ctx context.Context, u, target string) (int64, error) {
	resp, err := f.get.Open(ctx, "document", u, "application/pdf,*/*;q=0.5")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && (mt == "text/html" || mt == "application/xhtml+xml") {
			return 0, pdf.ErrHTML
		}
	}
	return store(io.LimitReader(resp.Body, provider.MaxBodySize), target)
}

// fromMirror fetches a mirror page for a DOI and follows its first link to
// a PDF. Some mirrors answer with the PDF itself.
func (f *Fetcher) fromMirror(ctx context.Context, pageURL, target string) (int64, error) {
	body, err := f.get.Get(ctx, "mirror", pageURL, "text/html,application/pdf;q=0.9")
	if err != nil {
		return 0, err
	}
	if pdf.LooksLikePDF(body) {
		return store(bytes.NewReader(body), target)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return 0, err
	}
	link := findPDFLink(body, base)
	if link == "" {
		return 0, errors.New("mirror page has no PDF link")
	}
	return f.download(ctx, link, target)
}

func copyLocal(path, target string) (int64, error) {
	path = expandHome(path)
	in, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	abs, _ := filepath.Abs(path)
	absTarget, _ := filepath.Abs(target)
	if abs == absTarget {
		// already in place; still check it is a PDF
		head := make([]byte, pdf.SniffLen)
		n, _ := io.ReadFull(in, head)
		if err := pdf.Validate(head[:n]); err != nil {
			return 0, err
		}
		st, err := in.Stat()
		if err != nil {
			return 0, err
		}
		return st.Size(), nil
	}
	return store(in, target)
}

// store validates the leading bytes of r and writes r to target atomically.
func store(r io.Reader, target string) (int64, error) {
	br := bufio.NewReaderSize(r, pdf.SniffLen)
	head, err := br.Peek(pdf.SniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, err
	}
	if err := pdf.Validate(head); err != nil {
		return 0, err
	}
	return atomicfile.WriteReader(target, br, 0644)
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
