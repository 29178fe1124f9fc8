// Package resolver turns an identifier into a BibTeX entry by asking the
// provider that owns it.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/matsen/refman/internal/arxiv"
	"github.com/matsen/refman/internal/bibtex"
	"github.com/matsen/refman/internal/crossref"
	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/logging"
	"github.com/matsen/refman/internal/pdf"
	"github.com/matsen/refman/internal/provider"
	"github.com/matsen/refman/internal/pubmed"
	"github.com/matsen/refman/internal/reference"
)

// Crossref is the DOI metadata provider.
type Crossref interface {
	BibTeX(ctx context.Context, doi string) (string, error)
	Work(ctx context.Context, doi string) (*crossref.Work, error)
}

// ArXiv is the arXiv metadata provider.
type ArXiv interface {
	Lookup(ctx context.Context, id string) (*arxiv.Article, error)
}

// PubMed maps PMIDs to DOIs or summaries.
type PubMed interface {
	Lookup(ctx context.Context, pmid string) (*pubmed.Result, error)
}

// Pages fetches arbitrary web pages.
type Pages interface {
	Get(ctx context.Context, name, url, accept string) ([]byte, error)
}

// Resolution is a resolved identifier.
type Resolution struct {
	Input       ident.Identifier
	Entry       bibtex.Entry
	DOI         string
	Identifiers reference.Identifiers
	// PDFLinks are document locations advertised by the provider.
	PDFLinks []string
	Verified bool
	Source   string
}

// Resolver dispatches identifiers to providers.
type Resolver struct {
	crossref Crossref
	arxiv    ArXiv
	pubmed   PubMed
	pages    Pages
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New creates a Resolver.
func New(cr Crossref, ax ArXiv, pm PubMed, pages Pages, opts ...Option) *Resolver {
	r := &Resolver{
		crossref: cr,
		arxiv:    ax,
		pubmed:   pm,
		pages:    pages,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify parses raw as an identifier, of the forced kind if kind is set.
// Failures are ResolutionErrors naming the input.
func Classify(raw string, kind ident.Kind) (ident.Identifier, error) {
	var (
		id  ident.Identifier
		err error
	)
	if kind != "" {
		id, err = ident.As(kind, raw)
	} else {
		id, err = ident.Classify(raw)
	}
	if err != nil {
		return ident.Identifier{}, &ResolutionError{Identifier: strings.TrimSpace(raw), Reason: "unrecognized identifier", Err: err}
	}
	return id, nil
}

// Resolve obtains the entry for id.
func (r *Resolver) Resolve(ctx context.Context, id ident.Identifier) (*Resolution, error) {
	switch id.Kind {
	case ident.KindBibTeX:
		return r.literal(id)
	case ident.KindDOI:
		return r.doi(ctx, id, id.Value, reference.Identifiers{})
	case ident.KindArXiv:
		return r.arxivID(ctx, id, id.Value, reference.Identifiers{})
	case ident.KindPMID:
		return r.pmid(ctx, id)
	case ident.KindURL:
		return r.url(ctx, id)
	default:
		return nil, &ResolutionError{Identifier: id.String(), Reason: fmt.Sprintf("unsupported identifier kind %q", id.Kind)}
	}
}

// Literal parses a BibTeX entry supplied by the user. No network access.
func Literal(text string) (*Resolution, error) {
	entry, err := bibtex.ParseOne(text)
	if err != nil {
		return nil, asParseError(err)
	}

	res := &Resolution{
		Input:  ident.Identifier{Kind: ident.KindBibTeX, Value: text, Raw: text},
		Entry:  entry,
		Source: "bibtex",
	}
	if doi := entry.Get("doi"); doi != "" {
		if id, err := ident.As(ident.KindDOI, doi); err == nil {
			res.DOI = id.Value
		}
	}
	if strings.EqualFold(entry.Get("archiveprefix"), "arxiv") || strings.EqualFold(entry.Get("eprinttype"), "arxiv") {
		if id, err := ident.As(ident.KindArXiv, entry.Get("eprint")); err == nil {
			res.Identifiers.ArXiv = id.Value
		}
	}
	if pmid := entry.Get("pmid"); pmid != "" {
		if id, err := ident.As(ident.KindPMID, pmid); err == nil {
			res.Identifiers.PMID = id.Value
		}
	}
	return res, nil
}

func (r *Resolver) literal(id ident.Identifier) (*Resolution, error) {
	r.logger.Info("parsing bibtex entry")
	res, err := Literal(id.Value)
	if err != nil {
		return nil, err
	}
	res.Input = id
	return res, nil
}

func (r *Resolver) doi(ctx context.Context, input ident.Identifier, doi string, ids reference.Identifiers) (*Resolution, error) {
	r.logger.Info("retrieving bibtex entry", "identifier", input.String(), "source", "crossref")
	text, err := r.crossref.BibTeX(ctx, doi)
	if err != nil {
		return nil, resolutionError(input, "crossref", err)
	}
	entry, err := bibtex.ParseOne(text)
	if err != nil {
		return nil, &ResolutionError{Identifier: input.String(), Reason: "crossref returned a malformed entry", Err: err}
	}
	if !entry.Has("doi") {
		entry.Set("doi", doi)
	}

	res := &Resolution{
		Input:       input,
		Entry:       entry,
		DOI:         doi,
		Identifiers: ids,
		Verified:    true,
		Source:      "crossref",
	}
	if work, err := r.crossref.Work(ctx, doi); err != nil {
		r.logger.Debug("no crossref work metadata", "doi", doi, "error", err)
	} else {
		res.PDFLinks = work.PDFLinks()
	}
	return res, nil
}

func (r *Resolver) arxivID(ctx context.Context, input ident.Identifier, id string, ids reference.Identifiers) (*Resolution, error) {
	r.logger.Info("retrieving bibtex entry", "identifier", input.String(), "source", "arxiv")
	article, err := r.arxiv.Lookup(ctx, id)
	if err != nil {
		return nil, resolutionError(input, "arxiv", err)
	}
	ids.ArXiv = id

	res := &Resolution{
		Input:       input,
		Entry:       article.Entry(),
		Identifiers: ids,
		Verified:    true,
		Source:      "arxiv",
	}
	if article.DOI != "" {
		if d, err := ident.As(ident.KindDOI, article.DOI); err == nil {
			res.DOI = d.Value
		}
	}
	return res, nil
}

func (r *Resolver) pmid(ctx context.Context, input ident.Identifier) (*Resolution, error) {
	r.logger.Info("retrieving bibtex entry", "identifier", input.String(), "source", "pubmed")
	result, err := r.pubmed.Lookup(ctx, input.Value)
	if err != nil {
		return nil, resolutionError(input, "pubmed", err)
	}
	ids := reference.Identifiers{PMID: input.Value}

	if result.DOI != "" {
		if d, err := ident.As(ident.KindDOI, result.DOI); err == nil {
			res, err := r.doi(ctx, input, d.Value, ids)
			if err == nil || result.Summary == nil {
				return res, err
			}
			r.logger.Warn("crossref lookup failed, using pubmed summary", "identifier", input.String(), "error", err)
		}
	}
	if result.Summary == nil {
		return nil, &ResolutionError{Identifier: input.String(), Reason: "pubmed returned no DOI and no summary", Err: provider.ErrNotFound}
	}

	res := &Resolution{
		Input:       input,
		Entry:       result.Summary.Entry(),
		Identifiers: ids,
		Verified:    true,
		Source:      "pubmed",
	}
	if d, err := ident.As(ident.KindDOI, result.DOI); err == nil {
		res.DOI = d.Value
	}
	return res, nil
}

func (r *Resolver) url(ctx context.Context, input ident.Identifier) (*Resolution, error) {
	ids := reference.Identifiers{URL: input.Value}

	switch embedded := ident.FromURL(input.Value); embedded.Kind {
	case ident.KindDOI:
		return r.doi(ctx, input, embedded.Value, ids)
	case ident.KindArXiv:
		return r.arxivID(ctx, input, embedded.Value, ids)
	case ident.KindPMID:
		res, err := r.pmid(ctx, ident.Identifier{Kind: ident.KindPMID, Value: embedded.Value, Raw: input.Raw})
		if err != nil {
			return nil, err
		}
		res.Input = input
		res.Identifiers.URL = input.Value
		return res, nil
	}

	r.logger.Info("retrieving landing page", "identifier", input.String())
	body, err := r.pages.Get(ctx, "page", input.Value, "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, resolutionError(input, "page", err)
	}

	var meta pageMeta
	if pdf.LooksLikePDF(body) {
		doi, err := pdf.ExtractDOIBytes(body)
		if err != nil {
			r.logger.Debug("cannot read linked pdf", "url", input.Value, "error", err)
		}
		meta = pageMeta{DOI: doi, PDF: input.Value}
	} else {
		base, _ := url.Parse(input.Value)
		meta = scanPage(body, base)
	}

	var res *Resolution
	switch {
	case meta.DOI != "":
		res, err = r.doi(ctx, input, meta.DOI, ids)
	case meta.ArXiv != "":
		res, err = r.arxivID(ctx, input, meta.ArXiv, ids)
	default:
		return nil, &ResolutionError{Identifier: input.String(), Reason: "no DOI or arXiv ID found at URL", Err: provider.ErrNotFound}
	}
	if err != nil {
		return nil, err
	}
	if meta.PDF != "" {
		res.PDFLinks = append([]string{meta.PDF}, res.PDFLinks...)
	}
	return res, nil
}

func resolutionError(input ident.Identifier, source string, err error) error {
	reason := source + " request failed"
	switch {
	case provider.IsNotFound(err):
		reason = "not found at " + source
	case errors.Is(err, context.Canceled):
		reason = "cancelled"
	}
	return &ResolutionError{Identifier: input.String(), Reason: reason, Err: err}
}
