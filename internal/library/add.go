package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refman/internal/document"
	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/pdf"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/resolver"
	"github.com/matsen/refman/internal/storage"
)

// Actions reported per added identifier.
const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
)

// AddRequest is one identifier to add.
type AddRequest struct {
	Input string
	// Kind forces the identifier kind; empty means infer it.
	Kind ident.Kind
	// Key overrides the derived key.
	Key string
	// PDF is a local path or URL tried before any other document source.
	PDF   string
	NoPDF bool
}

// AddResult reports the outcome for one identifier. Err is set when the
// identifier could not be resolved or stored; Warning when the record was
// stored without a document.
type AddResult struct {
	Input    string
	Record   *reference.Record
	Action   string
	Document *document.Result
	Warning  *document.FetchFailure
	Err      error
}

// Add resolves and stores each request in turn. A failure affects only its
// own result. The store lock is held for the whole batch; if it cannot be
// taken every result carries the lock error.
func (l *Library) Add(ctx context.Context, reqs []AddRequest) []AddResult {
	results := make([]AddResult, len(reqs))
	for i, req := range reqs {
		results[i].Input = req.Input
	}

	unlock, err := l.lock()
	if err != nil {
		for i := range results {
			results[i].Err = err
		}
		return results
	}
	defer unlock()

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		results[i] = l.addOne(ctx, req)
	}
	return results
}

func (l *Library) addOne(ctx context.Context, req AddRequest) AddResult {
	result := AddResult{Input: req.Input}

	id, err := resolver.Classify(req.Input, req.Kind)
	if err != nil {
		result.Err = err
		return result
	}

	var res *resolver.Resolution
	if id.Kind == ident.KindBibTeX {
		res, err = resolver.Literal(id.Value)
	} else if l.resolver == nil {
		err = fmt.Errorf("no resolver configured for %s", id)
	} else {
		res, err = l.resolver.Resolve(ctx, id)
	}
	if err != nil {
		result.Err = err
		return result
	}

	l.store(ctx, res, req, &result)
	return result
}

// BibTeXRequest adds a literal entry.
type BibTeXRequest struct {
	Text  string
	Key   string
	PDF   string
	NoPDF bool
}

// AddBibTeX stores a literal BibTeX entry without any metadata lookup.
// When the entry has no DOI and PDF is a local file, the DOI printed in the
// document is recorded.
func (l *Library) AddBibTeX(ctx context.Context, req BibTeXRequest) AddResult {
	result := AddResult{Input: strings.TrimSpace(req.Text)}

	res, err := resolver.Literal(req.Text)
	if err != nil {
		result.Err = err
		return result
	}

	if res.DOI == "" && req.PDF != "" && !isURL(req.PDF) {
		if doi, err := pdf.ExtractDOI(req.PDF); err != nil {
			l.logger.Debug("cannot read DOI from document", "path", req.PDF, "error", err)
		} else if doi != "" {
			l.logger.Info("found DOI in document", "doi", doi)
			res.DOI = doi
			res.Entry.Set("doi", doi)
		}
	}

	unlock, err := l.lock()
	if err != nil {
		result.Err = err
		return result
	}
	defer unlock()

	l.store(ctx, res, AddRequest{Key: req.Key, PDF: req.PDF, NoPDF: req.NoPDF}, &result)
	return result
}

// store derives the key, fetches the document and writes the record. The
// caller holds the lock.
func (l *Library) store(ctx context.Context, res *resolver.Resolution, req AddRequest, result *AddResult) {
	records, err := l.Records()
	if err != nil {
		result.Err = err
		return
	}

	override := strings.TrimSpace(req.Key)
	var existing *reference.Record
	if i, ok := storage.FindDuplicate(records, res.DOI, res.Identifiers); ok {
		existing = &records[i]
		if override != "" && override != existing.Key {
			result.Err = fmt.Errorf("%w: %s is already stored as %s (use rekey to rename it)", ErrConflict, describe(res), existing.Key)
			return
		}
		override = existing.Key
	}

	key, err := reference.DeriveKey(res.Entry, override)
	if err != nil {
		result.Err = err
		return
	}
	if existing == nil {
		if i, ok := storage.FindByKey(records, key); ok {
			existing = &records[i]
		}
	}

	now := l.now().UTC()
	rec := reference.FromEntry(res.Entry, key)
	rec.DOI = res.DOI
	rec.Identifiers = res.Identifiers
	rec.Verified = res.Verified
	rec.AddedAt = now
	rec.UpdatedAt = now
	result.Action = ActionAdded
	if existing != nil {
		result.Action = ActionUpdated
		rec.AddedAt = existing.AddedAt
		mergeIdentifiers(&rec, *existing)
		if existing.HasDocument() && fileExists(l.DocumentPath(*existing)) {
			rec.DocumentFilename = existing.DocumentFilename
		}
	}

	l.logger.Info("storing record", "key", key, "action", result.Action)

	if !req.NoPDF && (req.PDF != "" || !rec.HasDocument()) {
		l.fetchDocument(ctx, &rec, res, req.PDF, result)
		if result.Err != nil {
			return
		}
	}

	bib, err := storage.ReadBibFile(l.paths.BibPath())
	if err != nil {
		result.Err = err
		return
	}
	bib.Put(key, rec.BibEntry)

	records, _ = storage.Upsert(records, rec)
	if err := l.commit(records, bib); err != nil {
		result.Err = err
		return
	}
	result.Record = &rec
}

func (l *Library) fetchDocument(ctx context.Context, rec *reference.Record, res *resolver.Resolution, userSource string, result *AddResult) {
	if l.fetcher == nil {
		return
	}
	doc, err := l.fetcher.Fetch(ctx, document.Request{
		Key:        rec.Key,
		UserSource: userSource,
		ArXiv:      rec.Identifiers.ArXiv,
		DOI:        rec.DOI,
		Links:      res.PDFLinks,
	})
	var failure *document.FetchFailure
	switch {
	case err == nil:
		rec.DocumentFilename = doc.Filename
		result.Document = doc
	case errors.As(err, &failure):
		l.logger.Warn("no document stored", "key", rec.Key, "attempts", len(failure.Attempts))
		result.Warning = failure
	case errors.Is(err, context.Canceled):
		result.Err = err
	default:
		// any other fetch error is still only a warning for the record
		l.logger.Warn("document fetch failed", "key", rec.Key, "error", err)
		result.Warning = &document.FetchFailure{Key: rec.Key, Attempts: []document.Attempt{{Source: "fetch", Err: err.Error()}}}
	}
}

// mergeIdentifiers keeps identifiers known for the old record that the new
// resolution did not report.
func mergeIdentifiers(rec *reference.Record, old reference.Record) {
	if rec.DOI == "" {
		rec.DOI = old.DOI
	}
	if rec.Identifiers.ArXiv == "" {
		rec.Identifiers.ArXiv = old.Identifiers.ArXiv
	}
	if rec.Identifiers.PMID == "" {
		rec.Identifiers.PMID = old.Identifiers.PMID
	}
	if rec.Identifiers.URL == "" {
		rec.Identifiers.URL = old.Identifiers.URL
	}
}

func describe(res *resolver.Resolution) string {
	switch {
	case res.DOI != "":
		return "doi " + res.DOI
	case res.Identifiers.ArXiv != "":
		return "arXiv " + res.Identifiers.ArXiv
	case res.Identifiers.PMID != "":
		return "pmid " + res.Identifiers.PMID
	case res.Identifiers.URL != "":
		return res.Identifiers.URL
	}
	return "entry"
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
