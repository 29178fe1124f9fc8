package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/pdf"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/storage"
)

// Lookup finds a record by key, DOI, arXiv ID, PMID or URL.
func (l *Library) Lookup(query string) (*reference.Record, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	i, ok := find(records, query)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(query))
	}
	rec := records[i]
	return &rec, nil
}

func find(records []reference.Record, query string) (int, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return -1, false
	}
	if i, ok := storage.FindByKey(records, query); ok {
		return i, true
	}
	id, err := ident.Classify(query)
	if err != nil {
		return -1, false
	}
	switch id.Kind {
	case ident.KindDOI:
		return storage.FindByDOI(records, id.Value)
	case ident.KindArXiv:
		return storage.FindByArXiv(records, id.Value)
	case ident.KindPMID:
		return storage.FindByPMID(records, id.Value)
	case ident.KindURL:
		if i, ok := storage.FindByURL(records, id.Value); ok {
			return i, true
		}
		switch embedded := ident.FromURL(id.Value); embedded.Kind {
		case ident.KindDOI:
			return storage.FindByDOI(records, embedded.Value)
		case ident.KindArXiv:
			return storage.FindByArXiv(records, embedded.Value)
		case ident.KindPMID:
			return storage.FindByPMID(records, embedded.Value)
		}
	}
	return -1, false
}

// Problems reported by Verify.
const (
	ProblemMissing    = "missing"
	ProblemUnreadable = "unreadable"
	ProblemNotBib     = "not in bibliography"
)

// Issue is one inconsistency found by Verify.
type Issue struct {
	Key              string `json:"key"`
	DocumentFilename string `json:"document_filename,omitempty"`
	Problem          string `json:"problem"`
	Detail           string `json:"detail,omitempty"`
}

// VerifyReport lists what Verify found. Missing holds exactly the records
// whose document file is absent.
type VerifyReport struct {
	Records   int      `json:"records"`
	Documents int      `json:"documents"`
	Missing   []Issue  `json:"missing"`
	Issues    []Issue  `json:"issues,omitempty"`
	Orphans   []string `json:"orphans,omitempty"`
	Unindexed []string `json:"unindexed_entries,omitempty"`
}

// OK reports whether the store is consistent.
func (r *VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Issues) == 0 && len(r.Orphans) == 0
}

// Verify checks that every recorded document exists. Deep also opens each
// document as a PDF, checks the bibliography file against the index and
// lists documents no record references. Nothing is repaired.
func (l *Library) Verify(deep bool) (*VerifyReport, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Records: len(records), Missing: []Issue{}}
	referenced := map[string]bool{}
	for _, rec := range records {
		if !rec.HasDocument() {
			continue
		}
		report.Documents++
		referenced[rec.DocumentFilename] = true
		path := l.DocumentPath(rec)
		if !fileExists(path) {
			report.Missing = append(report.Missing, Issue{Key: rec.Key, DocumentFilename: rec.DocumentFilename, Problem: ProblemMissing})
			continue
		}
		if deep {
			if _, err := pdf.Inspect(path); err != nil {
				report.Issues = append(report.Issues, Issue{Key: rec.Key, DocumentFilename: rec.DocumentFilename, Problem: ProblemUnreadable, Detail: err.Error()})
			}
		}
	}
	if !deep {
		return report, nil
	}

	bib, err := storage.ReadBibFile(l.paths.BibPath())
	if err != nil {
		return nil, err
	}
	inBib := map[string]bool{}
	for _, k := range bib.Keys() {
		inBib[k] = true
	}
	known := map[string]bool{}
	for _, rec := range records {
		known[rec.Key] = true
		if !inBib[rec.Key] {
			report.Issues = append(report.Issues, Issue{Key: rec.Key, Problem: ProblemNotBib})
		}
	}
	report.Unindexed = bib.Unknown(known)

	entries, err := os.ReadDir(l.paths.DocumentsPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading document directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		if !referenced[name] {
			report.Orphans = append(report.Orphans, name)
		}
	}
	sort.Strings(report.Orphans)
	return report, nil
}
