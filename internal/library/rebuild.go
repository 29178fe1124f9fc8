package library

import (
	"fmt"
	"strings"

	"github.com/matsen/refman/internal/bibtex"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/storage"
)

// RebuildReport summarizes a rebuild.
type RebuildReport struct {
	Records   int      `json:"records"`
	Preserved []string `json:"preserved,omitempty"`
}

// Rebuild regenerates the bibliography file and the query cache from the
// index. Bibliography entries the index does not know are kept verbatim
// after the indexed ones.
func (l *Library) Rebuild() (*RebuildReport, error) {
	unlock, err := l.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	bib, err := storage.ReadBibFile(l.paths.BibPath())
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(records))
	chunks := make([]bibtex.Chunk, 0, len(records))
	for _, rec := range records {
		known[rec.Key] = true
		chunks = append(chunks, bibtex.Chunk{Key: rec.Key, Text: rec.BibEntry})
	}
	preserved := bib.Unknown(known)
	for _, k := range preserved {
		text, _ := bib.Entry(k)
		chunks = append(chunks, bibtex.Chunk{Key: k, Text: text})
	}
	bib.Reset(chunks)

	if err := bib.Save(); err != nil {
		return nil, err
	}
	if err := l.refreshCache(records); err != nil {
		return nil, fmt.Errorf("rebuilding query cache: %w", err)
	}
	return &RebuildReport{Records: len(records), Preserved: preserved}, nil
}

// List returns records in index order. A limit of 0 means all.
func (l *Library) List(limit int) ([]reference.Record, error) {
	db, err := l.cache()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.ListAll(limit)
}

// Search runs a full-text query. Field restricts it to "author" or
// "title"; empty searches key, title, authors and year.
func (l *Library) Search(query, field string, limit int) ([]reference.Record, error) {
	db, err := l.cache()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if field == "" {
		return db.Search(query, limit)
	}
	return db.SearchField(field, query, limit)
}

// Export returns the bibliography file, or only the entries for keys in
// the order given.
func (l *Library) Export(keys []string) (string, error) {
	if len(keys) == 0 {
		bib, err := storage.ReadBibFile(l.paths.BibPath())
		if err != nil {
			return "", err
		}
		return bib.String(), nil
	}

	records, err := l.Records()
	if err != nil {
		return "", err
	}
	var parts []string
	for _, k := range keys {
		i, ok := storage.FindByKey(records, k)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, k)
		}
		parts = append(parts, strings.TrimRight(records[i].BibEntry, "\n")+"\n")
	}
	return strings.Join(parts, "\n"), nil
}

// Keys lists the keys of all records.
func Keys(records []reference.Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}
