package library

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refman/internal/bibtex"
	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/resolver"
	"github.com/matsen/refman/internal/storage"
)

// Rekey renames a record: its index entry, its bibliography entry and its
// document file.
func (l *Library) Rekey(oldKey, newKey string) (*reference.Record, error) {
	newKey = strings.TrimSpace(newKey)
	if err := reference.ValidateKey(newKey); err != nil {
		return nil, err
	}

	unlock, err := l.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	i, ok := storage.FindByKey(records, oldKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, oldKey)
	}
	if oldKey == newKey {
		rec := records[i]
		return &rec, nil
	}
	if _, ok := storage.FindByKey(records, newKey); ok {
		return nil, fmt.Errorf("%w: %s", ErrConflict, newKey)
	}

	bibEntry, err := bibtex.ReplaceKey(records[i].BibEntry, newKey)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", oldKey, err)
	}

	bib, err := storage.ReadBibFile(l.paths.BibPath())
	if err != nil {
		return nil, err
	}
	if _, ok := bib.Entry(oldKey); ok {
		if err := bib.Rename(oldKey, newKey); err != nil {
			return nil, err
		}
	} else {
		bib.Put(newKey, bibEntry)
	}

	rec := records[i]
	rec.Key = newKey
	rec.BibEntry = bibEntry
	rec.UpdatedAt = l.now().UTC()
	undo, err := l.moveDocument(&rec, oldKey)
	if err != nil {
		return nil, err
	}
	records[i] = rec

	if err := l.commit(records, bib); err != nil {
		undo()
		return nil, err
	}
	return &rec, nil
}

// moveDocument renames the document of rec (still named after oldKey) to
// match rec.Key. The returned func reverses the rename.
func (l *Library) moveDocument(rec *reference.Record, oldKey string) (func(), error) {
	noop := func() {}
	if !rec.HasDocument() {
		return noop, nil
	}
	from := l.paths.DocumentPath(rec.DocumentFilename)
	to := l.paths.DocumentPath(reference.DocumentName(rec.Key))
	if !fileExists(from) {
		// verify reports it; the record still follows the new key
		l.logger.Warn("document missing, renaming record only", "key", oldKey, "document", rec.DocumentFilename)
		rec.DocumentFilename = reference.DocumentName(rec.Key)
		return noop, nil
	}
	if fileExists(to) {
		return nil, fmt.Errorf("%w: document %s", ErrConflict, to)
	}
	if err := os.Rename(from, to); err != nil {
		return nil, fmt.Errorf("renaming document: %w", err)
	}
	rec.DocumentFilename = reference.DocumentName(rec.Key)
	return func() { _ = os.Rename(to, from) }, nil
}

// Remove deletes a record, its bibliography entry and its document file.
func (l *Library) Remove(key string) (*reference.Record, error) {
	unlock, err := l.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	i, ok := storage.FindByKey(records, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	rec := records[i]

	bib, err := storage.ReadBibFile(l.paths.BibPath())
	if err != nil {
		return nil, err
	}
	bib.Remove(key)

	if err := l.commit(storage.RemoveAt(records, i), bib); err != nil {
		return nil, err
	}

	if rec.HasDocument() {
		if err := os.Remove(l.DocumentPath(rec)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &rec, fmt.Errorf("removing document: %w", err)
		}
	}
	return &rec, nil
}

// EditFunc receives an entry's text and returns the edited text.
type EditFunc func(text string) (string, error)

// Edit lets the caller rewrite a record's entry. The edited text must parse;
// otherwise nothing changes. A changed citation key is applied as a rekey.
// Edited records are no longer verified.
func (l *Library) Edit(key string, edit EditFunc) (*reference.Record, error) {
	unlock, err := l.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	i, ok := storage.FindByKey(records, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	old := records[i]

	text, err := edit(old.BibEntry)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == strings.TrimSpace(old.BibEntry) {
		return &old, nil
	}
	res, err := resolver.Literal(text)
	if err != nil {
		return nil, err
	}

	newKey := strings.TrimSpace(res.Entry.Key)
	if newKey != key {
		if err := reference.ValidateKey(newKey); err != nil {
			return nil, err
		}
		if _, ok := storage.FindByKey(records, newKey); ok {
			return nil, fmt.Errorf("%w: %s", ErrConflict, newKey)
		}
	}

	rec := reference.FromEntry(res.Entry, newKey)
	rec.DOI = res.DOI
	if ident.DOIKey(res.DOI) == ident.DOIKey(old.DOI) {
		// keep the provider's capitalization
		rec.DOI = old.DOI
	}
	rec.Identifiers = old.Identifiers
	if res.Identifiers.ArXiv != "" {
		rec.Identifiers.ArXiv = res.Identifiers.ArXiv
	}
	if res.Identifiers.PMID != "" {
		rec.Identifiers.PMID = res.Identifiers.PMID
	}
	rec.DocumentFilename = old.DocumentFilename
	rec.Verified = false
	rec.AddedAt = old.AddedAt
	rec.UpdatedAt = l.now().UTC()

	undo := func() {}
	if newKey != key {
		if undo, err = l.moveDocument(&rec, key); err != nil {
			return nil, err
		}
	}

	bib, err := storage.ReadBibFile(l.paths.BibPath())
	if err != nil {
		undo()
		return nil, err
	}
	if _, ok := bib.Entry(key); ok && newKey != key {
		if err := bib.Rename(key, newKey); err != nil {
			undo()
			return nil, err
		}
	}
	bib.Put(newKey, rec.BibEntry)

	records[i] = rec
	if err := l.commit(records, bib); err != nil {
		undo()
		return nil, err
	}
	return &rec, nil
}
