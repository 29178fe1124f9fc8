// Package reference defines the Record stored for each paper and the rules
// for deriving its key.
package reference

import (
	"fmt"
	"time"

	"github.com/matsen/refman/internal/bibtex"
)

// Record is one row of the reference index.
type Record struct {
	// Identity
	Key         string      `json:"key"`           // Citation key and document filename stem
	DOI         string      `json:"doi,omitempty"` // Normalized DOI, original case
	Identifiers Identifiers `json:"identifiers"`

	// Bibliographic entry with Key as its citation key
	BibEntry string `json:"bib_entry"`

	// Display fields, plain text
	Title     string   `json:"title"`
	Author    string   `json:"author"` // First author, "Last, First"
	Authors   []Author `json:"authors,omitempty"`
	Year      string   `json:"year,omitempty"`
	EntryType string   `json:"entry_type"`

	// Document file name relative to the papers directory; empty when no
	// document was fetched.
	DocumentFilename string `json:"document_filename"`

	// Verified is true when the metadata came from an authoritative provider.
	Verified bool `json:"verified"`

	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identifiers holds the non-DOI identifiers a Record was resolved from.
type Identifiers struct {
	ArXiv string `json:"arxiv,omitempty"`
	PMID  string `json:"pmid,omitempty"`
	URL   string `json:"url,omitempty"`
}

// IsZero reports whether no identifier is set.
func (ids Identifiers) IsZero() bool {
	return ids == Identifiers{}
}

// DocumentName returns the document filename for key.
func DocumentName(key string) string {
	return key + ".pdf"
}

// FromEntry builds a Record from a parsed entry. The entry's citation key
// is replaced by key and the display fields are filled from its fields.
func FromEntry(e bibtex.Entry, key string) Record {
	e = e.Clone()
	e.Key = key
	authors := ParseAuthors(e.Get("author"))
	r := Record{
		Key:       key,
		BibEntry:  e.Format(),
		Title:     bibtex.PlainText(e.Get("title")),
		Authors:   authors,
		Year:      extractYear(e.Get("year")),
		EntryType: lowerASCII(e.Type),
	}
	if len(authors) > 0 {
		r.Author = authors[0].String()
	}
	return r
}

// Entry parses the stored bibliographic entry.
func (r Record) Entry() (bibtex.Entry, error) {
	e, err := bibtex.ParseOne(r.BibEntry)
	if err != nil {
		return bibtex.Entry{}, fmt.Errorf("record %s: %w", r.Key, err)
	}
	return e, nil
}

// HasDocument reports whether a document filename is recorded.
func (r Record) HasDocument() bool {
	return r.DocumentFilename != ""
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
