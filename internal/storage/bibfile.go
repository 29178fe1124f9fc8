package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refman/internal/atomicfile"
	"github.com/matsen/refman/internal/bibtex"
)

// BibFile is the bibliography file held in memory as verbatim chunks.
// Entries it does not touch are written back byte for byte.
type BibFile struct {
	path   string
	chunks []bibtex.Chunk
}

// ReadBibFile loads path. A missing file is an empty bibliography.
func ReadBibFile(path string) (*BibFile, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return &BibFile{path: path, chunks: bibtex.Split(string(data))}, nil
}

// Keys lists citation keys in file order.
func (b *BibFile) Keys() []string {
	var keys []string
	for _, c := range b.chunks {
		if c.Key != "" {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Entry returns the verbatim text of the entry with key.
func (b *BibFile) Entry(key string) (string, bool) {
	if i := b.index(key); i >= 0 {
		return b.chunks[i].Text, true
	}
	return "", false
}

// Put replaces the entry with key, or appends it after a blank line.
func (b *BibFile) Put(key, text string) {
	text = strings.TrimRight(text, "\n")
	if i := b.index(key); i >= 0 {
		b.chunks[i].Text = text
		return
	}
	sep := ""
	if n := len(b.chunks); n > 0 {
		last := b.chunks[n-1].Text
		switch {
		case strings.HasSuffix(last, "\n\n"):
		case strings.HasSuffix(last, "\n"):
			sep = "\n"
		default:
			sep = "\n\n"
		}
	}
	if sep != "" {
		b.chunks = appendChunkText(b.chunks, sep)
	}
	b.chunks = append(b.chunks, bibtex.Chunk{Key: key, Text: text}, bibtex.Chunk{Text: "\n"})
}

// Remove deletes the entry with key. Blank lines around it collapse so
// the remaining entries stay separated by exactly one blank line.
func (b *BibFile) Remove(key string) bool {
	i := b.index(key)
	if i < 0 {
		return false
	}
	b.chunks = append(b.chunks[:i], b.chunks[i+1:]...)
	if i > 0 && i < len(b.chunks) && b.chunks[i-1].Key == "" && b.chunks[i].Key == "" {
		b.chunks[i-1].Text += b.chunks[i].Text
		b.chunks = append(b.chunks[:i], b.chunks[i+1:]...)
	}

	gap := -1
	switch {
	case i > 0 && b.chunks[i-1].Key == "":
		gap = i - 1
	case i < len(b.chunks) && b.chunks[i].Key == "":
		gap = i
	}
	if gap < 0 || strings.TrimSpace(b.chunks[gap].Text) != "" {
		return true
	}
	before, after := gap > 0, gap+1 < len(b.chunks)
	switch {
	case before && after:
		b.chunks[gap].Text = "\n\n"
	case before:
		b.chunks[gap].Text = "\n"
	default:
		b.chunks = append(b.chunks[:gap], b.chunks[gap+1:]...)
	}
	return true
}

// Rename rewrites the citation key of an entry in place.
func (b *BibFile) Rename(oldKey, newKey string) error {
	i := b.index(oldKey)
	if i < 0 {
		return fmt.Errorf("bibliography has no entry %s", oldKey)
	}
	text, err := bibtex.ReplaceKey(b.chunks[i].Text, newKey)
	if err != nil {
		return fmt.Errorf("renaming %s: %w", oldKey, err)
	}
	b.chunks[i] = bibtex.Chunk{Key: newKey, Text: text}
	return nil
}

// Reset replaces the whole file with entries in the given order.
func (b *BibFile) Reset(entries []bibtex.Chunk) {
	b.chunks = nil
	for i, e := range entries {
		if i > 0 {
			b.chunks = appendChunkText(b.chunks, "\n")
		}
		b.chunks = append(b.chunks, bibtex.Chunk{Key: e.Key, Text: strings.TrimRight(e.Text, "\n")}, bibtex.Chunk{Text: "\n"})
	}
}

// Unknown lists keys present in the file but not in known.
func (b *BibFile) Unknown(known map[string]bool) []string {
	var keys []string
	for _, k := range b.Keys() {
		if !known[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// String returns the file contents.
func (b *BibFile) String() string {
	return bibtex.Join(b.chunks)
}

// Save writes the file atomically.
func (b *BibFile) Save() error {
	if err := atomicfile.WriteFile(b.path, []byte(b.String()), 0); err != nil {
		return fmt.Errorf("writing bibliography: %w", err)
	}
	return nil
}

func (b *BibFile) index(key string) int {
	for i, c := range b.chunks {
		if c.Key != "" && c.Key == key {
			return i
		}
	}
	return -1
}

func appendChunkText(chunks []bibtex.Chunk, s string) []bibtex.Chunk {
	if n := len(chunks); n > 0 && chunks[n-1].Key == "" {
		chunks[n-1].Text += s
		return chunks
	}
	return append(chunks, bibtex.Chunk{Text: s})
}
