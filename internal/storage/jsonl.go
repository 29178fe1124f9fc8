// Package storage persists the reference index (JSONL), the bibliography
// file and the SQLite query cache, and guards them with a store lock.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refman/internal/atomicfile"
	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines.
// Records carry the abstract inside bib_entry, so lines can be long.
const MaxJSONLLineCapacity = 4 * 1024 * 1024

// ReadAll reads all records from a JSONL file. A missing file is an empty index.
func ReadAll(path string) ([]reference.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	var records []reference.Record
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var r reference.Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("parsing index line %d: %w", lineNum, err)
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	return records, nil
}

// WriteAll replaces the JSONL file with records, atomically.
func WriteAll(path string, records []reference.Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding record %s: %w", r.Key, err)
		}
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// FindByKey searches for a record by key.
func FindByKey(records []reference.Record, key string) (int, bool) {
	for i, r := range records {
		if r.Key == key {
			return i, true
		}
	}
	return -1, false
}

// FindByDOI searches for a record by DOI, ignoring case and URL prefixes.
func FindByDOI(records []reference.Record, doi string) (int, bool) {
	want := ident.DOIKey(doi)
	if want == "" {
		return -1, false
	}
	for i, r := range records {
		if r.DOI != "" && ident.DOIKey(r.DOI) == want {
			return i, true
		}
	}
	return -1, false
}

// FindByArXiv searches for a record by arXiv ID, ignoring any version suffix.
func FindByArXiv(records []reference.Record, id string) (int, bool) {
	want := ident.NormalizeArXiv(id)
	if want == "" {
		return -1, false
	}
	for i, r := range records {
		if r.Identifiers.ArXiv != "" && ident.NormalizeArXiv(r.Identifiers.ArXiv) == want {
			return i, true
		}
	}
	return -1, false
}

// FindByPMID searches for a record by PubMed ID.
func FindByPMID(records []reference.Record, pmid string) (int, bool) {
	pmid = strings.TrimSpace(pmid)
	if pmid == "" {
		return -1, false
	}
	for i, r := range records {
		if r.Identifiers.PMID == pmid {
			return i, true
		}
	}
	return -1, false
}

// FindByURL searches for a record by the URL it was added from.
func FindByURL(records []reference.Record, u string) (int, bool) {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return -1, false
	}
	for i, r := range records {
		if r.Identifiers.URL != "" && strings.TrimRight(r.Identifiers.URL, "/") == u {
			return i, true
		}
	}
	return -1, false
}

// FindDuplicate returns the first record sharing any identifier with
// doi or ids, checked in the order DOI, arXiv, PMID, URL.
func FindDuplicate(records []reference.Record, doi string, ids reference.Identifiers) (int, bool) {
	if i, ok := FindByDOI(records, doi); ok {
		return i, true
	}
	if ids.ArXiv != "" {
		if i, ok := FindByArXiv(records, ids.ArXiv); ok {
			return i, true
		}
	}
	if i, ok := FindByPMID(records, ids.PMID); ok {
		return i, true
	}
	return FindByURL(records, ids.URL)
}

// Upsert replaces the record with the same key, or appends r.
// It returns true when an existing record was replaced.
func Upsert(records []reference.Record, r reference.Record) ([]reference.Record, bool) {
	if i, ok := FindByKey(records, r.Key); ok {
		records[i] = r
		return records, true
	}
	return append(records, r), false
}

// RemoveAt deletes the record at index i, keeping order.
func RemoveAt(records []reference.Record, i int) []reference.Record {
	return append(records[:i], records[i+1:]...)
}
