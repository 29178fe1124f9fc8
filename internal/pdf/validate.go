// Package pdf validates, inspects and opens PDF documents.
package pdf

import (
	"bytes"
	"errors"
)

// Signature is the magic every PDF file starts with.
const Signature = "%PDF-"

// SniffLen is how many leading bytes Validate needs to decide.
const SniffLen = 1024

// Validation errors.
var (
	ErrEmpty  = errors.New("empty document")
	ErrHTML   = errors.New("got an HTML page instead of a PDF")
	ErrNotPDF = errors.New("missing %PDF- signature")
)

var htmlMarkers = [][]byte{
	[]byte("<!doctype html"),
	[]byte("<html"),
	[]byte("<head"),
	[]byte("<body"),
	[]byte("<?xml"),
}

// Validate checks the leading bytes of a downloaded document: it must be
// non-empty, must not be an HTML page, and must carry the PDF signature
// after optional leading whitespace.
func Validate(head []byte) error {
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n\f\x00")
	if len(trimmed) == 0 {
		return ErrEmpty
	}
	if bytes.HasPrefix(trimmed, []byte(Signature)) {
		return nil
	}
	lower := bytes.ToLower(trimmed)
	for _, m := range htmlMarkers {
		if bytes.HasPrefix(lower, m) {
			return ErrHTML
		}
	}
	return ErrNotPDF
}

// LooksLikePDF reports whether data passes Validate.
func LooksLikePDF(data []byte) bool {
	return Validate(data) == nil
}
