package resolver

import (
	"errors"
	"fmt"

	"github.com/matsen/refman/internal/bibtex"
)

// ResolutionError reports that no metadata could be obtained for an
// identifier.
type ResolutionError struct {
	Identifier string
	Reason     string
	Err        error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("cannot resolve %s: %s", e.Identifier, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ParseError reports a malformed literal BibTeX entry.
type ParseError struct {
	Err *bibtex.ParseError
}

func (e *ParseError) Error() string {
	return "invalid bibtex entry: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsResolutionError reports whether err is or wraps a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// asParseError converts a bibtex parse failure into a ParseError.
func asParseError(err error) error {
	var bpe *bibtex.ParseError
	if errors.As(err, &bpe) {
		return &ParseError{Err: bpe}
	}
	return &ParseError{Err: &bibtex.ParseError{Msg: err.Error()}}
}
