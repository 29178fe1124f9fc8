package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/refman/internal/config"
	"github.com/matsen/refman/internal/library"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/resolver"
	"github.com/matsen/refman/internal/storage"
)

// Constants for output formatting.
const (
	DefaultListLimit = 0  // list shows everything unless --limit is given
	SearchLimit      = 50 // Default limit for search results

	ListTitleMaxLen   = 50 // Used in list and search tables
	AddTitleMaxLen    = 60 // Used in add command output
	DetailTitleMaxLen = 70 // Used in get command detail view

	TextWrapWidth = 60
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitOnError reports err with the exit code matching its kind.
func exitOnError(err error) {
	exitWithError(exitCode(err), "%v", err)
}

// exitCode maps library errors to process exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, storage.ErrLocked):
		return ExitLocked
	case errors.Is(err, library.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, library.ErrConflict):
		return ExitConflict
	case resolver.IsParseError(err), errors.Is(err, reference.ErrInvalidKey):
		return ExitDataError
	case errors.Is(err, config.ErrUnknownKey):
		return ExitConfigError
	default:
		return ExitError
	}
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Key    string `json:"key,omitempty"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse is the response for config set.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= width:
			current.WriteString(" ")
			current.WriteString(word)
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return strings.Join(lines, "\n"+indent)
}

// formatAuthors formats authors as "First Last, First Last, ...", cut
// after max names with "et al.".
func formatAuthors(authors []reference.Author, max int) string {
	names := make([]string, 0, len(authors))
	for i, a := range authors {
		if max > 0 && i == max {
			names = append(names, "et al.")
			break
		}
		if a.First != "" {
			names = append(names, a.First+" "+a.Last)
		} else {
			names = append(names, a.Last)
		}
	}
	return strings.Join(names, ", ")
}
