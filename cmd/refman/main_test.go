package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/matsen/refman/internal/bibtex"
	"github.com/matsen/refman/internal/config"
	"github.com/matsen/refman/internal/document"
	"github.com/matsen/refman/internal/library"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/resolver"
	"github.com/matsen/refman/internal/storage"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"add", "bibtex", "get", "list", "search", "verify", "rekey", "rm", "edit", "open", "cite", "export", "rebuild", "config"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"locked", fmt.Errorf("%w: /x/.refman.lock", storage.ErrLocked), ExitLocked},
		{"not found", fmt.Errorf("%w: k", library.ErrNotFound), ExitNotFound},
		{"conflict", fmt.Errorf("%w: k", library.ErrConflict), ExitConflict},
		{"parse", &resolver.ParseError{Err: &bibtex.ParseError{Line: 1, Msg: "bad"}}, ExitDataError},
		{"invalid key", fmt.Errorf("%w: %q", reference.ErrInvalidKey, "a/b"), ExitDataError},
		{"config key", fmt.Errorf("%w: nope", config.ErrUnknownKey), ExitConfigError},
		{"resolution", &resolver.ResolutionError{Identifier: "10.1/x", Reason: "not found at crossref"}, ExitError},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func addedResult(input, key string) library.AddResult {
	return library.AddResult{
		Input:  input,
		Action: library.ActionAdded,
		Record: &reference.Record{Key: key, Title: "A Title", DocumentFilename: key + ".pdf"},
	}
}

func TestBuildAddResponse(t *testing.T) {
	updated := addedResult("arXiv:2104.13478", "Bronstein_2021_bbbbbbb")
	updated.Action = library.ActionUpdated
	updated.Record.DocumentFilename = ""
	updated.Warning = &document.FetchFailure{Key: "Bronstein_2021_bbbbbbb"}

	resp := buildAddResponse([]library.AddResult{
		addedResult("10.1/a", "Doe_2020_aaaaaaa"),
		updated,
		{Input: "nonsense", Err: &resolver.ResolutionError{Identifier: "nonsense", Reason: "unrecognized identifier"}},
	})

	if resp.Added != 1 || resp.Updated != 1 || resp.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", resp.Added, resp.Updated, resp.Failed)
	}
	if resp.Results[0].Status != library.ActionAdded || resp.Results[0].DocumentFilename != "Doe_2020_aaaaaaa.pdf" {
		t.Errorf("Results[0] = %+v", resp.Results[0])
	}
	if !strings.Contains(resp.Results[1].Warning, "no document source") {
		t.Errorf("Results[1].Warning = %q", resp.Results[1].Warning)
	}
	if resp.Results[2].Status != statusFailed || !strings.Contains(resp.Results[2].Error, "nonsense") {
		t.Errorf("Results[2] = %+v", resp.Results[2])
	}
}

func TestAddExitCode(t *testing.T) {
	ok := addedResult("10.1/a", "Doe_2020_aaaaaaa")
	unresolved := library.AddResult{Input: "x", Err: &resolver.ResolutionError{Identifier: "x", Reason: "not found at crossref"}}
	conflict := library.AddResult{Input: "y", Err: fmt.Errorf("%w: y", library.ErrConflict)}
	locked := library.AddResult{Input: "z", Err: fmt.Errorf("%w: lock", storage.ErrLocked)}
	warned := addedResult("10.1/b", "Doe_2020_bbbbbbb")
	warned.Warning = &document.FetchFailure{Key: "Doe_2020_bbbbbbb"}

	tests := []struct {
		name    string
		results []library.AddResult
		want    int
	}{
		{"all ok", []library.AddResult{ok}, ExitSuccess},
		{"fetch warning only", []library.AddResult{warned, ok}, ExitSuccess},
		{"one unresolved in batch", []library.AddResult{ok, unresolved}, ExitError},
		{"single conflict", []library.AddResult{conflict}, ExitConflict},
		{"conflict in batch", []library.AddResult{ok, conflict}, ExitError},
		{"locked batch", []library.AddResult{locked, locked}, ExitLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := addExitCode(tt.results); got != tt.want {
				t.Errorf("addExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBibTeXInput(t *testing.T) {
	entry := "@misc{x, title={T}}"
	tests := []struct {
		name        string
		args        []string
		stdin       string
		interactive bool
		want        string
		wantErr     bool
	}{
		{"argument", []string{entry}, "ignored", false, entry, false},
		{"dash reads stdin", []string{"-"}, "\n" + entry + "\n", true, entry, false},
		{"piped stdin", nil, entry, false, entry, false},
		{"terminal without entry", nil, "", true, "", true},
		{"empty stdin", []string{"-"}, "  \n", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bibtexInput(tt.args, strings.NewReader(tt.stdin), tt.interactive)
			if (err != nil) != tt.wantErr {
				t.Fatalf("bibtexInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("bibtexInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"", []string{DefaultEditor, "/tmp/e.bib"}},
		{"  ", []string{DefaultEditor, "/tmp/e.bib"}},
		{"vim", []string{"vim", "/tmp/e.bib"}},
		{"code --wait", []string{"code", "--wait", "/tmp/e.bib"}},
	}
	for _, tt := range tests {
		c := editorCommand(tt.editor, "/tmp/e.bib")
		if strings.Join(c.Args, " ") != strings.Join(tt.want, " ") {
			t.Errorf("editorCommand(%q).Args = %v, want %v", tt.editor, c.Args, tt.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"pdf_reader":  "pdf_reader",
		"pdf-reader":  "pdf_reader",
		" MIRROR-URL": "mirror_url",
	}
	for in, want := range tests {
		if got := normalizeKey(in); got != want {
			t.Errorf("normalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title here", 10, "a longe..."},
		{"Schrödinger équation", 10, "Schrödi..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four five", 9, "  ")
	want := "one two\n  three\n  four five"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
}

func TestFormatAuthors(t *testing.T) {
	authors := []reference.Author{
		{First: "Jane", Last: "Doe"},
		{Last: "Collaboration"},
		{First: "R.", Last: "Roe"},
	}
	if got := formatAuthors(authors, 0); got != "Jane Doe, Collaboration, R. Roe" {
		t.Errorf("formatAuthors(all) = %q", got)
	}
	if got := formatAuthors(authors, 2); got != "Jane Doe, Collaboration, et al." {
		t.Errorf("formatAuthors(2) = %q", got)
	}
}

func TestMatchingKeys(t *testing.T) {
	records := []reference.Record{{Key: "Doe_2020_aaaaaaa"}, {Key: "Doe_2021_bbbbbbb"}, {Key: "Roe_2020_ccccccc"}}
	got := matchingKeys(records, "Doe_")
	if strings.Join(got, ",") != "Doe_2020_aaaaaaa,Doe_2021_bbbbbbb" {
		t.Errorf("matchingKeys(Doe_) = %v", got)
	}
	if got := matchingKeys(records, "X"); len(got) != 0 {
		t.Errorf("matchingKeys(X) = %v", got)
	}
}
