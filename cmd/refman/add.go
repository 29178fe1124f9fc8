package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/clipboard"
	"github.com/matsen/refman/internal/document"
	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/library"
	"github.com/matsen/refman/internal/storage"
)

var (
	addPDF   string
	addKey   string
	addType  string
	addNoPDF bool
	addCopy  bool
)

func init() {
	addCmd.Flags().StringVar(&addPDF, "pdf", "", "Local path or URL of the PDF, tried before any other source")
	addCmd.Flags().StringVar(&addKey, "key", "", "Use this citation key instead of the derived one (single identifier only)")
	addCmd.Flags().StringVar(&addType, "type", "", "Force the identifier type: doi, arxiv, pmid, url, bibtex")
	addCmd.Flags().BoolVar(&addNoPDF, "no-pdf", false, "Do not download a PDF")
	addCmd.Flags().BoolVar(&addCopy, "copy", false, "Copy \\cite{...} for the added keys to the clipboard")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <identifier>...",
	Short: "Add papers by DOI, arXiv ID, PubMed ID or URL",
	Long: `Add papers to the library.

Each identifier is resolved to a BibTeX entry, given a key of the form
Surname_Year_hash and stored together with its PDF. Identifiers are
processed in order; a failure affects only that identifier. A PDF that
cannot be downloaded is reported as a warning and the entry is kept.

The identifier type is inferred unless --type is given.

Examples:
  refman add 10.1103/PhysRevLett.116.061102
  refman add arXiv:2104.13478 pmid:31452104
  refman add https://www.nature.com/articles/nature14539 --pdf ~/Downloads/lecun.pdf
  refman add 10.1000/xyz --key Smith_2020_classic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

// AddItem reports one identifier of an add or bibtex command.
type AddItem struct {
	Input            string           `json:"input"`
	Status           string           `json:"status"` // added, updated, failed
	Key              string           `json:"key,omitempty"`
	Title            string           `json:"title,omitempty"`
	DocumentFilename string           `json:"document_filename,omitempty"`
	Document         *document.Result `json:"document,omitempty"`
	Warning          string           `json:"warning,omitempty"`
	Error            string           `json:"error,omitempty"`
}

// AddResponse is the response for add and bibtex.
type AddResponse struct {
	Results []AddItem `json:"results"`
	Added   int       `json:"added"`
	Updated int       `json:"updated"`
	Failed  int       `json:"failed"`
	Cite    string    `json:"cite,omitempty"`
	Copied  bool      `json:"copied,omitempty"`
}

const statusFailed = "failed"

func runAdd(cmd *cobra.Command, args []string) error {
	if addKey != "" && len(args) > 1 {
		exitWithError(ExitError, "--key can only be used with a single identifier")
	}
	var kind ident.Kind
	if addType != "" {
		k, err := ident.ParseKind(addType)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		kind = k
	}

	lib := mustOpenLibrary()

	reqs := make([]library.AddRequest, len(args))
	for i, arg := range args {
		reqs[i] = library.AddRequest{
			Input: arg,
			Kind:  kind,
			Key:   addKey,
			PDF:   addPDF,
			NoPDF: addNoPDF,
		}
	}
	results := lib.Add(cmd.Context(), reqs)
	reportAdd(results, addCopy)
	return nil
}

// reportAdd prints the add results and exits non-zero if any identifier
// failed.
func reportAdd(results []library.AddResult, copyCite bool) {
	resp := buildAddResponse(results)

	if copyCite && len(resp.Results) > resp.Failed {
		var keys []string
		for _, item := range resp.Results {
			if item.Status != statusFailed {
				keys = append(keys, item.Key)
			}
		}
		resp.Cite = clipboard.Cite(keys...)
		if err := clipboard.Copy(resp.Cite); err != nil {
			fmt.Fprintf(os.Stderr, "warning: copying to clipboard: %v\n", err)
		} else {
			resp.Copied = true
		}
	}

	if humanOutput {
		printAddHuman(resp)
	} else {
		outputJSON(resp)
	}

	if code := addExitCode(results); code != ExitSuccess {
		os.Exit(code)
	}
}

func buildAddResponse(results []library.AddResult) AddResponse {
	resp := AddResponse{Results: make([]AddItem, 0, len(results))}
	for _, r := range results {
		item := AddItem{Input: r.Input}
		switch {
		case r.Err != nil:
			item.Status = statusFailed
			item.Error = r.Err.Error()
			resp.Failed++
		default:
			item.Status = r.Action
			item.Key = r.Record.Key
			item.Title = r.Record.Title
			item.DocumentFilename = r.Record.DocumentFilename
			item.Document = r.Document
			if r.Warning != nil {
				item.Warning = r.Warning.Error()
			}
			if r.Action == library.ActionUpdated {
				resp.Updated++
			} else {
				resp.Added++
			}
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// addExitCode is 0 when every identifier was stored. A lone identifier
// reports the code for its error; batches report a general failure unless
// the store was locked.
func addExitCode(results []library.AddResult) int {
	var first error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
		}
	}
	switch {
	case failed == 0:
		return ExitSuccess
	case len(results) == 1, errors.Is(first, storage.ErrLocked):
		return exitCode(first)
	default:
		return ExitError
	}
}

func printAddHuman(resp AddResponse) {
	for _, item := range resp.Results {
		if item.Status == statusFailed {
			fmt.Printf("FAILED   %s\n         %s\n", truncateString(item.Input, AddTitleMaxLen), item.Error)
			continue
		}
		fmt.Printf("%-8s %s\n", item.Status, item.Key)
		fmt.Printf("         %s\n", truncateString(item.Title, AddTitleMaxLen))
		switch {
		case item.Document != nil:
			fmt.Printf("         PDF from %s (%d bytes)\n", item.Document.Source, item.Document.Size)
		case item.Warning != "":
			fmt.Printf("         warning: %s\n", item.Warning)
		}
	}
	fmt.Printf("\n%d added, %d updated, %d failed\n", resp.Added, resp.Updated, resp.Failed)
	if resp.Copied {
		fmt.Printf("Copied %s to clipboard\n", resp.Cite)
	}
}
