package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/library"
)

var (
	bibtexPDF   string
	bibtexKey   string
	bibtexNoPDF bool
	bibtexCopy  bool
)

func init() {
	bibtexCmd.Flags().StringVar(&bibtexPDF, "pdf", "", "Local path or URL of the PDF")
	bibtexCmd.Flags().StringVar(&bibtexKey, "key", "", "Use this citation key instead of the derived one")
	bibtexCmd.Flags().BoolVar(&bibtexNoPDF, "no-pdf", false, "Do not download a PDF")
	bibtexCmd.Flags().BoolVar(&bibtexCopy, "copy", false, "Copy \\cite{...} for the added key to the clipboard")
	rootCmd.AddCommand(bibtexCmd)
}

var bibtexCmd = &cobra.Command{
	Use:   "bibtex [entry|-]",
	Short: "Add a paper from a literal BibTeX entry",
	Long: `Add a paper from a BibTeX entry you already have.

The entry is stored as given (apart from its citation key) without any
metadata lookup and is marked unverified. Pass the entry as an argument,
or "-" (or nothing, when piping) to read it from stdin.

If the entry has no DOI and --pdf names a local file, the DOI printed in
the PDF is recorded.

Examples:
  refman bibtex '@article{x, title={A Title}, author={Doe, Jane}, year={2020}}'
  pbpaste | refman bibtex - --pdf ~/Downloads/paper.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBibTeX,
}

func runBibTeX(cmd *cobra.Command, args []string) error {
	text, err := bibtexInput(args, os.Stdin, stdinIsTerminal())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	lib := mustOpenLibrary()
	result := lib.AddBibTeX(cmd.Context(), library.BibTeXRequest{
		Text:  text,
		Key:   bibtexKey,
		PDF:   bibtexPDF,
		NoPDF: bibtexNoPDF,
	})
	reportAdd([]library.AddResult{result}, bibtexCopy)
	return nil
}

// bibtexInput returns the entry text from args, or from stdin for "-" or
// when nothing is given and stdin is not a terminal.
func bibtexInput(args []string, stdin io.Reader, interactive bool) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if len(args) == 0 && interactive {
		return "", errors.New("no entry given; pass it as an argument or pipe it to stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("empty BibTeX entry on stdin")
	}
	return text, nil
}
