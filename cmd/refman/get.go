package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/reference"
)

var getBibTeX bool

func init() {
	getCmd.Flags().BoolVar(&getBibTeX, "bibtex", false, "Print only the BibTeX entry")
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <key|doi|arxiv|pmid|url>",
	Short: "Look up a stored paper",
	Long: `Look up a stored paper by its key or by any identifier it was added with.

DOIs match case-insensitively and may be given as doi.org URLs.

Examples:
  refman get Abbott_2016_1a2b3c4
  refman get 10.1103/physrevlett.116.061102 --human
  refman get arXiv:2104.13478 --bibtex`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	rec, err := lib.Lookup(args[0])
	if err != nil {
		exitOnError(err)
	}

	switch {
	case getBibTeX:
		fmt.Println(rec.BibEntry)
	case humanOutput:
		printRecordDetail(*rec, lib.DocumentPath(*rec))
	default:
		outputJSON(rec)
	}
	return nil
}

func printRecordDetail(rec reference.Record, docPath string) {
	fmt.Println(rec.Key)
	fmt.Println(strings.Repeat("═", DetailTitleMaxLen))
	fmt.Println()

	fmt.Printf("Title:    %s\n", wrapText(rec.Title, TextWrapWidth, "          "))
	if len(rec.Authors) > 0 {
		fmt.Printf("Authors:  %s\n", wrapText(formatAuthors(rec.Authors, 0), TextWrapWidth, "          "))
	}
	if rec.Year != "" {
		fmt.Printf("Year:     %s\n", rec.Year)
	}
	fmt.Printf("Type:     %s\n", rec.EntryType)
	fmt.Println()

	if rec.DOI != "" {
		fmt.Printf("DOI:      %s\n", rec.DOI)
	}
	if rec.Identifiers.ArXiv != "" {
		fmt.Printf("arXiv:    %s\n", rec.Identifiers.ArXiv)
	}
	if rec.Identifiers.PMID != "" {
		fmt.Printf("PMID:     %s\n", rec.Identifiers.PMID)
	}
	if rec.Identifiers.URL != "" {
		fmt.Printf("URL:      %s\n", rec.Identifiers.URL)
	}
	if docPath != "" {
		fmt.Printf("PDF:      %s\n", docPath)
	} else {
		fmt.Println("PDF:      (none)")
	}
	fmt.Printf("Verified: %t\n", rec.Verified)
}
