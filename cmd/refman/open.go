package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/pdf"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <key|doi>",
	Short: "Open a paper's PDF",
	Long: `Open a paper's PDF with the configured reader.

The reader is the pdf_reader global config value: "system" (the default)
uses the platform's default application, anything else is run as a
command with the PDF path appended.

Examples:
  refman open Doe_2020_abcdef0
  refman config pdf_reader zathura`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()
	cfg := mustLoadGlobalConfig()

	rec, err := lib.Lookup(args[0])
	if err != nil {
		exitOnError(err)
	}
	path := lib.DocumentPath(*rec)
	if path == "" {
		exitWithError(ExitNotFound, "%s has no PDF", rec.Key)
	}

	if err := pdf.NewOpener(cfg.PDFReader).Open(path); err != nil {
		exitWithError(ExitError, "opening PDF: %v", err)
	}

	if humanOutput {
		fmt.Printf("Opened %s\n", path)
	} else {
		outputJSON(StatusResponse{Status: "opened", Key: rec.Key, Path: path})
	}
	return nil
}
