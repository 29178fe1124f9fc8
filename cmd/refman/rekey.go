package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rekeyCmd)
}

var rekeyCmd = &cobra.Command{
	Use:   "rekey <old-key> <new-key>",
	Short: "Rename a paper's citation key",
	Long: `Rename a paper's citation key. The index record, the ref.bib entry
and the PDF file are all renamed.

Example:
  refman rekey Abbott_2016_1a2b3c4 LIGO_2016_detection`,
	Args: cobra.ExactArgs(2),
	RunE: runRekey,
}

// RekeyResponse is the response for rekey.
type RekeyResponse struct {
	Status           string `json:"status"`
	OldKey           string `json:"old_key"`
	NewKey           string `json:"new_key"`
	DocumentFilename string `json:"document_filename,omitempty"`
}

func runRekey(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	rec, err := lib.Rekey(args[0], args[1])
	if err != nil {
		exitOnError(err)
	}

	if humanOutput {
		fmt.Printf("Renamed %s -> %s\n", args[0], rec.Key)
		if rec.DocumentFilename != "" {
			fmt.Printf("PDF: %s\n", rec.DocumentFilename)
		}
	} else {
		outputJSON(RekeyResponse{
			Status:           "renamed",
			OldKey:           args[0],
			NewKey:           rec.Key,
			DocumentFilename: rec.DocumentFilename,
		})
	}
	return nil
}
