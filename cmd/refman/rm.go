package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Remove a paper and its PDF",
	Long: `Remove a paper from the index and ref.bib and delete its PDF.

Example:
  refman rm Doe_2020_abcdef0`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	rec, err := lib.Remove(args[0])
	if err != nil {
		exitOnError(err)
	}

	if humanOutput {
		fmt.Printf("Removed %s: %s\n", rec.Key, truncateString(rec.Title, DetailTitleMaxLen))
	} else {
		outputJSON(StatusResponse{Status: "removed", Key: rec.Key})
	}
	return nil
}
