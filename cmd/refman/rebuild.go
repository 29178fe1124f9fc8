package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Regenerate ref.bib and the search cache from the index",
	Long: `Regenerate ref.bib and the SQLite search cache from records.jsonl.

Entries in ref.bib that have no record are kept, after the indexed ones.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	report, err := lib.Rebuild()
	if err != nil {
		exitOnError(err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt ref.bib and cache from %d records\n", report.Records)
		for _, key := range report.Preserved {
			fmt.Printf("  kept unindexed entry %s\n", key)
		}
	} else {
		outputJSON(report)
	}
	return nil
}
