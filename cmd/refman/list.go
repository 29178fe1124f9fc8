package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/reference"
)

var listLimit int

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", DefaultListLimit, "Maximum number of records (0 for all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored papers",
	Long: `List stored papers in the order they were added.

Examples:
  refman list --human
  refman list -n 10`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	records, err := lib.List(listLimit)
	if err != nil {
		exitWithError(ExitDataError, "listing records: %v", err)
	}
	printRecords(records, "No papers stored")
	return nil
}

// printRecords writes records as a table (human) or a JSON array.
func printRecords(records []reference.Record, empty string) {
	if records == nil {
		records = []reference.Record{}
	}
	if !humanOutput {
		outputJSON(records)
		return
	}
	if len(records) == 0 {
		fmt.Println(empty)
		return
	}
	fmt.Println(recordTable(records))
	fmt.Printf("%d paper(s)\n", len(records))
}
