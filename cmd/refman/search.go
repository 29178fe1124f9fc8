package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchField string
)

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", SearchLimit, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchField, "field", "", "Search only this field: author or title")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over keys, titles and authors",
	Long: `Search stored papers. Every word of the query must match the
start of a word in the key, title, authors or year.

Examples:
  refman search gravitational waves
  refman search --field author einstein
  refman search --field title "neural network" -n 5 --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	switch searchField {
	case "", "author", "title":
	default:
		exitWithError(ExitError, "invalid --field %q (valid: author, title)", searchField)
	}

	lib := mustOpenLibrary()

	query := strings.Join(args, " ")
	records, err := lib.Search(query, searchField, searchLimit)
	if err != nil {
		exitWithError(ExitDataError, "searching: %v", err)
	}
	printRecords(records, fmt.Sprintf("No papers match %q", query))
	return nil
}
