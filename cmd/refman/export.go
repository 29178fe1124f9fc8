package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/atomicfile"
)

var (
	exportKeys   []string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringSliceVar(&exportKeys, "keys", nil, "Export only these keys (comma-separated)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the bibliography",
	Long: `Print ref.bib, or only the entries for --keys in the order given.
Output is always BibTeX.

Examples:
  refman export > refs.bib
  refman export --keys Doe_2020_abcdef0,Roe_2021_1234567 -o paper.bib`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	text, err := lib.Export(exportKeys)
	if err != nil {
		exitOnError(err)
	}

	if exportOutput == "" {
		fmt.Print(text)
		return nil
	}
	if err := atomicfile.WriteFile(exportOutput, []byte(text), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", exportOutput, err)
	}
	if humanOutput {
		fmt.Printf("Wrote %s\n", exportOutput)
	} else {
		outputJSON(StatusResponse{Status: "exported", Path: exportOutput})
	}
	return nil
}
