package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/library"
)

var verifyDeep bool

func init() {
	verifyCmd.Flags().BoolVar(&verifyDeep, "deep", false, "Also check PDFs are readable, the bibliography matches the index and no PDF is orphaned")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every recorded PDF is present",
	Long: `Check the store for problems. Nothing is repaired.

By default only records whose PDF file is missing are reported. With
--deep every PDF is also opened, ref.bib is compared with the index, and
PDFs no record references are listed.

Exits with status 3 when a problem is found.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	report, err := lib.Verify(verifyDeep)
	if err != nil {
		exitWithError(ExitDataError, "verifying: %v", err)
	}

	if humanOutput {
		printVerifyHuman(report)
	} else {
		outputJSON(report)
	}
	if !report.OK() {
		os.Exit(ExitDataError)
	}
	return nil
}

func printVerifyHuman(report *library.VerifyReport) {
	fmt.Printf("%d records, %d with a PDF\n", report.Records, report.Documents)

	var rows [][]string
	for _, is := range report.Missing {
		rows = append(rows, []string{is.Key, is.DocumentFilename, is.Problem, ""})
	}
	for _, is := range report.Issues {
		rows = append(rows, []string{is.Key, is.DocumentFilename, is.Problem, truncateString(is.Detail, 40)})
	}
	for _, name := range report.Orphans {
		rows = append(rows, []string{"", name, "orphan", ""})
	}
	if len(rows) > 0 {
		fmt.Println(renderTable([]string{"Key", "File", "Problem", "Detail"}, rows, nil))
	}
	for _, key := range report.Unindexed {
		fmt.Printf("ref.bib entry %s has no record (kept by rebuild)\n", key)
	}
	if report.OK() {
		fmt.Println("OK")
	}
}
