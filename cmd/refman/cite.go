package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/clipboard"
)

var citeCopy bool

func init() {
	citeCmd.Flags().BoolVar(&citeCopy, "copy", false, "Copy the citation to the clipboard")
	rootCmd.AddCommand(citeCmd)
}

var citeCmd = &cobra.Command{
	Use:   "cite <key|doi>...",
	Short: "Print a \\cite{...} command for stored papers",
	Long: `Print a LaTeX \cite{...} command for one or more stored papers.
Papers may be named by key or by any identifier they were added with.

Examples:
  refman cite Doe_2020_abcdef0
  refman cite 10.1000/xyz arXiv:2104.13478 --copy`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCite,
}

// CiteResponse is the response for cite.
type CiteResponse struct {
	Keys   []string `json:"keys"`
	Cite   string   `json:"cite"`
	Copied bool     `json:"copied"`
}

func runCite(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	keys := make([]string, 0, len(args))
	for _, arg := range args {
		rec, err := lib.Lookup(arg)
		if err != nil {
			exitOnError(err)
		}
		keys = append(keys, rec.Key)
	}

	resp := CiteResponse{Keys: keys, Cite: clipboard.Cite(keys...)}
	if citeCopy {
		if err := clipboard.Copy(resp.Cite); err != nil {
			fmt.Fprintf(os.Stderr, "warning: copying to clipboard: %v\n", err)
		} else {
			resp.Copied = true
		}
	}

	if humanOutput {
		fmt.Println(resp.Cite)
	} else {
		outputJSON(resp)
	}
	return nil
}
