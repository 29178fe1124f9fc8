package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultEditor is used when $EDITOR is unset.
const DefaultEditor = "nano"

func init() {
	rootCmd.AddCommand(editCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit <key>",
	Short: "Edit a paper's BibTeX entry in $EDITOR",
	Long: `Open a paper's BibTeX entry in $EDITOR (nano if unset).

The saved entry must parse, otherwise nothing is changed. Changing the
citation key renames the paper as rekey does. Edited papers are marked
unverified.

Example:
  EDITOR=vim refman edit Doe_2020_abcdef0`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	lib := mustOpenLibrary()

	rec, err := lib.Edit(args[0], editInEditor)
	if err != nil {
		exitOnError(err)
	}

	if humanOutput {
		fmt.Printf("Saved %s\n", rec.Key)
	} else {
		outputJSON(rec)
	}
	return nil
}

// editInEditor writes text to a temp file, runs the editor on it and
// returns what was saved.
func editInEditor(text string) (string, error) {
	f, err := os.CreateTemp("", "refman-*.bib")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text + "\n"); err != nil {
		f.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}

	c := editorCommand(os.Getenv("EDITOR"), path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("running editor: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited entry: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// editorCommand builds the editor invocation. editor may carry arguments,
// as in "code --wait".
func editorCommand(editor, path string) *exec.Cmd {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{DefaultEditor}
	}
	return exec.Command(fields[0], append(fields[1:], path)...)
}
