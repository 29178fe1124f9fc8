package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/config"
	"github.com/matsen/refman/internal/reference"
	"github.com/matsen/refman/internal/storage"
)

func init() {
	rootCmd.AddCommand(completionCmd)

	for _, c := range []*cobra.Command{getCmd, openCmd, citeCmd, rmCmd, editCmd} {
		c.ValidArgsFunction = completeKeys
	}
	rekeyCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return completeKeys(cmd, args, toComplete)
	}
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate completion scripts for your shell. Citation keys are
completed for get, open, cite, rm, edit and rekey.

Bash:
  $ source <(refman completion bash)

Zsh:
  $ refman completion zsh > "${fpath[1]}/_refman"

Fish:
  $ refman completion fish > ~/.config/fish/completions/refman.fish

PowerShell:
  PS> refman completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

// completeKeys offers the stored keys starting with toComplete. It reads
// the index directly: no lock, no logging, no network.
func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	root, _, err := config.ResolveRoot(dataFlag)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	records, err := storage.ReadAll(config.Paths{Root: root}.IndexPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return matchingKeys(records, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func matchingKeys(records []reference.Record, prefix string) []string {
	var keys []string
	for _, r := range records {
		if strings.HasPrefix(r.Key, prefix) {
			keys = append(keys, r.Key)
		}
	}
	return keys
}
