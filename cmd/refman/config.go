package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refman/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set global configuration values",
	Long: `Get or set values in the global config file
($XDG_CONFIG_HOME/refman/config.yml, usually ~/.config/refman/config.yml).

Usage:
  refman config                        # Show all config
  refman config mailto                 # Get specific value
  refman config mailto me@example.org  # Set value
  refman config mirror_url ""          # Clear value

Keys:
  data_path   Data directory when --data and $REFMAN_DATA are unset
  mailto      Contact address sent to Crossref (faster, politer access)
  mirror_url  Base URL of a DOI mirror tried last for PDFs; empty disables it
  pdf_reader  PDF reader for "open": system, or a command such as zathura
  timeout     Per-request HTTP timeout, e.g. 30s
  log_level   debug, info, warn or error`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config with no arguments.
type ConfigResponse struct {
	Path   string            `json:"path"`
	Values map[string]string `json:"values"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadGlobalConfig()

	// No args: show all config
	if len(args) == 0 {
		resp := ConfigResponse{Path: config.GlobalConfigPath(), Values: map[string]string{}}
		for _, k := range config.Keys() {
			v, _ := cfg.Get(k)
			resp.Values[k] = v
		}
		if humanOutput {
			fmt.Printf("# %s\n", resp.Path)
			for _, k := range config.Keys() {
				fmt.Printf("%-11s %s\n", k+":", resp.Values[k])
			}
		} else {
			outputJSON(resp)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, err := cfg.Get(key)
		if err != nil {
			exitOnError(err)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{key: value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if key == "data_path" && value != "" {
		value = config.ExpandPath(value)
	}
	if err := cfg.Set(key, value); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := config.SaveGlobalConfig(cfg); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}

// normalizeKey converts key formats (pdf-reader, PDF_READER) to pdf_reader.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, "-", "_")
}
