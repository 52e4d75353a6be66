// Package main provides the entry point for the ljexport CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/burtness/ljexport/internal/config"
	"github.com/burtness/ljexport/internal/output"
)

// Build info set via ldflags at build time.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// configPath reads the --config persistent flag from the command hierarchy.
func configPath(cmd *cobra.Command) string {
	flag := cmd.Flags().Lookup("config")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("config")
	}
	if flag == nil {
		return config.DefaultPath
	}
	return flag.Value.String()
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the ljexport CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ljexport",
		Short: "Export a LiveJournal blog to local files",
		Long: `ljexport downloads a LiveJournal blog and renders it to local files.

A run has two phases:
  - fetch:  download posts (monthly export) and comments (paginated
    export) and cache them as XML and JSON under the archive directory
  - export: rebuild each post's comment tree and render every enabled
    format: JSON documents, standalone HTML pages, Markdown files, and
    Day One journal entries

Credentials are read from the LJ_USERNAME and LJ_PASSWORD environment
variables (an .env file works too); they never live in the config file.

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'ljexport --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	// Load .env.local (then .env) for credentials that can't be exported
	// to the environment. Variables already set always take precedence.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		config.LoadEnvFiles()
		return nil
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("config", config.DefaultPath, "Path to the config file")

	lipgloss.SetHasDarkBackground(true)

	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}
