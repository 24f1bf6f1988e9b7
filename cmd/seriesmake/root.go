package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seriesmake",
	Short: "Build and inspect a git-backed statistical series repository",
	Long: `seriesmake maintains a repository of statistical time series stored as
one CSV file per series inside a git-controlled directory tree.

The make command creates or updates series from an input file in long, wide
or bulk-download layout, optionally merging in additional files and applying
the exclusion lists from make.yaml. The export command combines series files
back into a single wide CSV for the upstream system, and changes lists the
series with uncommitted modifications.

Examples:
  # Build the repository from a long-format extract
  seriesmake make extract.csv

  # Replace the 2021 time slice from a follow-up file
  seriesmake make extract.csv time:revisions-2021.csv

  # See which series the build touched
  seriesmake changes`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging(logLevel)
	},
}

var (
	// Global flags that apply to all commands
	repoRoot string
	prefix   string
	logLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoRoot, "repo", "r", ".", "Repository root directory")
	rootCmd.PersistentFlags().StringVarP(&prefix, "prefix", "p", "data", "Storage prefix inside the repository")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
