package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/econdata-tools/seriesstore/seriesstore"
)

var pathsFlag bool

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "List series with uncommitted modifications",
	Long: `List the series under the storage prefix whose files have been modified
but not yet committed. By default each modified CSV is reported as its series
identifier; with --paths the raw repository-relative file paths are printed,
including non-series files.`,
	Args: cobra.NoArgs,
	RunE: runChanges,
}

func init() {
	changesCmd.Flags().BoolVar(&pathsFlag, "paths", false, "Print file paths instead of series identifiers")
	rootCmd.AddCommand(changesCmd)
}

func runChanges(cmd *cobra.Command, args []string) error {
	session, err := seriesstore.Open(repoRoot)
	if err != nil {
		return err
	}

	changed, err := session.Changes(prefix, !pathsFlag)
	if err != nil {
		return err
	}
	for _, c := range changed {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}
