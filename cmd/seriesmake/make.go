package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/econdata-tools/seriesstore/formats"
	"github.com/econdata-tools/seriesstore/seriesstore"
	"github.com/econdata-tools/seriesstore/types"
)

var (
	limitID    string
	longFlag   bool
	wideFlag   bool
	bulkFlag   bool
	noExcludes bool
	watchFlag  bool
)

var makeCmd = &cobra.Command{
	Use:   "make FILE [MERGE...]",
	Short: "Create or update repository series from an input file",
	Long: `Create or update repository series from an input file. The file can be a
CSV in long layout with recognizable field names in row 1, the two-header-row
wide layout, or a public bulk-download layout; without an explicit layout
flag the layout is sniffed.

Additional files are merged into the first. Each merge argument takes the
form column:filename, where column names a dimension such as series or time.
The unique values of that column in the merged file are dropped from the
master first, then the merged rows replace them. Layout and orientation
should match across all files.

After loading and merging, the input is split by series and each series is
written to its own file through the repository, sorted by key with the
integral formatting rule applied per series. Exclusion lists from make.yaml
are applied unless --no-excludes is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMake,
}

func init() {
	makeCmd.Flags().StringVar(&limitID, "limit", "", "Make/update just this series identifier")
	makeCmd.Flags().BoolVar(&longFlag, "long", false, "Explicit long input layout")
	makeCmd.Flags().BoolVar(&wideFlag, "wide", false, "Explicit wide input layout")
	makeCmd.Flags().BoolVar(&bulkFlag, "bulk", false, "Explicit bulk download layout")
	makeCmd.Flags().BoolVar(&noExcludes, "no-excludes", false, "Ignore the exclusion lists and write everything")
	makeCmd.Flags().BoolVar(&watchFlag, "watch", false, "Keep running and rebuild when an input file changes")
	makeCmd.MarkFlagsMutuallyExclusive("long", "wide", "bulk")
	rootCmd.AddCommand(makeCmd)
}

// makeConfig is the optional make.yaml at the repository root: the output
// line terminator and per-dimension exclusion lists.
type makeConfig struct {
	EOL     string
	Exclude map[string][]string
}

func loadMakeConfig(root string) (makeConfig, error) {
	v := viper.New()
	v.SetConfigName("make")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)
	v.SetDefault("eol", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return makeConfig{}, nil
		}
		return makeConfig{}, fmt.Errorf("read make.yaml: %w", err)
	}
	return makeConfig{
		EOL:     v.GetString("eol"),
		Exclude: v.GetStringMapStringSlice("exclude"),
	}, nil
}

func runMake(cmd *cobra.Command, args []string) error {
	cfg, err := loadMakeConfig(repoRoot)
	if err != nil {
		return err
	}

	var opts []seriesstore.Option
	if cfg.EOL == "\r\n" || strings.EqualFold(cfg.EOL, "crlf") {
		opts = append(opts, seriesstore.WithCRLF())
	}
	session, err := seriesstore.Open(repoRoot, opts...)
	if err != nil {
		return err
	}

	unlock, err := lockRepository(cmd.Context(), repoRoot)
	if err != nil {
		return err
	}
	defer unlock()

	if err := buildOnce(session, cfg, args); err != nil {
		return err
	}
	if watchFlag {
		return watchAndRebuild(cmd.Context(), session, cfg, args)
	}
	return nil
}

func buildOnce(session *seriesstore.Session, cfg makeConfig, args []string) error {
	logger.Info("reading input", "file", args[0])
	master, err := readInput(args[0])
	if err != nil {
		return err
	}
	master, err = orientIndex(master)
	if err != nil {
		return err
	}

	for _, arg := range args[1:] {
		column, name, ok := strings.Cut(arg, ":")
		if !ok || column == "" || name == "" {
			return fmt.Errorf("merge arguments must be in column:filename format, got %q", arg)
		}
		logger.Info("merging", "file", name, "column", column)
		incoming, err := readInput(name)
		if err != nil {
			return err
		}
		incoming, err = incoming.Reorder(master.Index)
		if err != nil {
			return fmt.Errorf("merge %s: %w", name, err)
		}
		master, err = mergeTables(master, incoming, column)
		if err != nil {
			return fmt.Errorf("merge %s: %w", name, err)
		}
	}

	if !noExcludes {
		master = applyExcludes(master, cfg.Exclude)
	}
	return writeAllSeries(session, master)
}

func readInput(path string) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch {
	case longFlag:
		return formats.ReadLong(f)
	case wideFlag:
		return formats.ReadWide(f)
	case bulkFlag:
		return formats.ReadBulk(f)
	default:
		return formats.Read(f)
	}
}

// orientIndex puts the series level first and the time level second,
// leaving the remaining dimensions in their input order. Input without a
// series level cannot be split into files.
func orientIndex(t *types.Table) (*types.Table, error) {
	if _, ok := t.Level(types.SeriesColumn); !ok {
		return nil, fmt.Errorf("input has no %s column", types.SeriesColumn)
	}

	order := []string{types.SeriesColumn}
	if _, ok := t.Level("time"); ok {
		order = append(order, "time")
	}
	for _, name := range t.Index {
		if name != types.SeriesColumn && name != "time" {
			order = append(order, name)
		}
	}
	return t.Reorder(order)
}

// mergeTables drops the master rows whose value at the merge column appears
// anywhere in the incoming table, then appends the incoming rows. Both
// tables must already share the same index order.
func mergeTables(master, incoming *types.Table, column string) (*types.Table, error) {
	pos, ok := master.Level(column)
	if !ok {
		return nil, fmt.Errorf("%s is not a column of the input", column)
	}

	replaced := make(map[string]bool)
	for _, v := range incoming.DistinctValues(column) {
		replaced[v] = true
	}

	out := types.NewTable(master.Index, master.Columns)
	for _, row := range master.Rows {
		if !replaced[row.Key[pos]] {
			out.Rows = append(out.Rows, row)
		}
	}
	out.Rows = append(out.Rows, incoming.Rows...)
	return out, nil
}

// applyExcludes drops rows whose value at an excluded dimension is listed.
// Exclusion lists naming dimensions absent from the input are ignored.
func applyExcludes(t *types.Table, exclude map[string][]string) *types.Table {
	for dim, values := range exclude {
		pos, ok := t.Level(dim)
		if !ok || len(values) == 0 {
			continue
		}
		drop := make(map[string]bool, len(values))
		for _, v := range values {
			drop[v] = true
		}

		kept := t.Rows[:0:0]
		for _, row := range t.Rows {
			if !drop[row.Key[pos]] {
				kept = append(kept, row)
			}
		}
		t = &types.Table{Index: t.Index, Columns: t.Columns, Rows: kept}
	}
	return t
}

func writeAllSeries(session *seriesstore.Session, master *types.Table) error {
	for _, id := range master.DistinctValues(types.SeriesColumn) {
		if limitID != "" && !strings.EqualFold(limitID, id) {
			continue
		}
		sub, err := master.SelectLevel(types.SeriesColumn, id)
		if err != nil {
			return err
		}
		if err := session.Save(sub, id, prefix); err != nil {
			return err
		}
		logger.Info("wrote series", "series", strings.ToUpper(id), "rows", len(sub.Rows))
	}
	return nil
}

// watchAndRebuild keeps the process alive and reruns the build whenever the
// input file or a merge file changes.
func watchAndRebuild(ctx context.Context, session *seriesstore.Session, cfg makeConfig, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	paths := []string{args[0]}
	for _, arg := range args[1:] {
		if _, name, ok := strings.Cut(arg, ":"); ok {
			paths = append(paths, name)
		}
	}
	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}
	logger.Info("watching for input changes", "files", paths)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Info("input changed", "file", event.Name)
			if err := buildOnce(session, cfg, args); err != nil {
				logger.Error("rebuild failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
