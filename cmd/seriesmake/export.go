package main

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export OUT PATH...",
	Short: "Combine series files into a single wide CSV export",
	Long: `Combine a set of series files, or whole directory trees of them, into one
wide CSV in the layout the upstream data system ingests: one row per entity
and series, one column per time period, with the two hand-built header rows
and a SCALE column the upstream side expects.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

// exportKey identifies one output row: the non-time id values joined with
// the series identifier taken from the file stem.
type exportKey struct {
	ids    string
	series string
}

func runExport(cmd *cobra.Command, args []string) error {
	files, err := collectSeriesFiles(args[1:])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no series files found under %v", args[1:])
	}

	var idCols []string
	cells := make(map[exportKey]map[string]string)
	timeSet := make(map[string]bool)

	for _, file := range files {
		logger.Info("reading", "file", file)
		header, rows, err := readRawCSV(file)
		if err != nil {
			return err
		}

		timePos := -1
		for i, name := range header[:len(header)-1] {
			if strings.EqualFold(strings.TrimSpace(name), "time") {
				timePos = i
			}
		}
		if timePos < 0 {
			return fmt.Errorf("%s has no time column", file)
		}

		var ids []string
		for i, name := range header[:len(header)-1] {
			if i != timePos {
				ids = append(ids, strings.TrimSpace(name))
			}
		}
		if idCols == nil {
			idCols = ids
		} else if strings.Join(idCols, ",") != strings.Join(ids, ",") {
			return fmt.Errorf("%s has key columns [%s], expected [%s]",
				file, strings.Join(ids, ", "), strings.Join(idCols, ", "))
		}

		stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		for _, row := range rows {
			var idVals []string
			for i := 0; i < len(header)-1; i++ {
				if i != timePos && i < len(row) {
					idVals = append(idVals, row[i])
				}
			}
			key := exportKey{ids: strings.Join(idVals, "\x1f"), series: stem}
			period := row[timePos]
			timeSet[period] = true
			if cells[key] == nil {
				cells[key] = make(map[string]string)
			}
			cells[key][period] = row[len(header)-1]
		}
	}

	times := make([]string, 0, len(timeSet))
	for t := range timeSet {
		times = append(times, t)
	}
	sort.Strings(times)

	keys := make([]exportKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ids != keys[j].ids {
			return keys[i].ids < keys[j].ids
		}
		return keys[i].series < keys[j].series
	})

	logger.Info("writing export", "file", args[0], "rows", len(keys), "periods", len(times))
	return writeExport(args[0], idCols, times, keys, cells)
}

func collectSeriesFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Series trees live inside a git repository.
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".csv") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func readRawCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 1 || len(records[0]) < 2 {
		return nil, nil, fmt.Errorf("%s is not a series file", path)
	}
	return records[0], records[1:], nil
}

// writeExport emits the wide layout with its two hand-built header rows:
// the first carries the Time marker and the period labels, the second the
// id column titles and the SCALE column.
func writeExport(out string, idCols, times []string, keys []exportKey, cells map[exportKey]map[string]string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	width := len(idCols) + 2 + len(times)

	headerA := make([]string, 0, width)
	for range idCols {
		headerA = append(headerA, "")
	}
	headerA = append(headerA, "", "Time")
	headerA = append(headerA, times...)
	if err := w.Write(headerA); err != nil {
		return err
	}

	headerB := make([]string, 0, width)
	for _, name := range idCols {
		headerB = append(headerB, exportTitle(name))
	}
	headerB = append(headerB, "Series", "SCALE")
	for range times {
		headerB = append(headerB, "")
	}
	if err := w.Write(headerB); err != nil {
		return err
	}

	record := make([]string, width)
	for _, key := range keys {
		record = record[:0]
		if key.ids != "" {
			record = append(record, strings.Split(key.ids, "\x1f")...)
		}
		record = append(record, key.series, "0")
		for _, t := range times {
			record = append(record, cells[key][t])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// exportTitle maps a canonical column name back to its upstream title.
func exportTitle(name string) string {
	switch name {
	case "entity":
		return "Country"
	case "time":
		return "Time"
	default:
		if name == "" {
			return name
		}
		return strings.ToUpper(name[:1]) + name[1:]
	}
}
