// Package formats normalizes spreadsheet-export layouts into the canonical
// long table the series repository accepts: one row per key tuple, columns
// series/time/entity/value. It is agnostic about where the input came from;
// its whole job is producing that one shape from the layouts the upstream
// data system emits.
package formats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/econdata-tools/seriesstore/types"
)

// ErrLayout reports input whose layout cannot be recognized or parsed.
var ErrLayout = errors.New("unrecognized input layout")

// standardNames maps upstream header labels to canonical column names.
// The SCALE column carries no data and is dropped outright.
var standardNames = map[string]string{
	"Time":    "time",
	"Country": "entity",
	"Economy": "entity",
	"Series":  "series",
	"Data":    "value",
}

// Read sniffs the layout of a CSV input and translates it to the canonical
// long table: bulk downloads start with a "Country Name" column, the wide
// export hides a SCALE marker under its "Time" header, and anything else is
// taken as already long.
func Read(r io.Reader) (*types.Table, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}

	switch {
	case len(records) > 0 && len(records[0]) > 0 && records[0][0] == "Country Name":
		return translateBulk(records)
	case wideMarker(records):
		return translateWide(records)
	default:
		return standardize(records)
	}
}

// ReadLong translates input that is already one observation per row.
func ReadLong(r io.Reader) (*types.Table, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return standardize(records)
}

// ReadWide translates the wide export layout: the real column names are
// split between the first two rows, the "Time" header column holds a SCALE
// marker, and everything to its right is one value column per time period.
func ReadWide(r io.Reader) (*types.Table, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return translateWide(records)
}

// ReadBulk translates the public bulk-download layout (Country Name,
// Country Code, Indicator Name, Indicator Code, one column per year).
func ReadBulk(r io.Reader) (*types.Table, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return translateBulk(records)
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrLayout)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty input: %w", ErrLayout)
	}
	return records, nil
}

func wideMarker(records [][]string) bool {
	if len(records) < 2 {
		return false
	}
	for i, name := range records[0] {
		if name == "Time" && i < len(records[1]) {
			return records[1][i] == "SCALE"
		}
	}
	return false
}

// standardize renames upstream headers to canonical names, drops the SCALE
// column if present, and requires the last remaining column to be the value.
func standardize(records [][]string) (*types.Table, error) {
	header := records[0]

	keep := make([]int, 0, len(header))
	names := make([]string, 0, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if strings.EqualFold(name, "SCALE") {
			continue
		}
		if canonical, ok := standardNames[name]; ok {
			name = canonical
		}
		keep = append(keep, i)
		names = append(names, name)
	}

	if len(names) < 2 || names[len(names)-1] != types.ValueColumn {
		return nil, fmt.Errorf("no value column in header %v: %w", header, ErrLayout)
	}

	index := names[:len(names)-1]
	out := types.NewTable(index, []string{types.ValueColumn})
	for _, record := range records[1:] {
		key := make([]string, len(index))
		for j, col := range keep[:len(keep)-1] {
			if col < len(record) {
				key[j] = strings.TrimSpace(record[col])
			}
		}
		value, err := parseCell(cellAt(record, keep[len(keep)-1]))
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, types.Row{Key: key, Values: []float64{value}})
	}
	return out, nil
}

func translateWide(records [][]string) (*types.Table, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("wide layout needs two header rows: %w", ErrLayout)
	}
	header, sub := records[0], records[1]

	timePos := -1
	for i, name := range header {
		if name == "Time" {
			timePos = i
			break
		}
	}
	if timePos < 0 || timePos >= len(sub) {
		return nil, fmt.Errorf("wide layout has no Time column: %w", ErrLayout)
	}

	// Identifier column names live in the second row, left of Time; the time
	// period labels live in the first row, right of it.
	ids := make([]string, timePos)
	for i := 0; i < timePos; i++ {
		name := strings.TrimSpace(sub[i])
		if canonical, ok := standardNames[name]; ok {
			name = canonical
		}
		ids[i] = name
	}
	periods := header[timePos+1:]

	index := append(append([]string(nil), ids...), "time")
	out := types.NewTable(index, []string{types.ValueColumn})
	for _, record := range records[2:] {
		for j, period := range periods {
			key := make([]string, 0, len(index))
			for i := 0; i < timePos; i++ {
				key = append(key, strings.TrimSpace(cellAt(record, i)))
			}
			key = append(key, strings.TrimSpace(period))

			value, err := parseCell(cellAt(record, timePos+1+j))
			if err != nil {
				return nil, err
			}
			out.Rows = append(out.Rows, types.Row{Key: key, Values: []float64{value}})
		}
	}
	return out, nil
}

func translateBulk(records [][]string) (*types.Table, error) {
	header := records[0]

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	entityCol, ok := cols["Country Code"]
	if !ok {
		return nil, fmt.Errorf("bulk layout has no Country Code column: %w", ErrLayout)
	}
	seriesCol, ok := cols["Indicator Code"]
	if !ok {
		return nil, fmt.Errorf("bulk layout has no Indicator Code column: %w", ErrLayout)
	}

	// Everything past the four identifying columns is one column per year;
	// years gain the YR prefix used throughout the repository.
	first := max(entityCol, seriesCol) + 1
	if c, ok := cols["Indicator Name"]; ok && c >= first {
		first = c + 1
	}
	if c, ok := cols["Country Name"]; ok && c >= first {
		first = c + 1
	}

	out := types.NewTable([]string{"entity", "series", "time"}, []string{types.ValueColumn})
	for _, record := range records[1:] {
		for col := first; col < len(header); col++ {
			value, err := parseCell(cellAt(record, col))
			if err != nil {
				return nil, err
			}
			out.Rows = append(out.Rows, types.Row{
				Key: []string{
					strings.TrimSpace(cellAt(record, entityCol)),
					strings.TrimSpace(cellAt(record, seriesCol)),
					"YR" + strings.TrimSpace(header[col]),
				},
				Values: []float64{value},
			})
		}
	}
	return out, nil
}

func cellAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// parseCell reads one observation cell. Empty cells and the upstream ".."
// placeholder are missing.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == ".." {
		return types.Missing(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad value %q: %w", s, ErrLayout)
	}
	return v, nil
}
