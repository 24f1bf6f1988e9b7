package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Row is one record of a Table: a string index tuple plus one float value per
// value column. Missing observations are NaN.
type Row struct {
	Key    []string
	Values []float64
}

// Table is the canonical tabular shape exchanged with the repository: an
// ordered list of index columns, one or more value columns, and rows keyed by
// the index tuple. A single series is a one-column table; a wide load of
// several series is a multi-column table.
type Table struct {
	// Index holds the index column names, in order.
	Index []string

	// Columns holds the value column labels. A plain series has exactly one,
	// conventionally the series identifier or "value".
	Columns []string

	// Rows holds the records. Key arity matches Index, Values arity matches
	// Columns.
	Rows []Row
}

// NewTable returns an empty table with the given index and value columns.
func NewTable(index, columns []string) *Table {
	return &Table{
		Index:   append([]string(nil), index...),
		Columns: append([]string(nil), columns...),
	}
}

// Missing returns the in-memory representation of a missing observation.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v is a missing observation.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// CompareKeys orders two index tuples lexicographically, component by
// component.
func CompareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// Sort orders rows ascending by index tuple. Sorting is stable, so repeated
// sorts are idempotent.
func (t *Table) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return CompareKeys(t.Rows[i].Key, t.Rows[j].Key) < 0
	})
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.Index, t.Columns)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = Row{
			Key:    append([]string(nil), r.Key...),
			Values: append([]float64(nil), r.Values...),
		}
	}
	return out
}

// FirstDuplicateKey returns the first index tuple that appears more than
// once, in row order. Within a series file the tuple is unique, so writers
// check this before serializing.
func (t *Table) FirstDuplicateKey() ([]string, bool) {
	seen := make(map[string]bool, len(t.Rows))
	for _, r := range t.Rows {
		k := strings.Join(r.Key, "\x1f")
		if seen[k] {
			return r.Key, true
		}
		seen[k] = true
	}
	return nil, false
}

// Level returns the position of an index column, or false if absent.
func (t *Table) Level(name string) (int, bool) {
	for i, n := range t.Index {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// DistinctValues returns the distinct values of one index level in order of
// first appearance.
func (t *Table) DistinctValues(level string) []string {
	pos, ok := t.Level(level)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		v := r.Key[pos]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// SelectLevel returns the rows whose index value at the named level equals
// value, with that level dropped from the index. Row order is preserved.
func (t *Table) SelectLevel(level, value string) (*Table, error) {
	pos, ok := t.Level(level)
	if !ok {
		return nil, fmt.Errorf("no index level %q", level)
	}

	index := make([]string, 0, len(t.Index)-1)
	index = append(index, t.Index[:pos]...)
	index = append(index, t.Index[pos+1:]...)

	out := NewTable(index, t.Columns)
	for _, r := range t.Rows {
		if r.Key[pos] != value {
			continue
		}
		key := make([]string, 0, len(r.Key)-1)
		key = append(key, r.Key[:pos]...)
		key = append(key, r.Key[pos+1:]...)
		out.Rows = append(out.Rows, Row{Key: key, Values: append([]float64(nil), r.Values...)})
	}
	return out, nil
}

// Column extracts a single value column as a one-column table sharing the
// same index.
func (t *Table) Column(label string) (*Table, error) {
	col := -1
	for i, c := range t.Columns {
		if c == label {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no value column %q", label)
	}

	out := NewTable(t.Index, []string{label})
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, Row{
			Key:    append([]string(nil), r.Key...),
			Values: []float64{r.Values[col]},
		})
	}
	return out, nil
}

// Reorder returns a copy of the table with its index levels rearranged into
// the given order. The new order must be a permutation of the current index.
func (t *Table) Reorder(index []string) (*Table, error) {
	if len(index) != len(t.Index) {
		return nil, fmt.Errorf("cannot reorder index [%v] to [%v]", t.Index, index)
	}

	perm := make([]int, len(index))
	for i, name := range index {
		pos, ok := t.Level(name)
		if !ok {
			return nil, fmt.Errorf("no index level %q", name)
		}
		perm[i] = pos
	}

	out := NewTable(index, t.Columns)
	for _, r := range t.Rows {
		key := make([]string, len(index))
		for i, pos := range perm {
			key[i] = r.Key[pos]
		}
		out.Rows = append(out.Rows, Row{Key: key, Values: append([]float64(nil), r.Values...)})
	}
	return out, nil
}
