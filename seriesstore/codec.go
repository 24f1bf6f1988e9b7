package seriesstore

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/econdata-tools/seriesstore/types"
)

// Codec converts between series files and the canonical one-column table.
// Files carry a header naming the schema dimensions followed by "value", and
// rows sorted ascending by dimension tuple.
type Codec struct {
	schema *types.KeySchema

	// crlf switches the line terminator to \r\n for consumers that require
	// DOS line endings.
	crlf bool
}

// NewCodec returns a codec bound to a key schema.
func NewCodec(schema *types.KeySchema, crlf bool) *Codec {
	return &Codec{schema: schema, crlf: crlf}
}

// Decode parses a series file into a one-column table indexed by the schema
// dimensions. The header must name the schema dimensions in order followed by
// "value"; reconciliation trims whitespace and ignores case. Rows of the
// wrong arity fail decoding.
func (c *Codec) Decode(b []byte) (*types.Table, error) {
	r := csv.NewReader(bytes.NewReader(b))

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file: %w", ErrMalformedFile)
		}
		return nil, fmt.Errorf("read header: %w", ErrMalformedFile)
	}

	dims := c.schema.Dimensions()
	want := append(dims, types.ValueColumn)
	if len(header) != len(want) {
		return nil, fmt.Errorf("header has %d columns, schema needs %d: %w", len(header), len(want), ErrMalformedFile)
	}
	for i, name := range want {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, fmt.Errorf("header column %d is %q, expected %q: %w", i+1, header[i], name, ErrMalformedFile)
		}
	}

	table := types.NewTable(dims, []string{types.ValueColumn})
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Includes rows of the wrong arity (csv.ErrFieldCount).
			return nil, fmt.Errorf("%v: %w", err, ErrMalformedFile)
		}

		value, err := parseValue(record[len(record)-1])
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrMalformedFile)
		}

		key := make([]string, len(dims))
		copy(key, record[:len(dims)])
		table.Rows = append(table.Rows, types.Row{Key: key, Values: []float64{value}})
	}
	return table, nil
}

// Encode serializes a one-column table into file bytes: header, then rows
// sorted ascending by dimension tuple, with the value format decided once
// over the whole column. The dimension tuple is unique within a file, so a
// duplicate tuple fails encoding before any bytes are produced.
func (c *Codec) Encode(t *types.Table) ([]byte, error) {
	if len(t.Columns) != 1 {
		return nil, fmt.Errorf("encode expects a single value column, got %d: %w", len(t.Columns), ErrUnsupportedShape)
	}
	if len(t.Index) != c.schema.Count() {
		return nil, fmt.Errorf("encode expects the %d schema dimensions, got %v: %w", c.schema.Count(), t.Index, ErrInvalidSchema)
	}
	if key, ok := t.FirstDuplicateKey(); ok {
		return nil, fmt.Errorf("duplicate key tuple [%s]: %w", strings.Join(key, ", "), ErrInvalidSchema)
	}

	sorted := t.Clone()
	sorted.Sort()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = c.crlf

	dims := c.schema.Dimensions()
	if err := w.Write(append(dims, types.ValueColumn)); err != nil {
		return nil, err
	}

	integral := integralColumn(sorted)
	record := make([]string, len(dims)+1)
	for _, row := range sorted.Rows {
		copy(record, row.Key)
		record[len(record)-1] = formatValue(row.Values[0], integral)
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseValue reads one value field; the empty field is a missing observation.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Missing(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	return v, nil
}

// integralColumn reports whether every present value in the table's single
// column is a whole number. An all-missing column is vacuously integral.
// The decision covers the whole series being written, never a single row.
func integralColumn(t *types.Table) bool {
	for _, row := range t.Rows {
		v := row.Values[0]
		if types.IsMissing(v) {
			continue
		}
		if math.Trunc(v) != v {
			return false
		}
	}
	return true
}

// formatValue renders one value field. Integral series drop the decimal
// point entirely; otherwise whole values keep a trailing .0 so the column
// reads uniformly as decimal.
func formatValue(v float64, integral bool) string {
	if types.IsMissing(v) {
		return ""
	}
	if integral {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
