package seriesstore_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/econdata-tools/seriesstore/seriesstore"
	"github.com/econdata-tools/seriesstore/types"
)

func testSchema(t *testing.T) *types.KeySchema {
	t.Helper()
	ks, err := types.NewKeySchema([]string{"time", "entity"}, nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return ks
}

func seriesTable(keys [][]string, values []float64) *types.Table {
	tbl := types.NewTable([]string{"time", "entity"}, []string{"value"})
	for i, k := range keys {
		tbl.Rows = append(tbl.Rows, types.Row{Key: k, Values: []float64{values[i]}})
	}
	return tbl
}

func TestEncodeIntegralFormatting(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	tbl := seriesTable([][]string{
		{"YR2020", "USA"},
		{"YR2021", "USA"},
		{"YR2022", "USA"},
	}, []float64{1.0, 2.0, types.Missing()})

	b, err := codec.Encode(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "time,entity,value\nYR2020,USA,1\nYR2021,USA,2\nYR2022,USA,\n"
	if string(b) != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, b)
	}
}

func TestEncodeFractionalFormatting(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	// One fractional value forces decimal formatting for the whole series.
	tbl := seriesTable([][]string{
		{"YR2020", "USA"},
		{"YR2021", "USA"},
	}, []float64{1.0, 2.5})

	b, err := codec.Encode(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "time,entity,value\nYR2020,USA,1.0\nYR2021,USA,2.5\n"
	if string(b) != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, b)
	}
}

func TestEncodeAllMissingIsIntegral(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	tbl := seriesTable([][]string{
		{"YR2020", "USA"},
	}, []float64{types.Missing()})

	b, err := codec.Encode(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "time,entity,value\nYR2020,USA,\n" {
		t.Errorf("unexpected output: %q", b)
	}
}

func TestEncodeSortsRows(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	tbl := seriesTable([][]string{
		{"YR2021", "CAN"},
		{"YR2020", "USA"},
		{"YR2020", "CAN"},
	}, []float64{3, 1, 2})

	b, err := codec.Encode(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	want := []string{"time,entity,value", "YR2020,CAN,2", "YR2020,USA,1", "YR2021,CAN,3"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("expected %v, got %v", want, lines)
	}

	// The input table itself must not have been reordered.
	if tbl.Rows[0].Key[0] != "YR2021" {
		t.Error("encode mutated its input")
	}
}

func TestEncodeRejectsDuplicateKeys(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	tbl := seriesTable([][]string{
		{"YR2020", "USA"},
		{"YR2020", "USA"},
	}, []float64{1, 2})

	b, err := codec.Encode(tbl)
	if !errors.Is(err, seriesstore.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
	if b != nil {
		t.Errorf("expected no output for a duplicated tuple, got %q", b)
	}
}

func TestEncodeCRLF(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), true)
	tbl := seriesTable([][]string{{"YR2020", "USA"}}, []float64{1})

	b, err := codec.Encode(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(b), "\r\n") {
		t.Errorf("expected CRLF terminators, got %q", b)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	orig := seriesTable([][]string{
		{"YR2021", "CAN"},
		{"YR2020", "USA"},
	}, []float64{2.5, types.Missing()})

	b, err := codec.Encode(orig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := codec.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Round trip reproduces the table up to the sort rule.
	orig.Sort()
	if len(got.Rows) != len(orig.Rows) {
		t.Fatalf("expected %d rows, got %d", len(orig.Rows), len(got.Rows))
	}
	for i := range orig.Rows {
		if !reflect.DeepEqual(got.Rows[i].Key, orig.Rows[i].Key) {
			t.Errorf("row %d: expected key %v, got %v", i, orig.Rows[i].Key, got.Rows[i].Key)
		}
		wantV, gotV := orig.Rows[i].Values[0], got.Rows[i].Values[0]
		if types.IsMissing(wantV) != types.IsMissing(gotV) {
			t.Errorf("row %d: missing flag mismatch", i)
		} else if !types.IsMissing(wantV) && wantV != gotV {
			t.Errorf("row %d: expected %v, got %v", i, wantV, gotV)
		}
	}
}

func TestDecodeHeaderReconciliation(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	// Whitespace and case differences are reconciled.
	got, err := codec.Decode([]byte("Time, Entity ,VALUE\nYR2020,USA,1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(got.Rows))
	}
}

func TestDecodeMalformed(t *testing.T) {
	codec := seriesstore.NewCodec(testSchema(t), false)

	tests := []struct {
		name  string
		input string
	}{
		{"empty file", ""},
		{"wrong dimension name", "time,region,value\nYR2020,EAP,1\n"},
		{"missing value column", "time,entity\nYR2020,USA\n"},
		{"extra column", "time,entity,value,extra\nYR2020,USA,1,x\n"},
		{"wrong row arity", "time,entity,value\nYR2020,USA\n"},
		{"non-numeric value", "time,entity,value\nYR2020,USA,abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode([]byte(tt.input))
			if !errors.Is(err, seriesstore.ErrMalformedFile) {
				t.Errorf("expected ErrMalformedFile, got %v", err)
			}
		})
	}
}
