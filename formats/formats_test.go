package formats_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/econdata-tools/seriesstore/formats"
	"github.com/econdata-tools/seriesstore/types"
)

func TestReadLongStandardizes(t *testing.T) {
	input := "Series,Economy,Time,SCALE,Data\n" +
		"SP.POP.TOTL,USA,YR2020,0,331.0\n" +
		"SP.POP.TOTL,USA,YR2021,0,\n"

	got, err := formats.ReadLong(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(got.Index, []string{"series", "entity", "time"}) {
		t.Errorf("unexpected index %v", got.Index)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if !reflect.DeepEqual(got.Rows[0].Key, []string{"SP.POP.TOTL", "USA", "YR2020"}) {
		t.Errorf("unexpected key %v", got.Rows[0].Key)
	}
	if got.Rows[0].Values[0] != 331.0 {
		t.Errorf("unexpected value %v", got.Rows[0].Values[0])
	}
	if !types.IsMissing(got.Rows[1].Values[0]) {
		t.Error("expected empty cell to be missing")
	}
}

func TestReadLongAlreadyCanonical(t *testing.T) {
	input := "series,entity,time,value\nA.B,USA,YR2020,1\n"
	got, err := formats.ReadLong(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.Index, []string{"series", "entity", "time"}) {
		t.Errorf("unexpected index %v", got.Index)
	}
}

func TestReadLongWithoutValueColumn(t *testing.T) {
	_, err := formats.ReadLong(strings.NewReader("series,entity,time\nA.B,USA,YR2020\n"))
	if !errors.Is(err, formats.ErrLayout) {
		t.Errorf("expected ErrLayout, got %v", err)
	}
}

func TestReadWide(t *testing.T) {
	// Column names are split across the first two rows; the Time header
	// column carries the SCALE marker.
	input := ",,Time,YR2020,YR2021\n" +
		"Country,Series,SCALE,,\n" +
		"USA,SP.POP.TOTL,0,331.0,332.0\n" +
		"CAN,SP.POP.TOTL,0,38.0,\n"

	got, err := formats.ReadWide(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(got.Index, []string{"entity", "series", "time"}) {
		t.Errorf("unexpected index %v", got.Index)
	}
	if len(got.Rows) != 4 {
		t.Fatalf("expected 4 melted rows, got %d", len(got.Rows))
	}
	if !reflect.DeepEqual(got.Rows[0].Key, []string{"USA", "SP.POP.TOTL", "YR2020"}) {
		t.Errorf("unexpected first key %v", got.Rows[0].Key)
	}
	if got.Rows[1].Values[0] != 332.0 {
		t.Errorf("unexpected value %v", got.Rows[1].Values[0])
	}
	if !types.IsMissing(got.Rows[3].Values[0]) {
		t.Error("expected missing CAN 2021 value")
	}
}

func TestReadBulk(t *testing.T) {
	input := "Country Name,Country Code,Indicator Name,Indicator Code,2020,2021\n" +
		"United States,USA,\"Population, total\",SP.POP.TOTL,331.0,..\n"

	got, err := formats.ReadBulk(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(got.Index, []string{"entity", "series", "time"}) {
		t.Errorf("unexpected index %v", got.Index)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if !reflect.DeepEqual(got.Rows[0].Key, []string{"USA", "SP.POP.TOTL", "YR2020"}) {
		t.Errorf("unexpected key %v", got.Rows[0].Key)
	}
	if !types.IsMissing(got.Rows[1].Values[0]) {
		t.Error("expected .. placeholder to be missing")
	}
}

func TestReadSniffsLayout(t *testing.T) {
	tests := []struct {
		name  string
		input string
		rows  int
	}{
		{
			"bulk",
			"Country Name,Country Code,Indicator Name,Indicator Code,2020\nUS,USA,Pop,SP.POP.TOTL,1\n",
			1,
		},
		{
			"wide",
			",,Time,YR2020\nCountry,Series,SCALE,\nUSA,A.B,0,1\n",
			1,
		},
		{
			"long",
			"Series,Economy,Time,Data\nA.B,USA,YR2020,1\n",
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formats.Read(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Rows) != tt.rows {
				t.Errorf("expected %d rows, got %d", tt.rows, len(got.Rows))
			}
		})
	}
}
