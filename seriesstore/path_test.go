package seriesstore_test

import (
	"errors"
	"testing"

	"github.com/econdata-tools/seriesstore/seriesstore"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
		want   string
		err    error
	}{
		{"lower case id", "a.b", "data", "data/A/A.B.csv", nil},
		{"no prefix", "a.b", "", "A/A.B.csv", nil},
		{"multi segment", "ny.gdp.mktp.cd", "data", "data/NY/NY.GDP.MKTP.CD.csv", nil},
		{"custom prefix", "sp.pop.totl", "aggregates", "aggregates/SP/SP.POP.TOTL.csv", nil},
		{"empty id", "", "data", "", seriesstore.ErrInvalidIdentifier},
		{"no dot", "NODOT", "data", "", seriesstore.ErrInvalidIdentifier},
		{"leading dot", ".B", "data", "", seriesstore.ErrInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := seriesstore.ResolvePath(tt.id, tt.prefix)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	got, err := seriesstore.NormalizeID("ny.gdp.mktp.cd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "NY.GDP.MKTP.CD" {
		t.Errorf("expected upper-cased id, got %q", got)
	}

	if _, err := seriesstore.NormalizeID("NODOT"); !errors.Is(err, seriesstore.ErrInvalidIdentifier) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}
}
