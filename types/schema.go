package types

import (
	"fmt"
	"strings"
)

// Reserved column names. These appear in every series file and can never be
// used as key dimensions.
const (
	// SeriesColumn is the index level that carries series identifiers in the
	// multi-series shape.
	SeriesColumn = "series"

	// ValueColumn is the single observation column of a series file.
	ValueColumn = "value"
)

// KeySchema is the ordered set of key dimensions for a repository, plus an
// optional list of default values per dimension used to build skeleton
// series. A schema is built once when a session opens and never mutated.
type KeySchema struct {
	dims     []string
	defaults map[string][]string
}

// NewKeySchema validates and builds a key schema.
//
// Dimensions must be a non-empty list of distinct, non-empty names, none of
// which may be the reserved "series" or "value" columns. Every defaults entry
// must name one of the schema dimensions.
func NewKeySchema(dims []string, defaults map[string][]string) (*KeySchema, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("at least one key dimension must be configured")
	}

	seen := make(map[string]bool)
	for _, name := range dims {
		if name == "" {
			return nil, fmt.Errorf("key dimension name cannot be empty")
		}
		if name == SeriesColumn || name == ValueColumn {
			return nil, fmt.Errorf("%q is a reserved column name", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate key dimension %q", name)
		}
		seen[name] = true
	}

	ks := &KeySchema{
		dims:     make([]string, len(dims)),
		defaults: make(map[string][]string),
	}
	copy(ks.dims, dims)

	for name, values := range defaults {
		if !seen[name] {
			return nil, fmt.Errorf("default values given for %q, which is not a key dimension", name)
		}
		ks.defaults[name] = append([]string(nil), values...)
	}

	return ks, nil
}

// DefaultSchema returns the schema used when a repository carries no
// configuration file: time and entity, with no configured defaults.
func DefaultSchema() *KeySchema {
	ks, err := NewKeySchema([]string{"time", "entity"}, nil)
	if err != nil {
		// The built-in dimension list is known valid.
		panic(err)
	}
	return ks
}

// Dimensions returns the ordered dimension names.
func (ks *KeySchema) Dimensions() []string {
	return append([]string(nil), ks.dims...)
}

// Count returns the number of key dimensions.
func (ks *KeySchema) Count() int {
	return len(ks.dims)
}

// Has reports whether name is one of the schema dimensions.
func (ks *KeySchema) Has(name string) bool {
	for _, d := range ks.dims {
		if d == name {
			return true
		}
	}
	return false
}

// DefaultsFor returns the configured default values for a dimension, or nil
// if none are configured.
func (ks *KeySchema) DefaultsFor(name string) []string {
	values, ok := ks.defaults[name]
	if !ok {
		return nil
	}
	return append([]string(nil), values...)
}

// DefaultedCount returns how many schema dimensions carry configured
// defaults. Skeleton construction uses this to bound positional overrides.
func (ks *KeySchema) DefaultedCount() int {
	n := 0
	for _, d := range ks.dims {
		if _, ok := ks.defaults[d]; ok {
			n++
		}
	}
	return n
}

// String implements fmt.Stringer.
func (ks *KeySchema) String() string {
	return fmt.Sprintf("<KeySchema [%s]>", strings.Join(ks.dims, ", "))
}
