package seriesstore

import (
	"fmt"

	"github.com/econdata-tools/seriesstore/types"
)

// EmptySeries builds a skeleton table spanning the Cartesian product of the
// given series identifiers and one value list per schema dimension, every
// observation missing. Skeletons seed aggregations that join real
// observations in later; the repository never persists them itself.
//
// Overrides are positional, one per schema dimension in order. A nil
// override falls through to the dimension's configured defaults; a dimension
// with neither fails with ErrMissingDefaults. Passing no series identifiers
// omits the series index level.
func (s *Session) EmptySeries(seriesIDs []string, overrides ...[]string) (*types.Table, error) {
	if len(overrides) > s.schema.Count() {
		return nil, fmt.Errorf("%d overrides for %d key dimensions: %w",
			len(overrides), s.schema.Count(), ErrTooManyArguments)
	}

	var names []string
	var levels [][]string
	if len(seriesIDs) > 0 {
		names = append(names, types.SeriesColumn)
		levels = append(levels, seriesIDs)
	}

	for i, dim := range s.schema.Dimensions() {
		var values []string
		if i < len(overrides) && overrides[i] != nil {
			values = overrides[i]
		} else {
			values = s.schema.DefaultsFor(dim)
			if values == nil {
				return nil, fmt.Errorf("%s: %w", dim, ErrMissingDefaults)
			}
		}
		names = append(names, dim)
		levels = append(levels, values)
	}

	out := types.NewTable(names, []string{types.ValueColumn})
	for _, level := range levels {
		if len(level) == 0 {
			return out, nil
		}
	}

	// Odometer walk over the product, rightmost level fastest, so every
	// combination appears exactly once in key order.
	idx := make([]int, len(levels))
	for {
		key := make([]string, len(levels))
		for j, level := range levels {
			key[j] = level[idx[j]]
		}
		out.Rows = append(out.Rows, types.Row{Key: key, Values: []float64{types.Missing()}})

		j := len(levels) - 1
		for ; j >= 0; j-- {
			idx[j]++
			if idx[j] < len(levels[j]) {
				break
			}
			idx[j] = 0
		}
		if j < 0 {
			return out, nil
		}
	}
}
