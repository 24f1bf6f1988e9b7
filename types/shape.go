package types

// Shape classifies the index of a table presented to the repository for
// saving. Shape dispatch happens exactly once per save: a permuted index is
// normalized by Reorder and reclassified, every other shape maps to a single
// code path.
type Shape int

const (
	// ShapeInvalid marks an index that matches neither admissible layout.
	ShapeInvalid Shape = iota
	// ShapePlain is the schema dimensions alone, one series per table.
	ShapePlain
	// ShapeMulti is "series" followed by the schema dimensions, multiple
	// series per table.
	ShapeMulti
	// ShapePermutedPlain is a reordering of the plain shape.
	ShapePermutedPlain
	// ShapePermutedMulti is a reordering of the multi shape.
	ShapePermutedMulti
)

// String returns the string representation of the Shape.
func (s Shape) String() string {
	switch s {
	case ShapePlain:
		return "plain"
	case ShapeMulti:
		return "multi"
	case ShapePermutedPlain:
		return "permuted-plain"
	case ShapePermutedMulti:
		return "permuted-multi"
	default:
		return "invalid"
	}
}

// Canonical reports whether the shape can be processed without reordering.
func (s Shape) Canonical() bool {
	return s == ShapePlain || s == ShapeMulti
}

// ClassifyShape determines how an index relates to a key schema. Renaming or
// omitting a dimension is never admissible; reordering is, and is reported as
// a permuted shape so the caller can normalize and retry.
func ClassifyShape(index []string, schema *KeySchema) Shape {
	dims := schema.Dimensions()

	switch len(index) {
	case len(dims):
		if equalNames(index, dims) {
			return ShapePlain
		}
		if sameNameSet(index, dims) {
			return ShapePermutedPlain
		}
	case len(dims) + 1:
		multi := append([]string{SeriesColumn}, dims...)
		if equalNames(index, multi) {
			return ShapeMulti
		}
		if sameNameSet(index, multi) {
			return ShapePermutedMulti
		}
	}
	return ShapeInvalid
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(b))
	for _, n := range b {
		counts[n]++
	}
	for _, n := range a {
		counts[n]--
		if counts[n] < 0 {
			return false
		}
	}
	return true
}
