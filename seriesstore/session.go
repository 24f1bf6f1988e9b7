// Package seriesstore manages a collection of statistical time series stored
// as one CSV file per series inside a git-controlled directory tree. File
// records are keyed by a fixed, configurable tuple of dimensions (time and
// entity by default), and a session can read a series either from the working
// tree or as it existed at any historical revision.
package seriesstore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/econdata-tools/seriesstore/internal/gitvc"
	"github.com/econdata-tools/seriesstore/types"
)

// DefaultPrefix is the storage prefix used when none is given.
const DefaultPrefix = "data"

// NoPrefix selects the repository root as the storage prefix.
const NoPrefix = "."

// Session is the repository façade. It owns the key schema and line
// terminator policy for its lifetime; both are fixed at Open and read-only
// afterward. Load and Changes are safe to call from multiple goroutines
// against an otherwise idle session; Save mutates the working tree and must
// be serialized by the caller.
type Session struct {
	schema *types.KeySchema
	vc     *gitvc.Repo
	codec  *Codec
	crlf   bool
}

// Option customizes a session at construction.
type Option func(*Session)

// WithCRLF switches saved files to \r\n line endings, for consumers that
// require DOS terminators.
func WithCRLF() Option {
	return func(s *Session) { s.crlf = true }
}

// WithSchema overrides the schema instead of reading config.yaml.
func WithSchema(schema *types.KeySchema) Option {
	return func(s *Session) { s.schema = schema }
}

// Open opens (initializing if necessary) the repository rooted at dir. The
// key schema comes from config.yaml when present, else it defaults to
// [time, entity].
func Open(dir string, opts ...Option) (*Session, error) {
	vc, err := gitvc.Open(dir)
	if err != nil {
		return nil, err
	}

	s := &Session{vc: vc}
	for _, opt := range opts {
		opt(s)
	}
	if s.schema == nil {
		schema, err := loadSchema(dir)
		if err != nil {
			return nil, err
		}
		s.schema = schema
	}
	s.codec = NewCodec(s.schema, s.crlf)
	return s, nil
}

// Schema returns the session's key schema.
func (s *Session) Schema() *types.KeySchema {
	return s.schema
}

// Root returns the repository root directory.
func (s *Session) Root() string {
	return s.vc.Root()
}

// String implements fmt.Stringer.
func (s *Session) String() string {
	return fmt.Sprintf("<Session: root=%q keys=[%s]>", s.vc.Root(), strings.Join(s.schema.Dimensions(), ", "))
}

// LoadOptions controls where a load reads from and the orientation of its
// result.
type LoadOptions struct {
	// Prefix is the storage prefix. Empty means DefaultPrefix; NoPrefix
	// selects the repository root.
	Prefix string

	// Ref pins the read to a historical revision. Empty reads the working
	// tree.
	Ref string

	// Long stacks multiple series into rows under a "series" index level
	// instead of joining them into columns.
	Long bool
}

func (o *LoadOptions) normalized() LoadOptions {
	var out LoadOptions
	if o != nil {
		out = *o
	}
	out.Prefix = normalizePrefix(out.Prefix)
	return out
}

func normalizePrefix(prefix string) string {
	switch prefix {
	case "":
		return DefaultPrefix
	case NoPrefix:
		return ""
	default:
		return prefix
	}
}

// LoadSeries loads one series. The result is a one-column table: indexed by
// the schema dimensions with the identifier as column label, or, with
// opts.Long, indexed by series plus the schema dimensions with a "value"
// column.
func (s *Session) LoadSeries(id string, opts *LoadOptions) (*types.Table, error) {
	o := opts.normalized()

	id, err := NormalizeID(id)
	if err != nil {
		return nil, err
	}
	rel, err := ResolvePath(id, o.Prefix)
	if err != nil {
		return nil, err
	}

	var b []byte
	if o.Ref != "" {
		b, err = s.vc.ReadAtRevision(o.Ref, rel)
	} else {
		b, err = s.vc.ReadWorkingTree(rel)
	}
	if err != nil {
		if errors.Is(err, gitvc.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	t, err := s.codec.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}

	if o.Long {
		long := types.NewTable(append([]string{types.SeriesColumn}, t.Index...), []string{types.ValueColumn})
		for _, row := range t.Rows {
			long.Rows = append(long.Rows, types.Row{
				Key:    append([]string{id}, row.Key...),
				Values: row.Values,
			})
		}
		return long, nil
	}

	t.Columns[0] = id
	return t, nil
}

// Load loads one or more series. With opts.Long the series are concatenated
// into a long table in argument order; otherwise they are outer-joined into
// a wide table keyed by the schema dimensions, one column per identifier,
// with missing combinations left missing. A NotFound or MalformedFile on any
// identifier aborts the whole call: callers never see a partial join.
func (s *Session) Load(ids []string, opts *LoadOptions) (*types.Table, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no identifiers given: %w", ErrInvalidIdentifier)
	}
	o := opts.normalized()

	if o.Long {
		dims := s.schema.Dimensions()
		out := types.NewTable(append([]string{types.SeriesColumn}, dims...), []string{types.ValueColumn})
		for _, id := range ids {
			t, err := s.LoadSeries(id, &LoadOptions{Prefix: o.Prefix, Ref: o.Ref, Long: true})
			if err != nil {
				return nil, err
			}
			// Concatenation order is preserved, not re-sorted by key.
			out.Rows = append(out.Rows, t.Rows...)
		}
		return out, nil
	}

	return s.loadWide(ids, o)
}

// loadWide outer-joins the series into a wide table keyed by the schema
// dimensions, sorted ascending by key.
func (s *Session) loadWide(ids []string, o LoadOptions) (*types.Table, error) {
	columns := make([]string, len(ids))
	tables := make([]*types.Table, len(ids))
	for i, id := range ids {
		t, err := s.LoadSeries(id, &LoadOptions{Prefix: o.Prefix, Ref: o.Ref})
		if err != nil {
			return nil, err
		}
		columns[i] = t.Columns[0]
		tables[i] = t
	}

	out := types.NewTable(s.schema.Dimensions(), columns)
	position := make(map[string]int)
	for i, t := range tables {
		for _, row := range t.Rows {
			k := strings.Join(row.Key, "\x1f")
			pos, ok := position[k]
			if !ok {
				pos = len(out.Rows)
				position[k] = pos
				values := make([]float64, len(columns))
				for j := range values {
					values[j] = types.Missing()
				}
				out.Rows = append(out.Rows, types.Row{
					Key:    append([]string(nil), row.Key...),
					Values: values,
				})
			}
			out.Rows[pos].Values[i] = row.Values[0]
		}
	}
	out.Sort()
	return out, nil
}

// Save writes a table to one or more series files, overwriting any existing
// file at each target path. Shape errors surface before any bytes are
// written; a failure partway through a multi-series save leaves the files
// already written in place (re-saving is a pure overwrite and safe to
// repeat).
//
// A multi-column table saves each column as an independent series named by
// its label; neither an explicit id nor a "series" index level is admissible
// then, since either would make the target ambiguous. A single-column table
// dispatches on its index shape: the multi shape takes identifiers from the
// index, the plain shape takes the explicit id (or the column label), and a
// permutation of either is reordered and retried.
func (s *Session) Save(t *types.Table, id, prefix string) error {
	if t == nil || len(t.Columns) == 0 {
		return fmt.Errorf("nothing to save: %w", ErrUnsupportedShape)
	}
	prefix = normalizePrefix(prefix)

	if len(t.Columns) > 1 {
		if _, ok := t.Level(types.SeriesColumn); ok {
			return fmt.Errorf("multi-column table with a series index level: %w", ErrUnsupportedShape)
		}
		if id != "" {
			return fmt.Errorf("id %q given for a multi-column table: %w", id, ErrUnsupportedShape)
		}
		for _, col := range t.Columns {
			sub, err := t.Column(col)
			if err != nil {
				return err
			}
			if err := s.saveColumn(sub, "", prefix); err != nil {
				return err
			}
		}
		return nil
	}
	return s.saveColumn(t, id, prefix)
}

func (s *Session) saveColumn(t *types.Table, id, prefix string) error {
	shape := types.ClassifyShape(t.Index, s.schema)

	switch shape {
	case types.ShapePermutedPlain:
		reordered, err := t.Reorder(s.schema.Dimensions())
		if err != nil {
			return err
		}
		return s.saveColumn(reordered, id, prefix)

	case types.ShapePermutedMulti:
		reordered, err := t.Reorder(append([]string{types.SeriesColumn}, s.schema.Dimensions()...))
		if err != nil {
			return err
		}
		return s.saveColumn(reordered, id, prefix)

	case types.ShapeMulti:
		if id != "" {
			return fmt.Errorf("id %q given but series is in the index: %w", id, ErrUnsupportedShape)
		}
		for _, sid := range t.DistinctValues(types.SeriesColumn) {
			sub, err := t.SelectLevel(types.SeriesColumn, sid)
			if err != nil {
				return err
			}
			if err := s.writeSeries(sub, sid, prefix); err != nil {
				return err
			}
		}
		return nil

	case types.ShapePlain:
		if id == "" {
			// Fall back to the name the object carries.
			id = t.Columns[0]
		}
		return s.writeSeries(t, id, prefix)

	default:
		return fmt.Errorf("index [%s] with schema %v: %w",
			strings.Join(t.Index, ", "), s.schema.Dimensions(), ErrInvalidSchema)
	}
}

// writeSeries encodes one plain-shaped series and writes its file, creating
// parent directories as needed.
func (s *Session) writeSeries(t *types.Table, id, prefix string) error {
	rel, err := ResolvePath(id, prefix)
	if err != nil {
		return err
	}
	b, err := s.codec.Encode(t)
	if err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	if err := ensureParent(s.vc.Root(), rel); err != nil {
		return err
	}
	full := filepath.Join(s.vc.Root(), filepath.FromSlash(rel))
	if err := os.WriteFile(full, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// Changes lists working-tree paths currently flagged as modified below
// prefix. With simplify, paths are reduced to series identifiers: only files
// with the series extension survive, mapped to their file stem; everything
// else is dropped rather than erroring.
func (s *Session) Changes(prefix string, simplify bool) ([]string, error) {
	paths, err := s.vc.ListChanges(normalizePrefix(prefix))
	if err != nil {
		return nil, err
	}
	if !simplify {
		return paths, nil
	}

	var ids []string
	for _, p := range paths {
		base := path.Base(p)
		ext := path.Ext(base)
		if strings.EqualFold(ext, ".csv") {
			ids = append(ids, strings.TrimSuffix(base, ext))
		}
	}
	return ids, nil
}
