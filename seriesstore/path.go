package seriesstore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ResolvePath maps a series identifier to its repository-relative file path:
// [prefix/]BUCKET/ID.csv, where BUCKET is the upper-cased segment before the
// first dot. Identifiers are case-normalized to upper case.
func ResolvePath(id, prefix string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty identifier: %w", ErrInvalidIdentifier)
	}

	id = strings.ToUpper(id)
	dot := strings.Index(id, ".")
	if dot <= 0 {
		return "", fmt.Errorf("%q: %w", id, ErrInvalidIdentifier)
	}

	bucket := id[:dot]
	if prefix != "" {
		return path.Join(prefix, bucket, id+".csv"), nil
	}
	return path.Join(bucket, id+".csv"), nil
}

// NormalizeID upper-cases an identifier after validating it resolves to a
// path.
func NormalizeID(id string) (string, error) {
	if _, err := ResolvePath(id, ""); err != nil {
		return "", err
	}
	return strings.ToUpper(id), nil
}

// ensureParent creates the parent directories of a repository-relative path
// below root. Pre-existing directories are not an error.
func ensureParent(root, relpath string) error {
	dir := filepath.Join(root, filepath.FromSlash(path.Dir(relpath)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
