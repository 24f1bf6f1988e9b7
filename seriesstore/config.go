package seriesstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/econdata-tools/seriesstore/types"
)

// ConfigFile is the optional per-repository configuration, looked up at the
// repository root. The "keys" entry overrides the default key schema; every
// other entry names a dimension and supplies its default value list for
// skeleton construction.
const ConfigFile = "config.yaml"

// loadSchema reads config.yaml below root, if present, and builds the key
// schema. A missing file yields the default schema.
func loadSchema(root string) (*types.KeySchema, error) {
	b, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if os.IsNotExist(err) {
		return types.DefaultSchema(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ConfigFile, err)
	}
	return parseSchema(b)
}

func parseSchema(b []byte) (*types.KeySchema, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", ConfigFile, err, ErrConfig)
	}

	dims := types.DefaultSchema().Dimensions()
	if v, ok := raw["keys"]; ok {
		list, err := stringList("keys", v)
		if err != nil {
			return nil, err
		}
		dims = list
	}

	known := make(map[string]bool, len(dims))
	for _, d := range dims {
		known[d] = true
	}

	defaults := make(map[string][]string)
	for name, v := range raw {
		if name == "keys" {
			continue
		}
		list, err := stringList(name, v)
		if err != nil {
			return nil, err
		}
		// Entries naming dimensions outside the schema are tolerated and
		// never consulted.
		if !known[name] {
			continue
		}
		defaults[name] = list
	}

	ks, err := types.NewKeySchema(dims, defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", ConfigFile, err, ErrConfig)
	}
	return ks, nil
}

// stringList coerces one config entry to a list of strings. Scalar entries
// are rejected: every entry must be a list. Numeric list elements (years,
// typically) are stringified.
func stringList(name string, v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list in %s: %w", name, ConfigFile, ErrConfig)
	}
	out := make([]string, len(items))
	for i, item := range items {
		switch x := item.(type) {
		case string:
			out[i] = x
		case int, int64, float64, bool:
			out[i] = fmt.Sprint(x)
		default:
			return nil, fmt.Errorf("%s has a non-scalar element in %s: %w", name, ConfigFile, ErrConfig)
		}
	}
	return out, nil
}
