package seriesstore

import "errors"

// Sentinel errors for the repository. Callers branch on these with
// errors.Is; the wrapped message carries the identifier, path or dimension
// involved.
var (
	// ErrConfig reports a bad repository configuration. Fatal at session
	// construction.
	ErrConfig = errors.New("invalid repository configuration")

	// ErrInvalidIdentifier reports a malformed series identifier: empty, or
	// missing the dot that separates the bucket from the rest.
	ErrInvalidIdentifier = errors.New("invalid series identifier")

	// ErrNotFound reports that a requested series has no file at the resolved
	// path, or at the requested revision.
	ErrNotFound = errors.New("series not found")

	// ErrMalformedFile reports on-disk content that does not match the key
	// schema. It is never auto-repaired: silently coercing could hide data
	// corruption.
	ErrMalformedFile = errors.New("malformed series file")

	// ErrInvalidSchema reports a save whose index matches no recognized
	// layout. Raised before any bytes are written.
	ErrInvalidSchema = errors.New("index does not match key schema")

	// ErrUnsupportedShape reports a save whose target is ambiguous, such as a
	// multi-column table that also carries series in its index, or an
	// explicit id alongside identifiers in the object itself.
	ErrUnsupportedShape = errors.New("unsupported index/column declaration")

	// ErrMissingDefaults reports skeleton construction for a dimension with
	// neither an override nor configured default values.
	ErrMissingDefaults = errors.New("no configured values for dimension")

	// ErrTooManyArguments reports more positional override lists than the
	// schema has key dimensions.
	ErrTooManyArguments = errors.New("too many key values provided")
)
