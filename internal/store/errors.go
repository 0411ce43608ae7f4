package store

import "errors"

// Low-level database operation errors. These are returned (or wrapped) by
// KV implementations when a SQL-level operation fails before any domain
// logic can be applied. Callers should use [errors.Is] to match them.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a statement against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrUnsupportedDriver is returned by the factory when the configured
	// driver name is not one of the supported backends.
	ErrUnsupportedDriver = errors.New("unsupported key-value store driver")
)
