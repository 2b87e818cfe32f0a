package catalog

import "errors"

var (
	// ErrNotFound is returned by Get for an unknown product id.
	ErrNotFound = errors.New("product not found")
	// ErrUnknownDriver is returned by Open for an unsupported catalog driver.
	ErrUnknownDriver = errors.New("unknown catalog driver")
	// ErrUnknownField is returned for a field outside models.AllFields.
	ErrUnknownField = errors.New("unknown product field")
	// ErrReadOnly is returned by writes to a catalog owned by another system.
	ErrReadOnly = errors.New("catalog is read-only")
)
