package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrCardinality is returned when a to-one handle is fetched as many or
	// the other way around
	ErrCardinality = errors.New("relationship cardinality mismatch")

	// ErrNoFetcher is returned when a handle needs network I/O but was built
	// without a fetcher
	ErrNoFetcher = errors.New("relationship handle has no fetcher")
)

// HydrationError reports a resource that could not be turned into an Entity.
// Err is usually a *validation.ValidationErrors.
type HydrationError struct {
	Type string
	ID   string
	Err  error
}

func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydrate %s/%s: %v", e.Type, e.ID, e.Err)
}

func (e *HydrationError) Unwrap() error {
	return e.Err
}
