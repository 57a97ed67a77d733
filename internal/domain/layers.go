package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownRequestType is returned when a toggled id is not in the catalog.
var ErrUnknownRequestType = errors.New("unknown request type")

// ToggleType adds id to the selection if absent and removes it if present.
// The input set is left untouched.
func ToggleType(c Catalog, selected TypeSet, id string) (TypeSet, error) {
	if !c.Has(id) {
		return selected, fmt.Errorf("%w: %q", ErrUnknownRequestType, id)
	}
	if selected.Has(id) {
		return selected.Without(id), nil
	}
	return selected.With(id), nil
}

// SelectAllTypes returns the full catalog key set.
func SelectAllTypes(c Catalog) TypeSet {
	return c.All()
}

// DeselectAllTypes returns the empty selection.
func DeselectAllTypes() TypeSet {
	return NewTypeSet()
}

// WithRequestTypes returns rs with its request-type selection replaced.
func WithRequestTypes(rs RangeSet, types TypeSet) RangeSet {
	next := rs
	next.RequestTypes = types
	return next
}
