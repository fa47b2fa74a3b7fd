package planner

import (
	"errors"
	"sort"
	"strings"
)

// ErrCatalogUnavailable wraps failures of the route catalog. Searches
// cannot proceed without route data.
var ErrCatalogUnavailable = errors.New("route catalog unavailable")

// ValidationError is returned for requests rejected before any computation.
type ValidationError struct {
	FieldErrors map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.FieldErrors[f], "; "))
	}
	return "invalid search request: " + strings.Join(parts, ", ")
}
