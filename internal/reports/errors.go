package reports

import (
	"errors"
	"strings"
)

// Error kinds exposed to callers.
const (
	KindMissingField    = "missing_field"
	KindGeoLookupFailed = "geo_lookup_failed"
)

var ErrMissingField = errors.New("missing required field")

// Error is the only error Produce returns.
type Error struct {
	Kind   string
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return e.Kind + ": " + strings.Join(e.Fields, ", ")
	}
	if e.Err != nil {
		return e.Kind + ": " + e.Err.Error()
	}
	return e.Kind
}

func (e *Error) Unwrap() error { return e.Err }
