package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports a lookup by name that matched nothing: an unknown
// event, an unbound registry entry. It indicates a caller or configuration
// mistake and is surfaced directly, never retried or recovered internally.
type NotFoundError struct {
	Kind string // what was looked up, e.g. "event" or "component"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
