package httputil

import (
	"errors"
)

// GenericFailure is shown for errors no mapping recognizes.
const GenericFailure = "Something went wrong. Please try again."

// ErrorMapping defines how an error maps to a page status and banner.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// Match returns the first mapping err matches, searching the tables in order.
// The returned Message is already resolved against err.
func Match(err error, tables ...[]ErrorMapping) (ErrorMapping, bool) {
	for _, table := range tables {
		for _, m := range table {
			if errors.Is(err, m.Error) {
				if m.Message == "" {
					m.Message = err.Error()
				}
				return m, true
			}
		}
	}
	return ErrorMapping{}, false
}
