package stravastats

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when required configuration is missing or invalid
	ErrConfig = errors.New("configuration error")

	// ErrAuth is returned when the refresh credential could not be exchanged
	ErrAuth = errors.New("authorization error")

	// ErrFetch is returned when a listing or detail request fails
	ErrFetch = errors.New("fetch error")

	// ErrIO is returned when an output artifact cannot be written or read
	ErrIO = errors.New("io error")
)

// StatusError records a non-success http response
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Status)
}
