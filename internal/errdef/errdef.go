// Package errdef defines the error kinds handlers map to HTTP responses.
package errdef

import (
	"errors"
	"fmt"
)

// NewAuth creates an error representing a missing or mismatched shared token.
func NewAuth(format string, a ...any) error {
	return authError{fmt.Errorf(format, a...)}
}

type authError struct{ error }

func (e authError) Unwrap() error { return e.error }

// IsAuth returns true if err is an authentication error.
func IsAuth(err error) bool {
	var e authError
	return errors.As(err, &e)
}

// NewValidation creates an error representing a field that could not be decoded or coerced.
func NewValidation(format string, a ...any) error {
	return validationError{fmt.Errorf(format, a...)}
}

type validationError struct{ error }

func (e validationError) Unwrap() error { return e.error }

func IsValidation(err error) bool {
	var e validationError
	return errors.As(err, &e)
}

// NewStore creates an error representing a datastore failure.
func NewStore(format string, a ...any) error {
	return storeError{fmt.Errorf(format, a...)}
}

type storeError struct{ error }

func (e storeError) Unwrap() error { return e.error }

func IsStore(err error) bool {
	var e storeError
	return errors.As(err, &e)
}

// NewUpstream creates an error representing a failed guild-name lookup.
func NewUpstream(format string, a ...any) error {
	return upstreamError{fmt.Errorf(format, a...)}
}

type upstreamError struct{ error }

func (e upstreamError) Unwrap() error { return e.error }

func IsUpstream(err error) bool {
	var e upstreamError
	return errors.As(err, &e)
}
