package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a missing or unusable address, coordinate or weight set.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResolutionFailed marks an address the geocoder could not resolve.
	ErrResolutionFailed = errors.New("address resolution failed")
	// ErrGeocoderUnavailable marks a geocoder transport or upstream failure.
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")
	// ErrEmptyCandidateSet is returned when there is no warehouse to select from.
	// It is a deployment error and is checked at startup.
	ErrEmptyCandidateSet = errors.New("empty candidate set")
)

// InputError is a rejected input together with a reason that can be shown
// to the caller. It matches ErrInvalidInput under errors.Is.
type InputError struct {
	Reason string
}

// Invalid returns an *InputError with a formatted reason.
func Invalid(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string {
	return e.Reason + ": " + ErrInvalidInput.Error()
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }
