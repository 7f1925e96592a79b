// Package workflow implements the plot lifecycle: the status coordinator
// that serializes access to a plot row, the reservation and burial-record
// managers built on top of it, and the facade the HTTP layer consumes.
// This file defines the typed failure taxonomy shared by all operations.
package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.  Handlers map kinds onto HTTP
// status codes; reasons are safe to show to callers and never contain
// identifiers the caller did not supply.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidInput
)

// Error is a typed operation failure with a caller-visible reason.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// NotFound reports that the addressed entity does not exist.
func NotFound(reason string) error { return &Error{Kind: KindNotFound, Reason: reason} }

// Conflict reports a status precondition violation (occupied plot,
// duplicate active reservation, missing or unapproved payment).
func Conflict(reason string) error { return &Error{Kind: KindConflict, Reason: reason} }

// Conflictf is Conflict with formatting.
func Conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Reason: fmt.Sprintf(format, args...)}
}

// Forbidden reports a failed role or ownership check.
func Forbidden(reason string) error { return &Error{Kind: KindForbidden, Reason: reason} }

// InvalidInput reports a missing or malformed required field.
func InvalidInput(reason string) error { return &Error{Kind: KindInvalidInput, Reason: reason} }

// KindOf extracts the failure kind, or KindUnknown for infrastructure
// errors that should surface as a 500.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
