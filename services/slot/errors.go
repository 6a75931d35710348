package slot

import (
	"errors"
	"fmt"
)

// ErrorKind classifies dispatch failures for transport-level mapping.
type ErrorKind string

const (
	KindAlreadyBooked     ErrorKind = "ALREADY_BOOKED"
	KindDuplicateBooking  ErrorKind = "DUPLICATE_BOOKING"
	KindNoCapacity        ErrorKind = "NO_CAPACITY"
	KindBelowThreshold    ErrorKind = "BELOW_THRESHOLD"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindConflict          ErrorKind = "CONFLICT"
)

// Error is a classified dispatch error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds a classified error. Other dispatch services share this
// taxonomy so transports map every failure the same way.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return Errorf(kind, format, args...)
}

// KindOf extracts the classification from err, or empty if unclassified.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
