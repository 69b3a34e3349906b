package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMixedMode is returned when some elements carry levels and others do not.
	ErrMixedMode = errors.New("mixed pcmm mode: some elements have levels and others do not")
	// ErrTagInProgress is returned when another tag operation holds the saga lock.
	ErrTagInProgress = errors.New("tag operation already in progress")
)

// ValidationError reports a missing or malformed argument. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Field != "" && e.Reason != "":
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return ErrInvalidArgument.Error()
	}
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed storage call with the operation that issued it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Op + ": persistence error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func Required(field string) error {
	return &ValidationError{Field: field, Reason: "required"}
}

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// MixedMode reports a hierarchy where only some elements own levels.
func MixedMode() error {
	return &ValidationError{Field: "elements", Reason: "levels attached to some elements only", Err: ErrMixedMode}
}
