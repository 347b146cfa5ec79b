// Package apperr defines the error kinds surfaced to API callers.
//
// Domain packages declare sentinel values of these types so callers can
// match a specific failure with errors.Is and the general kind with
// errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// PreconditionError reports an operation that needs state that does not exist yet.
type PreconditionError struct {
	Code    string
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFoundError reports a lookup or delete target that is absent.
type NotFoundError struct {
	Resource string
	Key      string
	Code     string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s not found", e.Code, e.Resource)
	}
	return fmt.Sprintf("%s: %s %s not found", e.Code, e.Resource, e.Key)
}

func Validation(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func Precondition(code, message string) *PreconditionError {
	return &PreconditionError{Code: code, Message: message}
}

func NotFound(resource, code string) *NotFoundError {
	return &NotFoundError{Resource: resource, Code: code}
}

// WithKey returns a copy of a not-found sentinel bound to a lookup key.
// The copy still matches the sentinel through errors.Is.
func (e *NotFoundError) WithKey(key string) error {
	return &keyedNotFound{NotFoundError: NotFoundError{Resource: e.Resource, Key: key, Code: e.Code}, sentinel: e}
}

type keyedNotFound struct {
	NotFoundError
	sentinel *NotFoundError
}

func (e *keyedNotFound) Error() string { return e.NotFoundError.Error() }

func (e *keyedNotFound) Unwrap() error { return e.sentinel }

func (e *keyedNotFound) As(target any) bool {
	if t, ok := target.(**NotFoundError); ok {
		nf := e.NotFoundError
		*t = &nf
		return true
	}
	return false
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
