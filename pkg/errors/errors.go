// Package errors provides error wrapping utilities for context-aware error messages
// and the failure kinds reported by catalogue operations.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Failure kinds. Every error returned by the catalogue matches exactly one of these
// through errors.Is.
var (
	ErrNotFound            = stderrors.New("not found")
	ErrConstraintViolation = stderrors.New("constraint violation")
	ErrReferencedByOther   = stderrors.New("referenced by another structure")
	ErrStorageFailure      = stderrors.New("storage failure")
	ErrMalformedInput      = stderrors.New("malformed input")
	ErrEmptyImageFolder    = stderrors.New("empty image folder")
	ErrInvalidImageFolder  = stderrors.New("invalid image folder")
)

// Error describes a failed operation on one entity kind.
type Error struct {
	Kind   error  // one of the Err* sentinels
	Entity string // structure, component, property, image, ...
	Op     string // create, update, remove, export, ...
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an *Error. A nil kind is treated as ErrStorageFailure.
func New(kind error, entity, op string, err error) error {
	if kind == nil {
		kind = ErrStorageFailure
	}
	return &Error{Kind: kind, Entity: entity, Op: op, Err: err}
}

// Newf builds an *Error whose cause is a formatted message.
func Newf(kind error, entity, op, format string, args ...any) error {
	return New(kind, entity, op, fmt.Errorf(format, args...))
}

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// KindOf returns the failure kind carried by err, or nil if it carries none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrConstraintViolation,
		ErrReferencedByOther,
		ErrMalformedInput,
		ErrEmptyImageFolder,
		ErrInvalidImageFolder,
		ErrStorageFailure,
	} {
		if stderrors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
