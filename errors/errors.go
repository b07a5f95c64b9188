// Package errors provides error handling for slipway.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrCanceled) {
//	    // handle cancellation
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors for the scheduler.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrCanceled is the failure reason carried by jobs canceled before
	// admission. Caller-supplied reasons are marked with this sentinel so
	// errors.Is(err, ErrCanceled) holds for every cancellation.
	ErrCanceled = New("job canceled")

	// ErrInvalidOptions indicates scheduler construction was attempted with
	// options that fail validation (e.g. non-positive MaxJobs).
	ErrInvalidOptions = New("invalid scheduler options")

	// ErrSchedulerClosed indicates a submission was made to a scheduler
	// after Close.
	ErrSchedulerClosed = New("scheduler closed")
)

// IsCanceled checks if an error is or wraps ErrCanceled.
func IsCanceled(err error) bool {
	return err != nil && Is(err, ErrCanceled)
}

// CancelReason builds the failure reason for a canceled job. A nil reason
// yields the bare sentinel; anything else is marked so it still matches
// ErrCanceled under errors.Is while preserving the caller's message.
func CancelReason(reason error) error {
	if reason == nil {
		return ErrCanceled
	}
	return Mark(reason, ErrCanceled)
}
