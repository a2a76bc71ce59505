// Package apperr defines the error taxonomy shared by every mongoforge
// component: a small coded Error type plus a handful of sentinels for the
// conditions callers check for most often.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error so callers can branch on cause without string
// matching. It mirrors the driver/parse/timeout/cancelled/tool/io taxonomy.
type Kind int

const (
	// Driver wraps an error returned by the underlying database driver.
	Driver Kind = iota
	// Parse indicates a BSON/JSON decode or serialization failure.
	Parse
	// Timeout indicates a connect/ping/RPC call exceeded its bound.
	Timeout
	// Cancelled indicates a cancellation token fired.
	Cancelled
	// ToolNotFound indicates an external companion tool (e.g. the dump
	// format binary) was not found on the host.
	ToolNotFound
	// IO indicates a local file or process error.
	IO
)

func (k Kind) String() string {
	switch k {
	case Driver:
		return "driver"
	case Parse:
		return "parse"
	case Timeout:
		return "timeout"
	case Cancelled:
		return "cancelled"
	case ToolNotFound:
		return "tool_not_found"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is the coded error type returned by every mongoforge package.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mongoforge: %s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("mongoforge: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error without a wrapped cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error with a wrapped cause, preserving errors.Is/As chains.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err (or anything it wraps) is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsTimeout(err error) bool      { return Is(err, Timeout) }
func IsCancelled(err error) bool    { return Is(err, Cancelled) }
func IsToolNotFound(err error) bool { return Is(err, ToolNotFound) }
func IsParse(err error) bool        { return Is(err, Parse) }
func IsDriver(err error) bool       { return Is(err, Driver) }

var (
	// ErrNotFound is returned when a document, collection or database
	// does not exist.
	ErrNotFound = errors.New("mongoforge: not found")

	// ErrNoConnection is returned when an operation targets a connection
	// id that has no active client.
	ErrNoConnection = errors.New("mongoforge: no active connection")

	// ErrReadOnly is returned when a mutating command targets a
	// connection whose saved profile is marked read-only.
	ErrReadOnly = errors.New("mongoforge: connection is read-only")

	// ErrStale names a background completion whose request id/generation
	// no longer matches the current one. No function in this module
	// returns it: the command layer discards stale completions silently by
	// returning nil.
	ErrStale = errors.New("mongoforge: stale completion discarded")
)

// ValidationError describes a single field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ValidationErrors is a slice of ValidationError that implements error.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
