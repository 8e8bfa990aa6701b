// Package cmdutil holds the helper's error taxonomy: a closed set of typed
// errors that the protocol adapter, dispatch and providers return, so the
// command layer can map them to exit codes without string matching.
// oauthclient, azrepos and the stores return plain errors; an error with no
// taxonomy kind in its chain exits 1.
package cmdutil

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal condition.
type Kind int

const (
	KindInternal Kind = iota
	KindMalformedInput
	KindUnsupportedProtocol
	KindNoProvider
	KindInteractionDisabled
	KindAuthFailed
	KindCanceled
	KindTransient
	KindStoreCorrupt
)

// Error is a taxonomy-tagged fatal error. The adapter's top-level handler
// uses Kind to pick an exit code; it prints "fatal: <message>" for every
// error except SilentError.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a taxonomy error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a taxonomy error around an existing error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ExitCode maps a Kind to the process exit code: 0 for a benign
// decline (not represented here; that's a nil error from the provider),
// 130 for cancellation, 1 for everything else fatal.
func (k Kind) ExitCode() int {
	if k == KindCanceled {
		return 130
	}
	return 1
}

// SilentError signals that the error has already been printed to stderr;
// the command layer should exit non-zero without printing anything more.
var SilentError = errors.New("SilentError")

// AsError extracts a *Error from err, if any is present in its chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
