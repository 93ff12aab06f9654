// Package werrors defines the typed failure kinds surfaced by every other
// component of vintner.
package werrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for reporting and recovery decisions.
type Kind string

const (
	// KindIO indicates an underlying filesystem or process-spawn failure.
	KindIO Kind = "io"

	// KindConfig indicates missing or unresolvable directories, or invalid
	// configuration values.
	KindConfig Kind = "config"

	// KindWine indicates the Wine binary was not found or Wine reported a
	// non-success status on an internal command.
	KindWine Kind = "wine"

	// KindDownload indicates an HTTP-layer or body-read failure.
	KindDownload Kind = "download"

	// KindChecksumMismatch indicates a downloaded artifact failed SHA-256
	// verification.
	KindChecksumMismatch Kind = "checksum_mismatch"

	// KindVerbNotFound indicates the requested verb has no descriptor and
	// no fallback.
	KindVerbNotFound Kind = "verb_not_found"

	// KindVerbAlreadyInstalled is reserved; the install path prefers
	// skip-on-log semantics unless force.
	KindVerbAlreadyInstalled Kind = "verb_already_installed"

	// KindVerbConflict indicates a conflict-check failure.
	KindVerbConflict Kind = "verb_conflict"

	// KindCommandExecution indicates a subprocess could not be spawned or
	// its wait failed. A subprocess returning non-zero is KindVerb.
	KindCommandExecution Kind = "command_execution"

	// KindVerb is a generic verb-stage failure, including non-zero
	// installer exit codes.
	KindVerb Kind = "verb"
)

// Error is the error type returned by vintner components.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// Message is the human-readable error message.
	Message string

	// Verb is the verb being operated on, if applicable.
	Verb string

	// Conflicting is the already-installed verb for KindVerbConflict.
	Conflicting string

	// Expected and Got carry the digests for KindChecksumMismatch.
	Expected string
	Got      string

	// Command is the subprocess command line for KindCommandExecution.
	Command string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindChecksumMismatch:
		return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Got)
	case KindVerbNotFound:
		return fmt.Sprintf("verb not found: %s", e.Verb)
	case KindVerbAlreadyInstalled:
		return fmt.Sprintf("verb already installed: %s", e.Verb)
	case KindVerbConflict:
		return fmt.Sprintf("verb conflict: %s conflicts with %s", e.Verb, e.Conflicting)
	case KindCommandExecution:
		return fmt.Sprintf("command execution failed: %s - %s", e.Command, e.unwrapMessage())
	}
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s error: %s: %s", e.Kind, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so callers can compare against a
// bare &Error{Kind: ...} sentinel with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func (e *Error) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// IO wraps a filesystem or process-spawn failure.
func IO(err error) *Error {
	return &Error{Kind: KindIO, Err: err}
}

// Config creates a configuration error.
func Config(message string) *Error {
	return &Error{Kind: KindConfig, Message: message}
}

// Wine creates a Wine error.
func Wine(message string) *Error {
	return &Error{Kind: KindWine, Message: message}
}

// Download creates a download error wrapping the HTTP-layer cause.
func Download(message string, err error) *Error {
	return &Error{Kind: KindDownload, Message: message, Err: err}
}

// ChecksumMismatch creates a checksum-mismatch error carrying both digests.
func ChecksumMismatch(expected, got string) *Error {
	return &Error{Kind: KindChecksumMismatch, Expected: expected, Got: got}
}

// VerbNotFound creates an error for a verb with no descriptor.
func VerbNotFound(name string) *Error {
	return &Error{Kind: KindVerbNotFound, Verb: name}
}

// VerbAlreadyInstalled creates an already-installed error.
func VerbAlreadyInstalled(name string) *Error {
	return &Error{Kind: KindVerbAlreadyInstalled, Verb: name}
}

// VerbConflict creates a conflict error between a verb and an installed one.
func VerbConflict(verb, conflicting string) *Error {
	return &Error{Kind: KindVerbConflict, Verb: verb, Conflicting: conflicting}
}

// CommandExecution creates an error for a subprocess that could not be
// spawned or waited on.
func CommandExecution(command string, err error) *Error {
	return &Error{Kind: KindCommandExecution, Command: command, Err: err}
}

// Verb creates a generic verb-stage error.
func Verb(format string, args ...interface{}) *Error {
	return &Error{Kind: KindVerb, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not a vintner error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsChecksumMismatch reports whether err is a checksum-mismatch error.
func IsChecksumMismatch(err error) bool {
	return KindOf(err) == KindChecksumMismatch
}

// IsVerbNotFound reports whether err is a verb-not-found error.
func IsVerbNotFound(err error) bool {
	return KindOf(err) == KindVerbNotFound
}

// IsVerbConflict reports whether err is a verb-conflict error.
func IsVerbConflict(err error) bool {
	return KindOf(err) == KindVerbConflict
}

// IsWine reports whether err is a Wine error.
func IsWine(err error) bool {
	return KindOf(err) == KindWine
}
