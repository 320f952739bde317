package reporter

import (
	"errors"
	"fmt"
)

// ErrNoHostsMatched is reported when the run's host pattern selected no
// hosts. It is fatal: the run produces no results and the caller must be
// told, unlike the other playbook notifications which are diagnostic only.
var ErrNoHostsMatched = errors.New("no hosts matched the host pattern")

// ConfigurationError indicates a write operation was invoked with an
// unusable combination of arguments, for example neither a formatter nor
// the JSON flag.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// ParseError indicates a payload field was present but not in the
// expected format. Missing optional fields are never a ParseError; they
// resolve to documented defaults.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error parsing %s value %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WriteError wraps a failed report file or directory write with the path
// that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("error writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// EngineError wraps a failure of the execution engine itself, so callers
// handle one error taxonomy regardless of which collaborator failed.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("execution engine failed: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
