// Package exit maps failures to process exit codes.
//
// The codes follow sysexits(3) where one fits. A successful launch exits
// with the java process's own code, so every code here is one java is
// unlikely to produce for the same reason.
package exit

import (
	"fmt"
	"io/fs"

	"github.com/cockroachdb/errors"

	"multijdk/internal/runner"
	"multijdk/internal/selector"
)

const (
	Success = 0
	// Internal covers failures with no more specific code
	Internal = 1
	// Usage is a bad command line (EX_USAGE)
	Usage = 64
	// Unavailable means no installation has the requested version (EX_UNAVAILABLE)
	Unavailable = 69
	// Config is an unreadable or invalid settings file (EX_CONFIG)
	Config = 78
	// CannotExecute is a java binary that exists but could not be started
	CannotExecute = 126
	// NotFound is a java binary that does not exist
	NotFound = 127
	// Cancelled is the user backing out of the picker, as for SIGINT
	Cancelled = 130
)

// Error carries an exit code and an optional hint for the user
type Error struct {
	Err        error
	Code       int
	Suggestion string
}

// New wraps err with code
func New(err error, code int) *Error {
	return &Error{Err: err, Code: code}
}

// WithSuggestion wraps err with code and a hint
func WithSuggestion(err error, code int, suggestion string) *Error {
	return &Error{Err: err, Code: code, Suggestion: suggestion}
}

// UsageError reports a bad command line
func UsageError(err error) *Error {
	return WithSuggestion(err, Usage, "Run: multijdk --help")
}

// ConfigError reports a settings problem
func ConfigError(err error) *Error {
	return New(err, Config)
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the exit code for err: the code of an *Error in its chain, a
// code derived from the launcher's sentinels, or Internal.
func Code(err error) int {
	if err == nil {
		return Success
	}

	var exitErr *Error
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, selector.ErrSelectionCancelled):
		return Cancelled
	case errors.Is(err, selector.ErrNoMatchingVersion):
		return Unavailable
	case errors.Is(err, runner.ErrSpawnFailure):
		if errors.Is(err, fs.ErrNotExist) {
			return NotFound
		}
		return CannotExecute
	}
	return Internal
}

// Suggestion returns the hint attached to err, if any
func Suggestion(err error) string {
	var exitErr *Error
	if errors.As(err, &exitErr) {
		return exitErr.Suggestion
	}
	return ""
}
