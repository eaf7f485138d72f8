package cmdutil

import (
	"errors"
	"fmt"
)

// ExitError carries a non-zero process exit code out of a command.
// Commands return this instead of calling os.Exit() directly, allowing
// deferred cleanup to run. Main() handles the actual exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// FlagError indicates bad flags or arguments. Main() prints the error
// message followed by the command's usage string.
type FlagError struct {
	err error
}

func (e *FlagError) Error() string { return e.err.Error() }
func (e *FlagError) Unwrap() error { return e.err }

// FlagErrorf creates a FlagError with a formatted message.
func FlagErrorf(format string, args ...any) error {
	return &FlagError{err: fmt.Errorf(format, args...)}
}

// SilentError signals that the error has already been displayed to the
// user. Main() exits non-zero without printing anything additional.
var SilentError = errors.New("SilentError")
