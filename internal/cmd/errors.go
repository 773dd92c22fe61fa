package cmd

import (
	"errors"
	"fmt"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// ExitError carries the process exit code for a failed invocation. A nil
// Err means the user has already been told what went wrong.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: exitUsage, Err: fmt.Errorf(format, args...)}
}

func configError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}
