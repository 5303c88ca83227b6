package cli

import (
	"errors"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitInvalidParameter = 2
	ExitInsufficientData = 3
)

// CommandError signals a failure whose output the command already wrote,
// so main only needs to exit with the code.
type CommandError struct {
	exitCode int
}

// NewCommandError creates a new CommandError with the given exit code.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

func (e *CommandError) Error() string {
	return "command failed"
}

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	var (
		cmdErr     *CommandError
		paramErr   *ledger.InvalidParameterError
		missingErr *ledger.InsufficientDataError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cmdErr):
		return cmdErr.ExitCode()
	case errors.As(err, &paramErr):
		return ExitInvalidParameter
	case errors.As(err, &missingErr):
		return ExitInsufficientData
	}
	return ExitFailure
}
