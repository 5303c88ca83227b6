package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

func TestCommandError(t *testing.T) {
	var err error = NewCommandError(42)
	assert.EqualError(t, err, "command failed")

	var cmdErr *CommandError
	assert.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 42, cmdErr.ExitCode())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, ExitOK},
		{"CommandError", NewCommandError(7), 7},
		{"WrappedCommandError", fmt.Errorf("check: %w", NewCommandError(ExitFailure)), ExitFailure},
		{"InvalidParameter", ledger.NewInvalidParameterError("window", 0, "must be positive"), ExitInvalidParameter},
		{"InsufficientData", fmt.Errorf("forecast: %w", &ledger.InsufficientDataError{Operation: "forecast", Reason: "no data"}), ExitInsufficientData},
		{"Other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
