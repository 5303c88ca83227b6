package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ourfinance/config"
)

type CheckCmd struct {
	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	s, err := open(ctx, globals, cfg, &cmd.File, "check")
	if err != nil {
		return err
	}
	defer s.done()

	if warnings := s.snapshot.Warnings(); len(warnings) > 0 {
		sourceContent, _ := cmd.File.GetSourceContent()
		renderer := NewErrorRenderer(sourceContent).WithFilename(cmd.File.GetAbsoluteFilename())
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.RenderAll(warnings))

		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d warning(s) found", len(warnings)))
		return NewCommandError(ExitFailure)
	}

	message := fmt.Sprintf("Check passed: %d transactions", s.snapshot.Len())
	if n := s.snapshot.Skipped(); n > 0 {
		message += fmt.Sprintf(", %d directives not used for analytics", n)
	}
	printSuccess(ctx.Stdout, message)

	return nil
}
