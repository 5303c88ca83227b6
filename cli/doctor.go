package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/parser"
	"github.com/robinvdvleuten/ourfinance/telemetry"
)

// DoctorCmd groups troubleshooting commands for ledger files.
type DoctorCmd struct {
	Lex  LexCmd  `cmd:"" help:"Show lexical tokens from a beancount file."`
	Load LoadCmd `cmd:"" help:"Load a ledger and show timings and what it contains."`
}

// LexCmd shows lexical tokens from a beancount file.
type LexCmd struct {
	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
}

// Run executes the lex command.
func (cmd *LexCmd) Run(ctx *kong.Context, cfg *config.Config) error {
	if err := cmd.File.Resolve(cfg.LedgerFile); err != nil {
		return err
	}

	content, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	lexer := parser.NewLexer(content, cmd.File.Filename)
	for _, token := range lexer.ScanAll() {
		if token.Type == parser.EOF {
			continue
		}

		// TYPE line:col "content"
		_, _ = fmt.Fprintf(ctx.Stdout, "%-10s %d:%d    %q\n",
			token.Type.String(),
			token.Line,
			token.Column,
			token.String(content))
	}

	return nil
}

// LoadCmd loads a ledger under a timing collector.
type LoadCmd struct {
	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
}

// Run executes the load command.
func (cmd *LoadCmd) Run(ctx *kong.Context, cfg *config.Config) error {
	if err := cmd.File.Resolve(cfg.LedgerFile); err != nil {
		return err
	}

	collector := telemetry.NewTimingCollector()
	snapshot, err := cmd.File.Load(telemetry.WithCollector(context.Background(), collector))
	if err != nil {
		source, _ := cmd.File.GetSourceContent()
		_, _ = fmt.Fprintln(ctx.Stderr, NewErrorRenderer(source).WithFilename(cmd.File.GetAbsoluteFilename()).Render(err))
		return NewCommandError(ExitFailure)
	}

	for _, span := range collector.Spans() {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s%s  %s\n",
			strings.Repeat("  ", span.Depth), span.Name, span.Duration.Round(time.Microsecond))
	}

	_, _ = fmt.Fprintln(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "files         %d\n", len(snapshot.Files()))
	_, _ = fmt.Fprintf(ctx.Stdout, "transactions  %d\n", snapshot.Len())
	_, _ = fmt.Fprintf(ctx.Stdout, "accounts      %d\n", len(snapshot.Accounts()))
	_, _ = fmt.Fprintf(ctx.Stdout, "currencies    %s\n", strings.Join(snapshot.Currencies(), ", "))
	_, _ = fmt.Fprintf(ctx.Stdout, "warnings      %d\n", len(snapshot.Warnings()))
	_, _ = fmt.Fprintf(ctx.Stdout, "skipped       %d\n", snapshot.Skipped())
	return nil
}
