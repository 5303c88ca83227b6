// Package cli implements the ourfinance command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/output"
	"github.com/robinvdvleuten/ourfinance/report"
	"github.com/robinvdvleuten/ourfinance/telemetry"
)

const stdinFilename = "<stdin>"

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...any) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	err := form.Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// FileOrStdin accepts either a file path or "-" for stdin.
// For stdin: Filename="<stdin>", Contents populated.
// For files: Filename set, Contents nil (read by the loader).
type FileOrStdin struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		return f.readStdin(os.Stdin)
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	f.Contents = nil

	return nil
}

// Resolve fills in the file when no argument was given: the configured
// ledger file when there is one, stdin otherwise.
func (f *FileOrStdin) Resolve(fallback string) error {
	if f.Filename != "" {
		return nil
	}
	if fallback != "" {
		f.Filename = fallback
		return nil
	}
	return f.readStdin(os.Stdin)
}

func (f *FileOrStdin) readStdin(r io.Reader) error {
	contents, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}
	f.Filename = stdinFilename
	f.Contents = contents
	return nil
}

// GetSourceContent returns source content for error formatting.
func (f *FileOrStdin) GetSourceContent() ([]byte, error) {
	if f.Filename == stdinFilename {
		return f.Contents, nil
	}
	return os.ReadFile(f.Filename)
}

// GetAbsoluteFilename returns the absolute path, or "<stdin>" for stdin.
func (f *FileOrStdin) GetAbsoluteFilename() string {
	if f.Filename == stdinFilename {
		return f.Filename
	}
	absPath, err := filepath.Abs(f.Filename)
	if err != nil {
		return f.Filename
	}
	return absPath
}

// Load builds a snapshot using LoadBytes for stdin or Load for files.
func (f *FileOrStdin) Load(ctx context.Context) (*ledger.Snapshot, error) {
	if f.Filename == stdinFilename {
		return ledger.LoadBytes(ctx, f.Filename, f.Contents)
	}
	return ledger.Load(ctx, f.GetAbsoluteFilename())
}

// session holds what a reporting command needs once its ledger is loaded.
type session struct {
	ctx      context.Context
	snapshot *ledger.Snapshot
	done     func()
}

// open resolves and loads the ledger for a command named name, with
// telemetry when enabled. A load failure is rendered to stderr and turned
// into a CommandError. The caller must call done.
func open(kctx *kong.Context, globals *Globals, cfg *config.Config, file *FileOrStdin, name string) (*session, error) {
	runCtx, done := startTelemetry(kctx, globals, name)

	if err := file.Resolve(cfg.LedgerFile); err != nil {
		done()
		return nil, err
	}

	snapshot, err := file.Load(runCtx)
	if err != nil {
		source, _ := file.GetSourceContent()
		_, _ = fmt.Fprintln(kctx.Stderr, NewErrorRenderer(source).WithFilename(file.GetAbsoluteFilename()).Render(err))
		_, _ = fmt.Fprintln(kctx.Stderr)
		printError(kctx.Stderr, "failed to load ledger")
		done()
		return nil, NewCommandError(ExitFailure)
	}

	return &session{ctx: runCtx, snapshot: snapshot, done: done}, nil
}

// startTelemetry returns a context carrying a timing collector when
// telemetry is enabled. The returned function ends the root timer and
// prints the report once.
func startTelemetry(kctx *kong.Context, globals *Globals, name string) (context.Context, func()) {
	runCtx := context.Background()
	if !globals.Telemetry {
		return runCtx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	runCtx = telemetry.WithCollector(runCtx, collector)

	root := collector.Start(name)
	runCtx = telemetry.WithRootTimer(runCtx, root)

	var once sync.Once
	return runCtx, func() {
		once.Do(func() {
			root.End()
			_, _ = fmt.Fprintln(kctx.Stderr)
			collector.Report(kctx.Stderr)
		})
	}
}

// currency picks the reporting currency: the flag, then the configured
// default, then the ledger's primary currency.
func currency(globals *Globals, cfg *config.Config, s *ledger.Snapshot) string {
	switch {
	case globals.Currency != "":
		return globals.Currency
	case cfg.Currency != "":
		return cfg.Currency
	default:
		return s.PrimaryCurrency()
	}
}

// today is the default as-of date.
var today = func() ledger.Date { return ledger.DateOf(time.Now()) }

func orToday(d ledger.Date) ledger.Date {
	if d.IsZero() {
		return today()
	}
	return d
}

// period combines --from and --to. Both or neither must be given; when
// neither is, fallback is used.
func period(from, to ledger.Date, fallback ledger.DateRange) (ledger.DateRange, error) {
	switch {
	case from.IsZero() && to.IsZero():
		return fallback, nil
	case from.IsZero() || to.IsZero():
		return ledger.DateRange{}, &ledger.InvalidParameterError{
			Parameter: "range",
			Reason:    "--from and --to must be provided together",
		}
	}
	return ledger.NewDateRange(from, to)
}

func parseCategories(names []string) ([]ledger.Category, error) {
	var categories []ledger.Category
	for _, name := range names {
		c, ok := ledger.ParseCategory(strings.TrimSpace(name))
		if !ok {
			return nil, ledger.NewInvalidParameterError("category", name, "unknown account category")
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func parseAmount(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, ledger.NewInvalidParameterError(name, value, "expected a number")
	}
	return &d, nil
}

// formatBalance renders every currency of b, for example "$1.00, €2.00".
func formatBalance(b *report.Balance) string {
	if b == nil || b.IsZero() {
		return "0"
	}
	parts := make([]string, 0, len(b.Currencies()))
	for _, entry := range b.Entries() {
		if entry.Amount.IsZero() {
			continue
		}
		parts = append(parts, output.FormatAmount(entry.Amount, entry.Currency))
	}
	return strings.Join(parts, ", ")
}
