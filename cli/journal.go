package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/formatter"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/output"
	"github.com/robinvdvleuten/ourfinance/query"
)

type JournalCmd struct {
	File     FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
	Account  string      `help:"Only postings whose account contains this text (case-insensitive)." short:"a"`
	Query    string      `help:"Only transactions whose narration, payee or tags contain this text." short:"q"`
	From     ledger.Date `help:"Start date (YYYY-MM-DD), included."`
	To       ledger.Date `help:"End date (YYYY-MM-DD), included."`
	Min      string      `help:"Minimum posting amount."`
	Max      string      `help:"Maximum posting amount."`
	Absolute bool        `help:"Compare amount magnitudes against --min and --max."`
	Limit    int         `help:"Maximum number of rows (0 for all)." default:"0" short:"n"`
	Format   string      `help:"Output format." enum:"table,beancount" default:"table"`
}

func (cmd *JournalCmd) criteria() (query.Criteria, error) {
	c := query.Criteria{
		Account:  cmd.Account,
		Text:     cmd.Query,
		Absolute: cmd.Absolute,
	}
	if !cmd.From.IsZero() || !cmd.To.IsZero() {
		r, err := period(cmd.From, cmd.To, ledger.DateRange{})
		if err != nil {
			return c, err
		}
		c.Range = &r
	}
	var err error
	if c.Min, err = parseAmount("min", cmd.Min); err != nil {
		return c, err
	}
	if c.Max, err = parseAmount("max", cmd.Max); err != nil {
		return c, err
	}
	if cmd.Limit < 0 {
		return c, ledger.NewInvalidParameterError("limit", cmd.Limit, "must not be negative")
	}
	return c, c.Validate()
}

func (cmd *JournalCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	c, err := cmd.criteria()
	if err != nil {
		return err
	}

	s, err := open(ctx, globals, cfg, &cmd.File, "journal")
	if err != nil {
		return err
	}
	defer s.done()

	txns, err := query.Filter(s.snapshot, c)
	if err != nil {
		return err
	}

	if cmd.Format == "beancount" {
		if cmd.Limit > 0 && len(txns) > cmd.Limit {
			txns = txns[len(txns)-cmd.Limit:]
		}
		return formatter.New(formatter.WithCurrencyColumn(0)).Format(txns, ctx.Stdout)
	}

	rows := query.Newest(query.Rows(txns, c.Account))
	if len(rows) == 0 {
		printInfof(ctx.Stdout, "No postings found")
		return nil
	}
	flows := query.Flows(rows)
	total := len(rows)
	if cmd.Limit > 0 && len(rows) > cmd.Limit {
		rows = rows[:cmd.Limit]
	}

	styles := output.NewStyles(ctx.Stdout)
	g := newGrid("Date", "Description", "Account", "Amount").Numeric(3)
	for _, row := range rows {
		description := row.Narration
		if row.Payee != "" {
			description = row.Payee + " | " + row.Narration
		}
		g.Row(
			row.Date.String(),
			description,
			row.Account,
			styles.Money(row.Amount, row.Currency),
		)
	}
	g.Render(ctx.Stdout)

	summary := newGrid("Currency", "Inflow", "Outflow", "Net", "Postings").Numeric(1, 2, 3, 4)
	for _, f := range flows {
		summary.Row(
			f.Currency,
			output.FormatNumber(f.Inflow, f.Currency),
			output.FormatNumber(f.Outflow, f.Currency),
			output.FormatNumber(f.Net(), f.Currency),
			fmt.Sprint(f.Count),
		)
	}
	summary.Render(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "Showing %d of %d postings\n", len(rows), total)
	return nil
}
