package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/output"
	"github.com/robinvdvleuten/ourfinance/report"
)

type IncomeCmd struct {
	File        FileOrStdin        `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
	From        ledger.Date        `help:"Start of the period (YYYY-MM-DD). Defaults to the first transaction."`
	To          ledger.Date        `help:"End of the period (YYYY-MM-DD), included. Defaults to the last transaction."`
	Granularity report.Granularity `help:"Period size: monthly, quarterly or yearly." default:"monthly" short:"g"`
	Depth       int                `help:"Also list income and expense totals per account, truncated to this many segments." default:"0"`
}

func (cmd *IncomeCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	s, err := open(ctx, globals, cfg, &cmd.File, "income")
	if err != nil {
		return err
	}
	defer s.done()

	span, ok := s.snapshot.DateSpan()
	if !ok && cmd.From.IsZero() {
		printInfof(ctx.Stdout, "No transactions found")
		return nil
	}
	r, err := period(cmd.From, cmd.To, span)
	if err != nil {
		return err
	}

	rows, err := report.IncomeStatement(s.snapshot, r, cmd.Granularity)
	if err != nil {
		return err
	}
	cur := currency(globals, cfg, s.snapshot)
	styles := output.NewStyles(ctx.Stdout)

	g := newGrid("Period", "Income", "Expenses", "Net", "Savings").Numeric(1, 2, 3, 4)
	addRow := func(label string, row report.IncomeRow) {
		income, expenses, net := row.Income.Get(cur), row.Expenses.Get(cur), row.Net.Get(cur)
		g.Row(
			label,
			output.FormatNumber(income, cur),
			output.FormatNumber(expenses, cur),
			styles.Signed(net, output.FormatNumber(net, cur)),
			savingsRate(income, net),
		)
	}
	for _, row := range rows {
		addRow(row.Bucket.Label, row)
	}
	addRow("Total", report.Summarize(rows))
	g.Render(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "Amounts in %s over %s\n", cur, r)

	if cmd.Depth > 0 {
		for _, category := range []ledger.Category{ledger.CategoryIncome, ledger.CategoryExpenses} {
			totals, err := report.Breakdown(s.snapshot, r, category, cmd.Depth)
			if err != nil {
				return err
			}
			breakdown := newGrid(category.String(), cur).Numeric(1)
			for _, total := range totals {
				breakdown.Row(total.Account, output.FormatNumber(total.Total.Get(cur), cur))
			}
			_, _ = fmt.Fprintln(ctx.Stdout)
			breakdown.Render(ctx.Stdout)
		}
	}
	return nil
}

// savingsRate is net over income as a percentage, blank without income.
func savingsRate(income, net decimal.Decimal) string {
	if !income.IsPositive() {
		return ""
	}
	return net.Div(income).Shift(2).StringFixed(1) + "%"
}
