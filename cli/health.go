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

type HealthCmd struct {
	File   FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
	AsOf   ledger.Date `help:"Date to assess (YYYY-MM-DD). Defaults to today."`
	Months int         `help:"Months averaged for income and expenses." default:"3" short:"m"`
}

func (cmd *HealthCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	s, err := open(ctx, globals, cfg, &cmd.File, "health")
	if err != nil {
		return err
	}
	defer s.done()

	h, err := report.Health(s.snapshot, orToday(cmd.AsOf), cmd.Months, currency(globals, cfg, s.snapshot))
	if err != nil {
		return err
	}

	cur := h.Currency
	styles := output.NewStyles(ctx.Stdout)
	percent := func(d decimal.Decimal) string { return d.Shift(2).StringFixed(1) + "%" }

	figures := newGrid("Figure", cur).Numeric(1)
	figures.Row("Liquid assets", output.FormatNumber(h.LiquidAssets, cur))
	figures.Row("Investments", output.FormatNumber(h.InvestmentAssets, cur))
	figures.Row("Total assets", output.FormatNumber(h.TotalAssets, cur))
	figures.Row("Total liabilities", output.FormatNumber(h.TotalLiabilities, cur))
	figures.Row("Net worth", output.FormatNumber(h.NetWorth, cur))
	figures.Row(fmt.Sprintf("Monthly income (%d months)", h.Months), output.FormatNumber(h.MonthlyIncome, cur))
	figures.Row(fmt.Sprintf("Monthly expenses (%d months)", h.Months), output.FormatNumber(h.MonthlyExpenses, cur))
	figures.Render(ctx.Stdout)

	ratios := newGrid("Ratio", "Value", "Rating", "Points").Numeric(1, 3)
	values := map[string]string{
		"emergency_fund":   h.EmergencyFundMonths.StringFixed(1) + " months",
		"savings_rate":     percent(h.SavingsRate),
		"debt_to_income":   percent(h.DebtToIncome),
		"investment_ratio": percent(h.InvestmentRatio),
	}
	for _, f := range h.Findings {
		ratios.Row(f.Metric, values[f.Metric], string(f.Rating), fmt.Sprint(f.Points))
	}
	ratios.Render(ctx.Stdout)

	for _, f := range h.Findings {
		line := f.Message
		if f.Rating == report.RatingPoor {
			line = styles.Warning(line)
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "  %s\n", line)
	}
	_, _ = fmt.Fprintf(ctx.Stdout, "\nScore: %s (%s) as of %s\n",
		styles.Keyword(fmt.Sprintf("%d/100", h.Score)), h.Grade, h.AsOf)
	return nil
}
