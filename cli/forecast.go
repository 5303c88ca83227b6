package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/forecast"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/output"
	"github.com/robinvdvleuten/ourfinance/report"
)

type ForecastCmd struct {
	File        FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
	Window      *int        `help:"Periods of history averaged into the baseline. Defaults to OURFINANCE_FORECAST_WINDOW." short:"w"`
	Horizon     *int        `help:"Periods to project. Defaults to OURFINANCE_FORECAST_HORIZON." short:"H"`
	Granularity string      `help:"Period size: monthly, quarterly or yearly. Defaults to OURFINANCE_FORECAST_GRANULARITY." short:"g"`
	Scenarios   string      `help:"YAML file with scenarios to apply. Defaults to OURFINANCE_SCENARIO_FILE." type:"path"`
	Interactive bool        `help:"Describe an extra scenario in an interactive form." short:"i"`
	Analyze     bool        `help:"Also show monthly spending patterns per expense category."`

	IncomeGrowth float64 `help:"Annual income growth rate, 0.03 for three percent." placeholder:"RATE"`
	Inflation    float64 `help:"Annual expense growth rate." placeholder:"RATE"`
	Return       float64 `help:"Annual investment return earned on net worth." placeholder:"RATE"`
	Tax          string  `help:"Deduct income tax using a built-in schedule (married-joint-2025)." placeholder:"SCHEDULE"`
}

// defaultPeriods is the window and horizon when neither flags nor
// configuration set one.
const defaultPeriods = 12

// params merges flags over configuration, falling back to a monthly
// twelve by twelve forecast. Values that were given are passed through
// unchanged, so forecast.Run rejects the invalid ones.
func (cmd *ForecastCmd) params(cfg *config.Config, cur string) (forecast.Params, error) {
	p := forecast.Params{
		Window:   orDefault(cfg.ForecastWindow, defaultPeriods),
		Horizon:  orDefault(cfg.ForecastHorizon, defaultPeriods),
		Currency: cur,
	}
	if cmd.Window != nil {
		p.Window = *cmd.Window
	}
	if cmd.Horizon != nil {
		p.Horizon = *cmd.Horizon
	}

	name := cmd.Granularity
	if name == "" {
		name = cfg.ForecastGranularity
	}
	p.Granularity = report.Monthly
	if name != "" {
		g, err := report.ParseGranularity(name)
		if err != nil {
			return p, err
		}
		p.Granularity = g
	}

	p.Growth = forecast.Growth{Income: cmd.IncomeGrowth, Expenses: cmd.Inflation, Return: cmd.Return}
	if cmd.Tax != "" {
		schedule, err := forecast.LookupTaxSchedule(cmd.Tax)
		if err != nil {
			return p, err
		}
		p.Tax = &schedule
	}

	path := cmd.Scenarios
	if path == "" {
		path = cfg.ScenarioFile
	}
	if path != "" {
		scenarios, err := forecast.LoadScenarios(path)
		if err != nil {
			return p, err
		}
		p.Scenarios = scenarios
	}
	return p, p.Validate()
}

// orDefault treats zero as unset.
func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func (cmd *ForecastCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	s, err := open(ctx, globals, cfg, &cmd.File, "forecast")
	if err != nil {
		return err
	}
	defer s.done()

	cur := currency(globals, cfg, s.snapshot)
	params, err := cmd.params(cfg, cur)
	if err != nil {
		return err
	}

	if cmd.Interactive {
		if !isTerminal() {
			return errors.New("--interactive requires a terminal")
		}
		scenario, err := promptScenario()
		if err != nil {
			return err
		}
		params.Scenarios = append(params.Scenarios, scenario)
	}

	result, err := forecast.Run(s.snapshot, params)
	if err != nil {
		return err
	}
	renderForecast(ctx, result)

	if cmd.Analyze {
		patterns, err := forecast.AnalyzeExpenses(s.snapshot, params.Window*params.Granularity.Months(), cur)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(ctx.Stdout)
		renderPatterns(ctx, patterns, cur)
	}
	return nil
}

func renderForecast(ctx *kong.Context, result *forecast.Result) {
	cur := result.Currency
	styles := output.NewStyles(ctx.Stdout)

	_, _ = fmt.Fprintf(ctx.Stdout, "Baseline over %s: income %s, expenses %s per %s period\n",
		result.Baseline.Window,
		output.FormatAmount(result.Baseline.Income, cur),
		output.FormatAmount(result.Baseline.Expenses, cur),
		result.Granularity,
	)

	summary := result.Summary
	taxed := len(result.Taxes) > 0
	returns := !summary.TotalReturns.IsZero()

	headers := []string{"Period", "Start", "Income", "Expenses"}
	if taxed {
		headers = append(headers, "Tax")
	}
	if returns {
		headers = append(headers, "Returns")
	}
	headers = append(headers, "Adjustments", "End", "Applied")
	numeric := make([]int, 0, len(headers)-2)
	for i := 1; i < len(headers)-1; i++ {
		numeric = append(numeric, i)
	}

	g := newGrid(headers...).Numeric(numeric...)
	for _, row := range result.Rows {
		cells := []string{
			row.Bucket.Label,
			output.FormatNumber(row.Start, cur),
			output.FormatNumber(row.Income, cur),
			output.FormatNumber(row.Expenses, cur),
		}
		if taxed {
			cells = append(cells, output.FormatNumber(row.Tax, cur))
		}
		if returns {
			cells = append(cells, styles.Signed(row.Returns, output.FormatNumber(row.Returns, cur)))
		}
		adjustments := ""
		if !row.Adjustments.IsZero() {
			adjustments = styles.Signed(row.Adjustments, output.FormatNumber(row.Adjustments, cur))
		}
		cells = append(cells,
			adjustments,
			styles.Signed(row.End, output.FormatNumber(row.End, cur)),
			strings.Join(row.Applied, ", "),
		)
		g.Row(cells...)
	}
	g.Render(ctx.Stdout)

	_, _ = fmt.Fprintf(ctx.Stdout, "Net worth on %s: %s, projected: %s\n",
		result.AsOf,
		output.FormatAmount(result.Seed, cur),
		styles.Keyword(output.FormatAmount(result.Final(), cur)),
	)
	_, _ = fmt.Fprintf(ctx.Stdout, "Total growth: %s, annualised return: %s%%\n",
		styles.Signed(summary.TotalGrowth, output.FormatAmount(summary.TotalGrowth, cur)),
		summary.AnnualizedReturn.StringFixed(2),
	)
	if summary.BreakEvenYears != nil {
		_, _ = fmt.Fprintf(ctx.Stdout, "Back at today's net worth after %s years\n", summary.BreakEvenYears.String())
	}

	if taxed {
		_, _ = fmt.Fprintln(ctx.Stdout)
		t := newGrid("Year", "Income", "Tax", "Effective rate").Numeric(1, 2, 3)
		for _, year := range result.Taxes {
			t.Row(
				fmt.Sprintf("%d", year.Year),
				output.FormatNumber(year.Gross, cur),
				output.FormatNumber(year.Tax, cur),
				year.EffectiveRate.StringFixed(2)+"%",
			)
		}
		t.Render(ctx.Stdout)
	}
}

func renderPatterns(ctx *kong.Context, patterns []forecast.ExpensePattern, cur string) {
	if len(patterns) == 0 {
		printInfof(ctx.Stdout, "No expenses in %s", cur)
		return
	}
	g := newGrid("Category", "Average", "Std dev", "Trend", "Total").Numeric(1, 2, 3, 4)
	for _, p := range patterns {
		g.Row(
			p.Category,
			output.FormatNumber(p.Average, cur),
			output.FormatNumber(p.StdDev, cur),
			output.FormatNumber(p.Trend, cur),
			output.FormatNumber(p.Total, cur),
		)
	}
	g.Render(ctx.Stdout)
}

// promptScenario asks for a single adjustment.
func promptScenario() (forecast.Scenario, error) {
	var name, amount, date string
	var recurring bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Scenario name").
				Value(&name),
			huh.NewInput().
				Title("Amount").
				Description("Positive adds to net worth, negative takes from it.").
				Validate(func(s string) error {
					_, err := decimal.NewFromString(s)
					return err
				}).
				Value(&amount),
			huh.NewInput().
				Title("Date (YYYY-MM-DD)").
				Validate(func(s string) error {
					_, err := ledger.ParseDate(s)
					return err
				}).
				Value(&date),
			huh.NewConfirm().
				Title("Repeat every period from this date?").
				Value(&recurring),
		),
	)
	if err := form.Run(); err != nil {
		return forecast.Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}

	return buildScenario(name, amount, date, recurring)
}

// buildScenario turns form answers into a validated scenario.
func buildScenario(name, amount, date string, recurring bool) (forecast.Scenario, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return forecast.Scenario{}, ledger.NewInvalidParameterError("amount", amount, "expected a number")
	}
	d, err := ledger.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return forecast.Scenario{}, ledger.NewInvalidParameterError("date", date, "expected YYYY-MM-DD")
	}
	if name = strings.TrimSpace(name); name == "" {
		name = "interactive"
	}

	scenario := forecast.Scenario{
		Name: name,
		Adjustments: []forecast.Adjustment{
			{Amount: value, Date: d, Recurring: recurring},
		},
	}
	return scenario, scenario.Validate()
}
