package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/forecast"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

const testLedger = `option "operating_currency" "USD"

2024-01-01 open Assets:Checking
2024-01-01 open Assets:Savings
2024-01-01 open Liabilities:CreditCard
2024-01-01 open Equity:Opening
2024-01-01 open Income:Salary
2024-01-01 open Expenses:Food
2024-01-01 open Expenses:Rent

2024-01-15 * "Opening balance"
  Assets:Checking   1000 USD
  Equity:Opening   -1000 USD

2024-01-20 * "Transfer to savings"
  Assets:Savings     200 USD
  Assets:Checking   -200 USD

2024-02-01 * "ACME" "Salary" #work
  Assets:Checking   3000 USD
  Income:Salary    -3000 USD

2024-02-15 * "Groceries"
  Expenses:Food      150 USD
  Liabilities:CreditCard  -150 USD

2024-03-01 * "Landlord" "Rent"
  Expenses:Rent     1200 USD
  Assets:Checking  -1200 USD
`

// writeLedger writes content to a temporary ledger file and returns its path.
func writeLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.beancount")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// runCLI parses args against the command tree and runs the selected command.
func runCLI(t *testing.T, cfg *config.Config, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	previous := today
	today = func() ledger.Date { return ledger.MustParseDate("2024-03-31") }
	t.Cleanup(func() { today = previous })

	if cfg == nil {
		cfg = &config.Config{}
	}

	var cmds Commands
	var out, errOut bytes.Buffer
	parser, err := kong.New(&cmds,
		kong.Name("ourfinance"),
		kong.Writers(&out, &errOut),
		kong.Exit(func(int) {}),
		kong.Bind(&cmds.Globals),
		kong.Bind(cfg),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	if err != nil {
		return out.String(), errOut.String(), err
	}
	err = ctx.Run()
	return out.String(), errOut.String(), err
}

func TestAccountsCmd(t *testing.T) {
	path := writeLedger(t, testLedger)

	t.Run("All", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "accounts", path)
		assert.NoError(t, err)
		assert.Contains(t, out, "Assets:Checking")
		assert.Contains(t, out, "$2,600.00")
		assert.Contains(t, out, "-$150.00")
		assert.Contains(t, out, "7 accounts, balances as of 2024-03-31")
	})

	t.Run("Category", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "accounts", path, "--category", "expenses")
		assert.NoError(t, err)
		assert.Contains(t, out, "Expenses:Rent")
		assert.NotContains(t, out, "Assets:Checking")
		assert.Contains(t, out, "2 accounts")
	})

	t.Run("AsOf", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "accounts", path, "--as-of", "2024-01-31")
		assert.NoError(t, err)
		assert.Contains(t, out, "$800.00")
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "accounts", path, "--category", "bogus")
		var invalid *ledger.InvalidParameterError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "category", invalid.Parameter)
	})
}

func TestBalancesCmd(t *testing.T) {
	path := writeLedger(t, testLedger)

	t.Run("Tree", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "balances", path, "--net-worth")
		assert.NoError(t, err)
		assert.Contains(t, out, "Checking")
		assert.Contains(t, out, "2600.00")
		assert.Contains(t, out, "2800.00")
		assert.Contains(t, out, "Balances as of 2024-03-31")
		assert.Contains(t, out, "Net worth: $2,650.00")
	})

	t.Run("Depth", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "balances", path, "--depth", "1", "--categories", "assets")
		assert.NoError(t, err)
		assert.Contains(t, out, "Assets")
		assert.NotContains(t, out, "Checking")
	})

	t.Run("Activity", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "balances", path,
			"--from", "2024-02-01", "--to", "2024-02-29", "--categories", "income,expenses")
		assert.NoError(t, err)
		assert.Contains(t, out, "-3000.00")
		assert.Contains(t, out, "150.00")
		assert.Contains(t, out, "Activity over 2024-02-01..2024-02-29")
	})

	t.Run("HalfOpenRange", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "balances", path, "--from", "2024-02-01")
		var invalid *ledger.InvalidParameterError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "range", invalid.Parameter)
	})
}

func TestIncomeCmd(t *testing.T) {
	path := writeLedger(t, testLedger)

	t.Run("Monthly", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "income", path)
		assert.NoError(t, err)
		assert.Contains(t, out, "2024-02")
		assert.Contains(t, out, "2850.00")
		assert.Contains(t, out, "95.0%")
		assert.Contains(t, out, "1650.00")
		assert.Contains(t, out, "55.0%")
		assert.Contains(t, out, "Amounts in USD over 2024-01-15..2024-03-01")
	})

	t.Run("QuarterlyWithBreakdown", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "income", path, "-g", "quarterly", "--depth", "2")
		assert.NoError(t, err)
		assert.Contains(t, out, "2024-Q1")
		assert.Contains(t, out, "Income:Salary")
		assert.Contains(t, out, "Expenses:Rent")
	})

	t.Run("InvalidGranularity", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "income", path, "-g", "weekly")
		assert.Error(t, err)
	})

	t.Run("EmptyLedger", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "income", writeLedger(t, ""))
		assert.NoError(t, err)
		assert.Contains(t, out, "No transactions found")
	})
}

func TestJournalCmd(t *testing.T) {
	path := writeLedger(t, testLedger)

	t.Run("Account", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "journal", path, "-a", "checking")
		assert.NoError(t, err)
		assert.Contains(t, out, "Landlord | Rent")
		assert.Contains(t, out, "-$1,200.00")
		assert.Contains(t, out, "Showing 4 of 4 postings")
	})

	t.Run("Limit", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "journal", path, "-a", "checking", "-n", "2")
		assert.NoError(t, err)
		assert.Contains(t, out, "Showing 2 of 4 postings")
		assert.NotContains(t, out, "Opening balance")
	})

	t.Run("Query", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "journal", path, "-q", "work")
		assert.NoError(t, err)
		assert.Contains(t, out, "ACME | Salary")
		assert.Contains(t, out, "Showing 2 of 2 postings")
	})

	t.Run("Beancount", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "journal", path, "-q", "rent", "--format", "beancount")
		assert.NoError(t, err)
		assert.Contains(t, out, "2024-03-01 *")
		assert.Contains(t, out, "Expenses:Rent")
		assert.Contains(t, out, "1200 USD")
	})

	t.Run("NoMatch", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "journal", path, "-q", "nothing")
		assert.NoError(t, err)
		assert.Contains(t, out, "No postings found")
	})

	t.Run("InvalidMin", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "journal", path, "--min", "abc")
		var invalid *ledger.InvalidParameterError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "min", invalid.Parameter)
	})
}

func TestForecastCmd(t *testing.T) {
	path := writeLedger(t, testLedger)

	t.Run("Defaults", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "forecast", path, "-w", "3", "-H", "2", "--analyze")
		assert.NoError(t, err)
		assert.Contains(t, out, "2024-04")
		assert.Contains(t, out, "3200.00")
		assert.Contains(t, out, "3750.00")
		assert.Contains(t, out, "Net worth on 2024-03-01: $2,650.00, projected: $3,750.00")
		assert.Contains(t, out, "Total growth: $1,100.00")
		assert.Contains(t, out, "Expenses:Rent")
		assert.NotContains(t, out, "Returns")
		assert.NotContains(t, out, "Effective rate")
	})

	t.Run("GrowthAndTax", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "forecast", path, "-w", "3", "-H", "2",
			"--income-growth", "0.03", "--inflation", "0.02", "--return", "0.07", "--tax", "married-joint-2025")
		assert.NoError(t, err)
		assert.Contains(t, out, "Returns")
		assert.Contains(t, out, "Effective rate")
		assert.Contains(t, out, "annualised return:")
	})

	t.Run("UnknownTaxSchedule", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "forecast", path, "--tax", "flat")
		var invalid *ledger.InvalidParameterError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "tax", invalid.Parameter)
	})

	t.Run("ConfiguredScenarios", func(t *testing.T) {
		scenarios := filepath.Join(t.TempDir(), "scenarios.yaml")
		assert.NoError(t, os.WriteFile(scenarios, []byte(`scenarios:
  - name: bonus
    adjustments:
      - description: Q2
        amount: 500
        date: 2024-05-10
`), 0600))

		cfg := &config.Config{ForecastWindow: 3, ForecastHorizon: 2, ForecastGranularity: "monthly", ScenarioFile: scenarios}
		out, _, err := runCLI(t, cfg, "forecast", path)
		assert.NoError(t, err)
		assert.Contains(t, out, "bonus: Q2")
		assert.Contains(t, out, "projected: $4,250.00")
	})

	t.Run("ExplicitInvalidPeriods", func(t *testing.T) {
		cfg := &config.Config{ForecastWindow: 3, ForecastHorizon: 2}
		for _, args := range [][]string{
			{"--horizon=-3"},
			{"--window=0"},
			{"-w", "2", "--horizon=0"},
		} {
			_, _, err := runCLI(t, cfg, append([]string{"forecast", path}, args...)...)
			var invalid *ledger.InvalidParameterError
			assert.True(t, errors.As(err, &invalid), "%v: %v", args, err)
		}
	})

	t.Run("QuarterlyAnalysisCoversWholePeriods", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "forecast", path, "-g", "quarterly", "-w", "1", "-H", "1", "--analyze")
		assert.NoError(t, err)
		assert.Contains(t, out, "Expenses:Food")
		assert.Contains(t, out, "Expenses:Rent")
	})

	t.Run("InsufficientData", func(t *testing.T) {
		_, _, err := runCLI(t, nil, "forecast", path, "-C", "EUR")
		var insufficient *ledger.InsufficientDataError
		assert.True(t, errors.As(err, &insufficient))
	})
}

func TestHealthCmd(t *testing.T) {
	path := writeLedger(t, testLedger)

	out, _, err := runCLI(t, nil, "health", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "Total assets")
	assert.Contains(t, out, "2800.00")
	assert.Contains(t, out, "emergency_fund")
	assert.Contains(t, out, "Score:")
	assert.Contains(t, out, "as of 2024-03-31")

	_, _, err = runCLI(t, nil, "health", path, "--months", "0")
	var invalid *ledger.InvalidParameterError
	assert.True(t, errors.As(err, &invalid))
}

func TestCheckCmd(t *testing.T) {
	t.Run("Passes", func(t *testing.T) {
		out, _, err := runCLI(t, nil, "check", writeLedger(t, testLedger))
		assert.NoError(t, err)
		assert.Contains(t, out, "✓ Check passed: 5 transactions")
	})

	t.Run("ConfiguredLedger", func(t *testing.T) {
		cfg := &config.Config{LedgerFile: writeLedger(t, testLedger)}
		out, _, err := runCLI(t, cfg, "check")
		assert.NoError(t, err)
		assert.Contains(t, out, "Check passed")
	})

	t.Run("Warnings", func(t *testing.T) {
		path := writeLedger(t, `2024-01-01 * "Unbalanced"
  Assets:Checking   100 USD
  Expenses:Food     -90 USD
`)
		_, errOut, err := runCLI(t, nil, "check", path)
		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, 1, cmdErr.ExitCode())
		assert.Contains(t, errOut, "1 warning(s) found")
		assert.Contains(t, errOut, "Expenses:Food")
	})

	t.Run("ParseError", func(t *testing.T) {
		path := writeLedger(t, "2024-01-01 invalid directive\n")
		_, errOut, err := runCLI(t, nil, "check", path)
		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr))
		assert.Contains(t, errOut, "failed to load ledger")
		assert.Contains(t, errOut, "2024-01-01 invalid directive")
	})
}

func TestLexCmd(t *testing.T) {
	path := writeLedger(t, "2024-01-01 open Assets:Checking USD\n")
	out, _, err := runCLI(t, nil, "doctor", "lex", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, `"Assets:Checking"`)
}

func TestDoctorLoadCmd(t *testing.T) {
	path := writeLedger(t, testLedger)
	out, _, err := runCLI(t, nil, "doctor", "load", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "loader.load main.beancount")
	assert.Contains(t, out, "  parser.parse")
	assert.Contains(t, out, "transactions  5")
	assert.Contains(t, out, "accounts      7")
	assert.Contains(t, out, "currencies    USD")

	broken := writeLedger(t, "2024-01-01 invalid directive\n")
	_, errOut, err := runCLI(t, nil, "doctor", "load", broken)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, errOut, "unknown directive")
}

func TestFileOrStdin(t *testing.T) {
	t.Run("Stdin", func(t *testing.T) {
		var f FileOrStdin
		assert.NoError(t, f.readStdin(strings.NewReader(testLedger)))
		assert.Equal(t, stdinFilename, f.GetAbsoluteFilename())

		s, err := f.Load(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 5, s.Len())

		source, err := f.GetSourceContent()
		assert.NoError(t, err)
		assert.Equal(t, testLedger, string(source))
	})

	t.Run("StdinRejectsIncludes", func(t *testing.T) {
		var f FileOrStdin
		assert.NoError(t, f.readStdin(strings.NewReader(`include "accounts.beancount"`+"\n")))
		_, err := f.Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("ResolveFallback", func(t *testing.T) {
		var f FileOrStdin
		assert.NoError(t, f.Resolve("ledger.beancount"))
		assert.Equal(t, "ledger.beancount", f.Filename)

		f = FileOrStdin{Filename: "explicit.beancount"}
		assert.NoError(t, f.Resolve("ledger.beancount"))
		assert.Equal(t, "explicit.beancount", f.Filename)
	})
}

func TestPeriod(t *testing.T) {
	from := ledger.MustParseDate("2024-01-01")
	to := ledger.MustParseDate("2024-01-31")
	fallback := ledger.DateRange{From: from, To: from}

	r, err := period(ledger.Date{}, ledger.Date{}, fallback)
	assert.NoError(t, err)
	assert.Equal(t, fallback, r)

	r, err = period(from, to, fallback)
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-01..2024-01-31", r.String())

	_, err = period(from, ledger.Date{}, fallback)
	assert.Error(t, err)

	_, err = period(to, from, fallback)
	assert.Error(t, err)
}

func TestParseCategories(t *testing.T) {
	categories, err := parseCategories([]string{"assets", " Liabilities "})
	assert.NoError(t, err)
	assert.Equal(t, []ledger.Category{ledger.CategoryAssets, ledger.CategoryLiabilities}, categories)

	_, err = parseCategories([]string{"savings"})
	assert.Error(t, err)
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "0", formatBalance(nil))

	b := &report.Balance{}
	b.Add("USD", decimal.RequireFromString("1234.5"))
	b.Add("HOOL", decimal.RequireFromString("10"))
	assert.Equal(t, "10.00 HOOL, $1,234.50", formatBalance(b))
}

func TestSavingsRate(t *testing.T) {
	assert.Equal(t, "", savingsRate(decimal.RequireFromString("0"), decimal.RequireFromString("10")))
	assert.Equal(t, "25.0%", savingsRate(decimal.RequireFromString("400"), decimal.RequireFromString("100")))
}

func TestForecastCmdParams(t *testing.T) {
	intp := func(v int) *int { return &v }

	p, err := (&ForecastCmd{}).params(&config.Config{}, "USD")
	assert.NoError(t, err)
	assert.Equal(t, 12, p.Window)
	assert.Equal(t, 12, p.Horizon)

	p, err = (&ForecastCmd{}).params(&config.Config{ForecastWindow: 6, ForecastHorizon: 3}, "USD")
	assert.NoError(t, err)
	assert.Equal(t, 6, p.Window)
	assert.Equal(t, 3, p.Horizon)

	p, err = (&ForecastCmd{Window: intp(2)}).params(&config.Config{ForecastWindow: 6}, "USD")
	assert.NoError(t, err)
	assert.Equal(t, 2, p.Window)

	_, err = (&ForecastCmd{Horizon: intp(-3), Window: intp(-1)}).params(&config.Config{}, "USD")
	var invalid *ledger.InvalidParameterError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "window", invalid.Parameter)

	_, err = (&ForecastCmd{}).params(&config.Config{ForecastHorizon: -1}, "USD")
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "horizon", invalid.Parameter)

	p, err = (&ForecastCmd{IncomeGrowth: 0.03, Inflation: 0.02, Return: 0.07, Tax: "married-joint-2025"}).params(&config.Config{}, "USD")
	assert.NoError(t, err)
	assert.Equal(t, forecast.Growth{Income: 0.03, Expenses: 0.02, Return: 0.07}, p.Growth)
	assert.NotZero(t, p.Tax)
	assert.Equal(t, "married-joint-2025", p.Tax.Name)

	_, err = (&ForecastCmd{Inflation: -2}).params(&config.Config{}, "USD")
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "expense growth", invalid.Parameter)
}

func TestBuildScenario(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		scenario, err := buildScenario(" ", " -250.50 ", "2024-06-01", true)
		assert.NoError(t, err)
		assert.Equal(t, "interactive", scenario.Name)
		assert.Equal(t, 1, len(scenario.Adjustments))
		assert.Equal(t, "-250.5", scenario.Adjustments[0].Amount.String())
		assert.True(t, scenario.Adjustments[0].Recurring)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		_, err := buildScenario("car", "lots", "2024-06-01", false)
		var invalid *ledger.InvalidParameterError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "amount", invalid.Parameter)
	})

	t.Run("InvalidDate", func(t *testing.T) {
		_, err := buildScenario("car", "100", "June", false)
		var invalid *ledger.InvalidParameterError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "date", invalid.Parameter)
	})
}

func TestWebCmdEnsureFile(t *testing.T) {
	t.Run("Existing", func(t *testing.T) {
		path := writeLedger(t, testLedger)
		cmd := &WebCmd{}
		assert.NoError(t, cmd.ensureFile(nil, path))
	})

	t.Run("CreateParentDirectories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledgers", "2024", "main.beancount")
		cmd := &WebCmd{Create: true}

		var out bytes.Buffer
		parser, err := kong.New(&Commands{}, kong.Writers(&out, &out))
		assert.NoError(t, err)
		ctx := &kong.Context{Kong: parser}

		assert.NoError(t, cmd.ensureFile(ctx, path))
		info, err := os.Stat(path)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), info.Size())
		assert.Contains(t, out.String(), "Created empty ledger file")
	})

	t.Run("MissingWithoutTerminal", func(t *testing.T) {
		if isTerminal() {
			t.Skip("stdin is a terminal")
		}
		path := filepath.Join(t.TempDir(), "missing.beancount")
		cmd := &WebCmd{}
		assert.Error(t, cmd.ensureFile(nil, path))
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission checks need a non-root unix user")
		}
		dir := filepath.Join(t.TempDir(), "readonly")
		assert.NoError(t, os.Mkdir(dir, 0555))
		cmd := &WebCmd{Create: true}
		assert.Error(t, cmd.ensureFile(nil, filepath.Join(dir, "main.beancount")))
	})
}

func TestWebCmdRequiresLedger(t *testing.T) {
	_, _, err := runCLI(t, nil, "web")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "OURFINANCE_LEDGER_FILE")
}
