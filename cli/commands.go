package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	Currency  string `help:"Currency to report in. Defaults to OURFINANCE_CURRENCY, then the ledger's operating currency." short:"C"`
}

type Commands struct {
	Globals

	Accounts AccountsCmd `cmd:"" help:"List accounts with their balances."`
	Balances BalancesCmd `cmd:"" help:"Show the balance tree as of a date, or the activity over a period."`
	Income   IncomeCmd   `cmd:"" help:"Show income and expenses per period."`
	Journal  JournalCmd  `cmd:"" help:"List postings matching filters, newest first."`
	Forecast ForecastCmd `cmd:"" help:"Project net worth from average income and expenses."`
	Health   HealthCmd   `cmd:"" help:"Score financial health ratios."`
	Check    CheckCmd    `cmd:"" help:"Load a ledger and report its warnings."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging beancount files."`
	Web      WebCmd      `cmd:"" help:"Start the JSON API server."`
}
