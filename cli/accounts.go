package cli

import (
	"fmt"
	"slices"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

type AccountsCmd struct {
	File     FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
	Category []string    `help:"Only list accounts of these categories." sep:","`
	AsOf     ledger.Date `help:"Balance date (YYYY-MM-DD). Defaults to today."`
}

func (cmd *AccountsCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	categories, err := parseCategories(cmd.Category)
	if err != nil {
		return err
	}

	s, err := open(ctx, globals, cfg, &cmd.File, "accounts")
	if err != nil {
		return err
	}
	defer s.done()

	asOf := orToday(cmd.AsOf)
	balances := make(map[string]*report.Balance)
	for _, ab := range report.Balances(s.snapshot, asOf) {
		balances[ab.Account] = ab.Balance
	}

	g := newGrid("Account", "Category", "Opened", "Closed", "Balance").Numeric(4)
	for _, a := range s.snapshot.Accounts() {
		if len(categories) > 0 && !slices.Contains(categories, a.Category) {
			continue
		}
		g.Row(a.Path, a.Category.String(), dateOrDash(a.Open), dateOrDash(a.Close), formatBalance(balances[a.Path]))
	}

	if g.Len() == 0 {
		printInfof(ctx.Stdout, "No accounts found")
		return nil
	}
	g.Render(ctx.Stdout)
	_, _ = fmt.Fprintf(ctx.Stdout, "%d accounts, balances as of %s\n", g.Len(), asOf)
	return nil
}

func dateOrDash(d ledger.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}
