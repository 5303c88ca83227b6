package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/output"
	"github.com/robinvdvleuten/ourfinance/report"
)

type BalancesCmd struct {
	File       FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for the configured ledger)." arg:"" optional:""`
	Categories []string    `help:"Categories to include (Assets,Liabilities,Equity,Income,Expenses). All when omitted." sep:","`
	AsOf       ledger.Date `help:"Balance date (YYYY-MM-DD). Defaults to today."`
	From       ledger.Date `help:"Start of the period (YYYY-MM-DD). Shows activity instead of balances."`
	To         ledger.Date `help:"End of the period (YYYY-MM-DD), included."`
	Depth      int         `help:"Maximum account depth to show (0 for all)." default:"0"`
	NetWorth   bool        `help:"Print net worth (Assets + Liabilities) below the tree." name:"net-worth"`
}

func (cmd *BalancesCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	categories, err := parseCategories(cmd.Categories)
	if err != nil {
		return err
	}

	s, err := open(ctx, globals, cfg, &cmd.File, "balances")
	if err != nil {
		return err
	}
	defer s.done()

	var tree *report.Tree
	if !cmd.From.IsZero() || !cmd.To.IsZero() {
		r, err := period(cmd.From, cmd.To, ledger.DateRange{})
		if err != nil {
			return err
		}
		if tree, err = report.ActivityTree(s.snapshot, r, categories...); err != nil {
			return err
		}
	} else {
		tree = report.BalanceTree(s.snapshot, orToday(cmd.AsOf), categories...)
	}

	if len(tree.Roots) == 0 {
		printInfof(ctx.Stdout, "No balances found")
		return nil
	}

	headers := append([]string{"Account"}, tree.Currencies...)
	g := newGrid(headers...)
	for i := range tree.Currencies {
		g.Numeric(i + 1)
	}

	tree.Walk(func(n *report.Node) bool {
		if cmd.Depth > 0 && n.Depth >= cmd.Depth {
			return false
		}
		row := []string{strings.Repeat("  ", n.Depth) + n.Name}
		for _, currency := range tree.Currencies {
			amount := n.Balance.Get(currency)
			if amount.IsZero() {
				row = append(row, "")
				continue
			}
			row = append(row, output.FormatNumber(amount, currency))
		}
		g.Row(row...)
		return true
	})
	g.Render(ctx.Stdout)

	if tree.Range.From.IsZero() {
		_, _ = fmt.Fprintf(ctx.Stdout, "Balances as of %s\n", tree.Range.To)
	} else {
		_, _ = fmt.Fprintf(ctx.Stdout, "Activity over %s\n", tree.Range)
	}

	if cmd.NetWorth && tree.Range.From.IsZero() {
		_, _ = fmt.Fprintf(ctx.Stdout, "Net worth: %s\n", formatBalance(report.NetWorth(s.snapshot, tree.Range.To)))
	}
	return nil
}
