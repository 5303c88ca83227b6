package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/ourfinance/cli"
	"github.com/robinvdvleuten/ourfinance/config"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	commands struct {
		Version kong.VersionFlag `help:"Show version information"`
		EnvFile string           `help:"Load settings from this .env file instead of ./.env." type:"existingfile" name:"env-file"`
		cli.Commands
	}
)

func main() {
	cli.Version = Version
	cli.CommitSHA = CommitSHA

	cfg, err := config.Load(envFileArg(os.Args[1:]))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ourfinance: %v\n", err)
		os.Exit(1)
	}

	ctx := kong.Parse(&commands,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("ourfinance"),
		kong.Description("Personal finance reports, forecasts and health checks for Beancount ledgers."),
		kong.UsageOnError(),
		kong.Bind(&commands.Globals),
		kong.Bind(cfg),
	)

	err = ctx.Run()
	if err == nil {
		return
	}

	// Command errors have already been reported by the command.
	var cmdErr *cli.CommandError
	if !errors.As(err, &cmdErr) {
		_, _ = fmt.Fprintf(os.Stderr, "ourfinance: error: %s\n", cli.NewErrorRenderer(nil).Render(err))
	}
	os.Exit(cli.ExitCode(err))
}

// envFileArg finds --env-file before kong runs, since the configuration is
// bound into commands at parse time.
func envFileArg(args []string) string {
	for i, arg := range args {
		if arg == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
		if value, ok := strings.CutPrefix(arg, "--env-file="); ok {
			return value
		}
	}
	return ""
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
