package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/robinvdvleuten/ourfinance/config"
	"github.com/robinvdvleuten/ourfinance/forecast"
	"github.com/robinvdvleuten/ourfinance/logger"
	"github.com/robinvdvleuten/ourfinance/report"
	"github.com/robinvdvleuten/ourfinance/web"
)

type WebCmd struct {
	File    string `help:"Beancount ledger file to serve. Defaults to OURFINANCE_LEDGER_FILE." arg:"" optional:""`
	Host    string `help:"Host to listen on. Defaults to OURFINANCE_HTTP_HOST."`
	Port    int    `help:"Port to listen on. Defaults to OURFINANCE_HTTP_PORT." short:"p"`
	NoWatch bool   `help:"Do not reload the ledger when its files change."`
	Create  bool   `help:"Automatically create file if it doesn't exist (no confirmation prompt)." short:"c"`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals, cfg *config.Config) error {
	runCtx, done := startTelemetry(ctx, globals, "web")
	defer done()

	file := cmd.File
	if file == "" {
		file = cfg.LedgerFile
	}
	if file == "" {
		return fmt.Errorf("no ledger file given; pass one or set %sLEDGER_FILE", config.Prefix)
	}

	ledgerFile, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := cmd.ensureFile(ctx, ledgerFile); err != nil {
		return err
	}

	granularity := report.Monthly
	if cfg.ForecastGranularity != "" {
		if granularity, err = report.ParseGranularity(cfg.ForecastGranularity); err != nil {
			return err
		}
	}
	var scenarios []forecast.Scenario
	if cfg.ScenarioFile != "" {
		if scenarios, err = forecast.LoadScenarios(cfg.ScenarioFile); err != nil {
			return err
		}
	}

	host, port := cmd.Host, cmd.Port
	if host == "" {
		host = cfg.HTTPHost
	}
	if port == 0 {
		port = cfg.HTTPPort
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := web.New(ledgerFile,
		web.WithAddress(host, port),
		web.WithVersion(version, commitSHA),
		web.WithLogger(logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})),
		web.WithRegistry(reg),
		web.WithWatch(cfg.Watch && !cmd.NoWatch),
		web.WithTimeouts(cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout, cfg.HTTPShutdownTimeout),
		web.WithForecastDefaults(web.ForecastDefaults{
			Window:      orDefault(cfg.ForecastWindow, defaultPeriods),
			Horizon:     orDefault(cfg.ForecastHorizon, defaultPeriods),
			Granularity: granularity,
			Currency:    firstNonEmpty(globals.Currency, cfg.Currency),
			Scenarios:   scenarios,
		}),
	)

	printInfof(ctx.Stdout, "Starting server on http://%s", server.Addr())
	printInfof(ctx.Stdout, "Serving ledger: %s", pathStyle.Render(ledgerFile))

	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(runCtx)
}

// ensureFile creates an empty ledger at path when it is missing and the
// user agrees (or --create was passed).
func (cmd *WebCmd) ensureFile(ctx *kong.Context, path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access file: %w", err)
	}

	shouldCreate := cmd.Create
	if !shouldCreate {
		confirmed, err := promptYesNo(fmt.Sprintf("File %q does not exist. Create it?", path))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		shouldCreate = confirmed
	}
	if !shouldCreate {
		return fmt.Errorf("file does not exist: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	printInfof(ctx.Stdout, "Created empty ledger file: %s", pathStyle.Render(path))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
