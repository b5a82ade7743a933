// Package commands provides the scrapectl CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/config"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/logging"
)

// Exit codes
const (
	exitFailure       = 1
	exitUsage         = 2
	exitSafetyReject  = 3
	exitNotConfigured = 4
)

// App returns the scrapectl application
func App(version string) *cli.App {
	return &cli.App{
		Name:    "scrapectl",
		Usage:   "Generate and run sandboxed scraping code",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "warn",
			},
		},
		ExitErrHandler: ExitErrHandler,
		Commands: []*cli.Command{
			ScrapeCommand(),
			RunCommand(),
			CheckCommand(),
			ServeCommand(),
		},
	}
}

// ExitErrHandler prints the message of a cli.ExitCoder and exits with its
// code; any other error exits 1
func ExitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFailure)
}

// environment loads configuration and a stderr logger so stdout stays
// reserved for records
func environment(c *cli.Context) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), exitUsage)
	}
	logger, err := logging.New(logging.Config{
		Level:       c.String("log-level"),
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), exitUsage)
	}
	return cfg, logger, nil
}

// output returns where records go: the --output file or the app writer
func output(c *cli.Context) (io.Writer, func() error, error) {
	path := c.String("output")
	if path == "" || path == "-" {
		return c.App.Writer, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("cannot create %s: %v", path, err), exitUsage)
	}
	return f, f.Close, nil
}
