package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/scrape"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/server"
	"github.com/GriffinCanCode/PromptScraper/internal/shared/formats"
)

// ScrapeCommand generates code for a prompt and runs it in-process
func ScrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Generate extraction code for a prompt and run it against a page",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "prompt",
				Aliases:  []string{"p"},
				Usage:    "What to extract, in plain language",
				Required: true,
			},
		}, recordFlags()...),
		Action: func(c *cli.Context) error {
			return execute(c, func(ctx context.Context, svc *scrape.Service, obs orchestrator.Observer) (*scrape.Result, error) {
				return svc.Scrape(ctx, c.String("prompt"), c.String("url"), obs)
			})
		},
	}
}

// RunCommand runs a local script through the execution chain without
// generation
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a local extraction script against a page",
		Flags: append([]cli.Flag{fileFlag}, recordFlags()...),
		Action: func(c *cli.Context) error {
			code, err := os.ReadFile(c.Path("file"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("cannot read script: %v", err), exitUsage)
			}
			return execute(c, func(ctx context.Context, svc *scrape.Service, obs orchestrator.Observer) (*scrape.Result, error) {
				return svc.Run(ctx, string(code), c.String("url"), obs)
			})
		},
	}
}

type job func(ctx context.Context, svc *scrape.Service, obs orchestrator.Observer) (*scrape.Result, error)

func execute(c *cli.Context, run job) error {
	f, err := formats.Parse(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	cfg, logger, err := environment(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	components, err := server.Build(cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	defer components.Close()

	obs := orchestrator.ObserverFunc(func(context.Context, orchestrator.Attempt) {})
	if c.Bool("verbose") {
		obs = func(_ context.Context, a orchestrator.Attempt) {
			line := fmt.Sprintf("attempt %d: %s", a.Index, a.Outcome)
			if a.Records > 0 {
				line += fmt.Sprintf(" (%d records, %s)", a.Records, a.Fidelity)
			}
			if a.Err != nil {
				line += ": " + a.Err.Error()
			}
			fmt.Fprintln(c.App.ErrWriter, line)
		}
	}

	res, err := run(c.Context, components.Service, obs)
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	body, err := formats.Render(f, res.Records)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	w, closeOut, err := output(c)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		_ = closeOut()
		return cli.Exit(err.Error(), exitFailure)
	}
	if f != formats.CSV {
		fmt.Fprintln(w)
	}
	return closeOut()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, scrape.ErrInvalidRequest):
		return exitUsage
	case errors.Is(err, orchestrator.ErrSafetyRejected):
		return exitSafetyReject
	case errors.Is(err, scrape.ErrGenerate):
		return exitNotConfigured
	}
	return exitFailure
}
