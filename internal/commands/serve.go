package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/server"
)

// ServeCommand runs the HTTP API
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP and WebSocket API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Listen port (overrides PORT)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := environment(c)
			if err != nil {
				return err
			}
			if p := c.String("port"); p != "" {
				cfg.Server.Port = p
			}

			srv, err := server.NewServer(cfg, logger)
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			runErr := srv.Run(ctx)
			if err := srv.Close(); err != nil {
				logger.Error("Error during shutdown", zap.Error(err))
			}
			if runErr != nil {
				return cli.Exit(runErr.Error(), exitFailure)
			}
			return nil
		},
	}
}
