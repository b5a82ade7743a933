package commands

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/PromptScraper/internal/sandbox/gate"
)

// CheckCommand screens a script with the static gate only
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Screen a script for forbidden capabilities without running it",
		Flags: []cli.Flag{fileFlag},
		Action: func(c *cli.Context) error {
			code, err := os.ReadFile(c.Path("file"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("cannot read script: %v", err), exitUsage)
			}

			verdict := gate.New().Screen(string(code))
			out, err := sonic.ConfigStd.MarshalIndent(verdict, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, string(out))

			if !verdict.Approved {
				return cli.Exit("", exitSafetyReject)
			}
			return nil
		},
	}
}
