package commands

import "github.com/urfave/cli/v2"

var (
	urlFlag = &cli.StringFlag{
		Name:     "url",
		Aliases:  []string{"u"},
		Usage:    "Page to scrape; https:// is assumed when no scheme is given",
		Required: true,
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, csv, yaml, toml",
		Value:   "json",
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write records to this file instead of stdout",
	}

	fileFlag = &cli.PathFlag{
		Name:     "file",
		Usage:    "Path to a JavaScript extraction script",
		Required: true,
	}

	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Report every attempt on stderr",
	}
)

func recordFlags() []cli.Flag {
	return []cli.Flag{urlFlag, formatFlag, outputFlag, verboseFlag}
}
