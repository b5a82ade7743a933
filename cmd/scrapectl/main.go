// Package main provides the scrapectl CLI entrypoint.
//
// Usage:
//
//	scrapectl scrape --prompt "product names and prices" --url shop.example
//	scrapectl run --file extract.js --url shop.example --format csv
//	scrapectl check --file extract.js
//	scrapectl serve --port 8000
//
// Exit codes:
//   - 0: success
//   - 1: execution failed
//   - 2: invalid usage or configuration
//   - 3: script rejected by the static gate
//   - 4: code generation unavailable or failed
package main

import (
	"os"

	"github.com/GriffinCanCode/PromptScraper/internal/commands"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	if err := commands.App(version).Run(os.Args); err != nil {
		os.Exit(1)
	}
}
