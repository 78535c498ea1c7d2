// Command folio tracks a personal stock portfolio: holdings, valuation,
// unrealized P/L, rebalancing suggestions and company information.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/app"
)

var (
	configPath  = flag.String("config", "", "Path to folio.toml (default: $FOLIO_CONFIG, next to the binary, then ./folio.toml)")
	plainOutput = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal")
)

// commands lists the portfolio subcommands in help order.
var commands = []subcommands.Command{
	&menuCmd{},
	&summaryCmd{},
	&rebalanceCmd{},
	&addCmd{},
	&removeCmd{},
	&listCmd{},
	&infoCmd{},
	&chartCmd{},
	&versionCmd{},
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "portfolio")
	}

	flag.Parse()
	ctx := context.Background()

	// No subcommand starts the interactive menu.
	if flag.NArg() == 0 {
		os.Exit(int((&menuCmd{}).Execute(ctx, flag.CommandLine)))
	}
	os.Exit(int(commander.Execute(ctx)))
}

// openApp initializes the application against the terminal.
func openApp() (*app.App, error) {
	return app.NewApp(*configPath, os.Stdin, os.Stdout)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering is disabled or fails.
func printMarkdown(w io.Writer, md string) {
	if *plainOutput {
		fmt.Fprint(w, md)
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	fmt.Fprint(w, out)
}

// printError writes a highlighted error line to stderr.
func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
