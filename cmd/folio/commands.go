package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/prompt"
)

// summaryCmd prints the valuation report.
type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "value holdings at current prices and show unrealized P/L" }
func (*summaryCmd) Usage() string {
	return `folio summary

  Fetches the latest close for every holding, asks for a manual price where
  none is available, and prints per-position and total value and P/L.
`
}
func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.PortfolioService.Load(ctx)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	report, err := a.PortfolioService.Summary(ctx, h)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(os.Stdout, formatSummary(report, a.Config.Portfolio.Currency))
	return subcommands.ExitSuccess
}

// rebalanceCmd prints rebalance suggestions.
type rebalanceCmd struct {
	weights string
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "suggest trades that move holdings to target weights" }
func (*rebalanceCmd) Usage() string {
	return `folio rebalance [-w <TICKER=WEIGHT,...>]

  Target weights are raw numbers >= 0 and are normalized to sum to 100%.
  Without -w each weight is asked for interactively. Tickers missing from
  -w count as 0.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.weights, "w", "", "Target weights, e.g. AAPL=50,MSFT=50")
}

func (c *rebalanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var fixed fixedWeights
	if c.weights != "" {
		w, err := parseWeights(c.weights)
		if err != nil {
			printError("%v", err)
			return subcommands.ExitUsageError
		}
		fixed = w
	}

	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.PortfolioService.Load(ctx)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}

	var plan *models.RebalancePlan
	if fixed != nil {
		for t := range fixed {
			if _, ok := h.Get(t); !ok {
				a.Prompter.Warn("Ignoring weight for %s: not in holdings.", t)
			}
		}
		plan, err = a.PortfolioService.Rebalance(ctx, h, fixed)
	} else {
		plan, err = a.PortfolioService.Rebalance(ctx, h, a.Prompter)
	}
	if errors.Is(err, models.ErrInvalidTargets) {
		a.Prompter.Warn("%s", invalidTargetsMessage(err))
		return subcommands.ExitFailure
	}
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(os.Stdout, formatRebalance(plan, a.Config.Portfolio.Currency))
	return subcommands.ExitSuccess
}

// fixedWeights answers weight questions from a pre-parsed map; missing
// tickers count as 0.
type fixedWeights map[string]float64

func (w fixedWeights) PromptForWeight(_ context.Context, ticker string) (float64, error) {
	return w[ticker], nil
}

// parseWeights parses "AAPL=50,MSFT=25.5" into normalized tickers and raw weights.
func parseWeights(raw string) (fixedWeights, error) {
	out := fixedWeights{}
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q: expected TICKER=WEIGHT", part)
		}
		t, err := models.NormalizeTicker(k)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		w, err := prompt.ParseNonNegativeNumber(v)
		if err != nil {
			return nil, fmt.Errorf("weight for %s: %w", t, err)
		}
		out[t] = w
	}
	return out, nil
}

func invalidTargetsMessage(err error) string {
	if strings.Contains(err.Error(), "all weights are zero") {
		return "All weights are 0. Nothing to do."
	}
	return err.Error()
}

// addCmd adds or updates a position.
type addCmd struct {
	ticker  string
	shares  float64
	cost    float64
	noCheck bool
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add a holding or replace an existing one" }
func (*addCmd) Usage() string {
	return `folio add -t <ticker> -s <shares> -c <avg cost> [-no-check]

  Shares and average cost must both be > 0 and replace any existing values.
  The ticker is checked for recent price data unless -no-check is given.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Ticker symbol, e.g. AAPL or PETR4.SA (required)")
	f.Float64Var(&c.shares, "s", 0, "Number of shares, > 0 (required)")
	f.Float64Var(&c.cost, "c", 0, "Average cost per share, > 0 (required)")
	f.BoolVar(&c.noCheck, "no-check", false, "Skip the price data check for the ticker")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" {
		printError("-t is required")
		return subcommands.ExitUsageError
	}
	if c.shares <= 0 || c.cost <= 0 {
		printError("Shares and avg_cost must be > 0.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.PortfolioService.Load(ctx)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	p, err := a.PortfolioService.AddOrUpdate(ctx, h, c.ticker, c.shares, c.cost, !c.noCheck)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Saved: %s\n", p.Ticker)
	return subcommands.ExitSuccess
}

// removeCmd removes a position.
type removeCmd struct {
	ticker string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove a holding" }
func (*removeCmd) Usage() string {
	return `folio remove -t <ticker>
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Ticker symbol (required)")
}

func (c *removeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" {
		printError("-t is required")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.PortfolioService.Load(ctx)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	if err := a.PortfolioService.Remove(ctx, h, c.ticker); err != nil {
		if errors.Is(err, models.ErrPositionNotFound) {
			fmt.Println("Not found.")
			return subcommands.ExitFailure
		}
		printError("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed: %s\n", strings.ToUpper(strings.TrimSpace(c.ticker)))
	return subcommands.ExitSuccess
}

// listCmd prints the stored positions without fetching prices.
type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list holdings without fetching prices" }
func (*listCmd) Usage() string {
	return `folio list
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.PortfolioService.Load(ctx)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(os.Stdout, formatHoldings(h, a.Config.Portfolio.Currency))
	return subcommands.ExitSuccess
}

// infoCmd prints company information for a ticker.
type infoCmd struct {
	ticker string
}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "show company information and ratios for a ticker" }
func (*infoCmd) Usage() string {
	return `folio info -t <ticker>

  Requires an EODHD API key.
`
}

func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Ticker symbol (required)")
}

func (c *infoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" {
		printError("-t is required")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	info, err := a.PortfolioService.TickerInfo(ctx, c.ticker)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(os.Stdout, formatTickerInfo(info))
	return subcommands.ExitSuccess
}

// chartCmd writes the allocation chart as PNG.
type chartCmd struct {
	output string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render current allocation weights as a PNG bar chart" }
func (*chartCmd) Usage() string {
	return `folio chart [-o <file.png>]

  Defaults to <data_path>/charts/allocation.png.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output PNG path")
}

func (c *chartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.PortfolioService.Load(ctx)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	report, err := a.PortfolioService.Summary(ctx, h)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	path, err := writeAllocationChart(a.PortfolioService, a.Store, report, c.output)
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Chart written to %s\n", path)
	return subcommands.ExitSuccess
}

// versionCmd prints build information.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print version information" }
func (*versionCmd) Usage() string          { return "folio version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	common.LoadVersionFromFile()
	fmt.Printf("folio %s\n", common.GetFullVersion())
	return subcommands.ExitSuccess
}
