package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/prompt"
	"github.com/bobmcallan/folio/internal/storage/holdingsfs"
)

// menuCmd runs the interactive menu.
type menuCmd struct{}

func (*menuCmd) Name() string     { return "menu" }
func (*menuCmd) Synopsis() string { return "interactive portfolio manager (default)" }
func (*menuCmd) Usage() string {
	return `folio [menu]

  Manage holdings, view the summary, get rebalance suggestions and look up
  company information from a numbered menu.
`
}
func (*menuCmd) SetFlags(*flag.FlagSet) {}

func (*menuCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	common.PrintBanner(os.Stdout, a.Config, a.Logger)

	if err := newMenu(a, printMarkdown).run(ctx); err != nil {
		printError("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// menu drives the interactive session against one loaded Holdings value.
type menu struct {
	svc           interfaces.PortfolioService
	prices        interfaces.PriceResolver
	store         *holdingsfs.Store
	p             *prompt.Prompter
	out           io.Writer
	render        func(io.Writer, string)
	currency      string
	hasMarketData bool
}

func newMenu(a *app.App, render func(io.Writer, string)) *menu {
	return &menu{
		svc:           a.PortfolioService,
		prices:        a.PriceResolver,
		store:         a.Store,
		p:             a.Prompter,
		out:           a.Prompter.Out(),
		render:        render,
		currency:      a.Config.Portfolio.Currency,
		hasMarketData: a.MarketClient != nil,
	}
}

// run loops until the user exits or the input closes.
func (m *menu) run(ctx context.Context) error {
	h, err := m.svc.Load(ctx)
	if err != nil {
		return err
	}

	for {
		fmt.Fprintln(m.out, "\n==== PORTFOLIO MANAGER ====")
		fmt.Fprintln(m.out, "1) Manage holdings")
		fmt.Fprintln(m.out, "2) Portfolio summary")
		fmt.Fprintln(m.out, "3) Rebalance suggestions")
		fmt.Fprintln(m.out, "4) View stock info from holdings")
		fmt.Fprintln(m.out, "5) Save allocation chart")
		fmt.Fprintln(m.out, "0) Exit")

		choice, err := m.p.Line(ctx, "Choose: ")
		if err != nil {
			return m.exit(err)
		}

		switch choice {
		case "1":
			err = m.manageHoldings(ctx, h)
		case "2":
			err = m.summary(ctx, h)
		case "3":
			err = m.rebalance(ctx, h)
		case "4":
			err = m.stockInfo(ctx, h)
		case "5":
			err = m.chart(ctx, h)
		case "0":
			return m.exit(nil)
		default:
			m.p.Warn("Invalid option.")
		}

		if errors.Is(err, prompt.ErrClosed) || errors.Is(err, context.Canceled) {
			return m.exit(err)
		}
		if err != nil {
			m.p.Warn("Error: %v", err)
		}
	}
}

// exit ends the session; running out of input is a normal way to leave.
func (m *menu) exit(err error) error {
	if err != nil && !errors.Is(err, prompt.ErrClosed) {
		return err
	}
	fmt.Fprintln(m.out, "Goodbye!")
	return nil
}

func (m *menu) manageHoldings(ctx context.Context, h *models.Holdings) error {
	for {
		fmt.Fprintln(m.out, "\n-- Manage holdings --")
		fmt.Fprintln(m.out, "1) Add/Update holding")
		fmt.Fprintln(m.out, "2) Remove holding")
		fmt.Fprintln(m.out, "3) View holdings")
		fmt.Fprintln(m.out, "0) Back")

		choice, err := m.p.Line(ctx, "Choose: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			if err := m.addHolding(ctx, h); err != nil {
				if errors.Is(err, prompt.ErrClosed) {
					return err
				}
				m.p.Warn("%v", err)
			}
		case "2":
			t, err := m.p.Ticker(ctx, "Ticker to remove: ")
			if err != nil {
				return err
			}
			err = m.svc.Remove(ctx, h, t)
			switch {
			case errors.Is(err, models.ErrPositionNotFound):
				fmt.Fprintln(m.out, "Not found.")
			case err != nil:
				m.p.Warn("%v", err)
			default:
				fmt.Fprintln(m.out, "Removed:", t)
			}
		case "3":
			m.render(m.out, formatHoldings(h, m.currency))
		case "0":
			return nil
		default:
			m.p.Warn("Invalid option.")
		}
	}
}

// addHolding checks the ticker before asking for shares and cost, so an
// unknown symbol is rejected without further typing.
func (m *menu) addHolding(ctx context.Context, h *models.Holdings) error {
	t, err := m.p.Ticker(ctx, "Ticker (e.g., AAPL): ")
	if err != nil {
		return err
	}

	if existing, ok := h.Get(t); ok {
		replace, err := m.p.Confirm(ctx, fmt.Sprintf("%s is already held (%s shares @ %s). Replace?",
			t, common.FormatQuantity(existing.Shares), common.FormatMoney(existing.AvgCost, m.currency)))
		if err != nil {
			return err
		}
		if !replace {
			return nil
		}
	}

	if m.hasMarketData {
		out := m.prices.Fetch(ctx, t)
		if !out.Resolved() {
			m.p.Warn("Warning: No price data found.")
			m.p.Warn("Ticker may be invalid, delisted, or require a suffix (e.g., .SA, .L, .PA).")
			return nil
		}
		fmt.Fprintf(m.out, "Current price: %s\n", common.FormatQuantity(out.Price))
	}

	shares, err := m.p.PositiveNumber(ctx, "Shares: ", "Shares")
	if err != nil {
		return err
	}
	cost, err := m.p.PositiveNumber(ctx, "Average cost per share: ", "Average cost")
	if err != nil {
		return err
	}

	p, err := m.svc.AddOrUpdate(ctx, h, t, shares, cost, false)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Saved:", p.Ticker)
	return nil
}

func (m *menu) summary(ctx context.Context, h *models.Holdings) error {
	report, err := m.svc.Summary(ctx, h)
	if err != nil {
		return err
	}
	m.render(m.out, formatSummary(report, m.currency))
	return nil
}

func (m *menu) rebalance(ctx context.Context, h *models.Holdings) error {
	if h.Len() == 0 {
		fmt.Fprintln(m.out, "Portfolio is empty.")
		return nil
	}

	plan, err := m.svc.Rebalance(ctx, h, &introWeights{src: m.p, out: m.out})
	if errors.Is(err, models.ErrInvalidTargets) {
		fmt.Fprintln(m.out, invalidTargetsMessage(err))
		return nil
	}
	if err != nil {
		return err
	}
	m.render(m.out, formatRebalance(plan, m.currency))
	return nil
}

// introWeights prints the weight instructions before the first question.
type introWeights struct {
	src   interfaces.WeightSource
	out   io.Writer
	shown bool
}

func (w *introWeights) PromptForWeight(ctx context.Context, ticker string) (float64, error) {
	if !w.shown {
		fmt.Fprintln(w.out, "\nEnter target weights in % for each ticker.")
		fmt.Fprintln(w.out, "Example: if you want 50%, type 50")
		w.shown = true
	}
	return w.src.PromptForWeight(ctx, ticker)
}

func (m *menu) stockInfo(ctx context.Context, h *models.Holdings) error {
	if h.Len() == 0 {
		fmt.Fprintln(m.out, "\nPortfolio is empty. Add holdings first.")
		return nil
	}

	tickers := h.Tickers()
	fmt.Fprintln(m.out, "\n-- Available holdings --")
	for i, t := range tickers {
		fmt.Fprintf(m.out, "%d) %s\n", i+1, t)
	}
	fmt.Fprintln(m.out, "0) Back")

	choice, err := m.p.Line(ctx, "Choose: ")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 0 || n > len(tickers) {
		m.p.Warn("Invalid option.")
		return nil
	}
	if n == 0 {
		return nil
	}

	ticker := tickers[n-1]
	fmt.Fprintf(m.out, "\nFetching info for %s...\n", ticker)
	info, err := m.svc.TickerInfo(ctx, ticker)
	switch {
	case errors.Is(err, models.ErrNoMarketData):
		m.p.Warn("Company info needs an EODHD API key.")
		return nil
	case errors.Is(err, models.ErrUnknownTicker):
		fmt.Fprintln(m.out, "No price data found for this ticker right now.")
		return nil
	case err != nil:
		m.p.Warn("Could not fetch company info right now.")
		return nil
	}
	m.render(m.out, formatTickerInfo(info))
	return nil
}

func (m *menu) chart(ctx context.Context, h *models.Holdings) error {
	if h.Len() == 0 {
		fmt.Fprintln(m.out, "\nPortfolio is empty. Add holdings first.")
		return nil
	}
	report, err := m.svc.Summary(ctx, h)
	if err != nil {
		return err
	}
	path, err := writeAllocationChart(m.svc, m.store, report, "")
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Chart written to", path)
	return nil
}

// writeAllocationChart renders the chart and writes it to output, or to the
// store's charts directory when output is empty.
func writeAllocationChart(svc interfaces.PortfolioService, store *holdingsfs.Store, report *models.ValuationReport, output string) (string, error) {
	png, err := svc.AllocationChart(report)
	if err != nil {
		return "", err
	}
	if output == "" {
		return store.WriteChart("allocation.png", png)
	}
	if err := os.WriteFile(output, png, 0644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return output, nil
}
