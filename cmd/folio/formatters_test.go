package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

func TestFormatHoldings_Empty(t *testing.T) {
	output := formatHoldings(models.NewHoldings(), "USD")
	if output != "Portfolio is empty.\n" {
		t.Errorf("formatHoldings(empty) = %q", output)
	}
}

func TestFormatHoldings_KeepsInsertionOrder(t *testing.T) {
	h := models.NewHoldings()
	for _, p := range []models.Position{
		{Ticker: "msft", Shares: 5, AvgCost: 200},
		{Ticker: "aapl", Shares: 10, AvgCost: 100},
	} {
		if err := h.Upsert(p); err != nil {
			t.Fatal(err)
		}
	}

	output := formatHoldings(h, "USD")

	if strings.Index(output, "MSFT") > strings.Index(output, "AAPL") {
		t.Error("MSFT should be listed before AAPL")
	}
	if !strings.Contains(output, "| AAPL | 10.00 | $100.00 | $1,000.00 |") {
		t.Errorf("missing AAPL row:\n%s", output)
	}
	if !strings.Contains(output, "**$2,000.00**") {
		t.Errorf("missing cost basis total:\n%s", output)
	}
}

func TestFormatSummary_SinglePosition(t *testing.T) {
	report := &models.ValuationReport{
		GeneratedAt: time.Date(2024, 3, 29, 12, 0, 0, 0, time.UTC),
		Rows: []models.ValuationRow{
			{Ticker: "AAPL", Shares: 10, AvgCost: 100, Price: 120, Value: 1200, Cost: 1000, UnrealizedPL: 200, UnrealizedPct: 20, Weight: 100},
		},
		TotalValue:         1200,
		TotalCost:          1000,
		TotalUnrealizedPL:  200,
		TotalUnrealizedPct: 20,
		Best:               &models.Performer{Ticker: "AAPL", PL: 200},
		Worst:              &models.Performer{Ticker: "AAPL", PL: 200},
	}

	output := formatSummary(report, "USD")

	for _, want := range []string{
		"**Date:** 2024-03-29 12:00",
		"**Total Value:** $1,200.00",
		"**Total Cost:** $1,000.00",
		"**Total Unrealized P/L:** +$200.00 (+20.00%)",
		"| AAPL | 10.00 | $100.00 | $120.00 | $1,200.00 | +$200.00 | +20.00% | 100.00% |",
		"**Biggest winner (unrealized):** AAPL +$200.00",
		"**Biggest loser (unrealized):** AAPL +$200.00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatSummary_Empty(t *testing.T) {
	for _, r := range []*models.ValuationReport{nil, {Empty: true}} {
		if got := formatSummary(r, "USD"); got != "Portfolio is empty. Add holdings first.\n" {
			t.Errorf("formatSummary(%v) = %q", r, got)
		}
	}
}

func TestFormatRebalance_BuySell(t *testing.T) {
	plan := &models.RebalancePlan{
		TotalValue: 1000,
		Rows: []models.RebalanceRow{
			{Ticker: "A", Price: 100, CurrentValue: 600, TargetWeight: 50, TargetValue: 500, Gap: -100, Action: models.ActionSell, Amount: 100, Shares: 1},
			{Ticker: "B", Price: 50, CurrentValue: 400, TargetWeight: 50, TargetValue: 500, Gap: 100, Action: models.ActionBuy, Amount: 100, Shares: 2},
			{Ticker: "C", Price: 10, CurrentValue: 0, TargetWeight: 0, TargetValue: 0, Action: models.ActionHold},
		},
	}

	output := formatRebalance(plan, "USD")

	for _, want := range []string{
		"**Total portfolio value:** $1,000.00",
		"- A: SELL about $100.00 worth (about 1.00 shares)",
		"- B: BUY about $100.00 worth (about 2.00 shares)",
		"- C: already on target",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatTickerInfo_MissingFieldsShowNA(t *testing.T) {
	name := "Apple Inc"
	price := 171.48
	margin := 0.25
	mcap := 2.65e12

	output := formatTickerInfo(&models.TickerInfo{
		Ticker:       "AAPL",
		LongName:     &name,
		Price:        &price,
		ProfitMargin: &margin,
		MarketCap:    &mcap,
	})

	for _, want := range []string{
		"# Stock Info: AAPL",
		"**Name:** Apple Inc",
		"**Sector:** N/A",
		"**Current price:** 171.48",
		"**Market cap:** 2,650,000,000,000",
		"**Net income (TTM):** N/A",
		"**Profit margin:** 25.00%",
		"**P/E (TTM):** N/A",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatTickerInfo_NoName(t *testing.T) {
	output := formatTickerInfo(&models.TickerInfo{Ticker: "ZZZZ"})
	if !strings.Contains(output, "**Name:** N/A") {
		t.Errorf("expected N/A name:\n%s", output)
	}
}

func TestParseWeights(t *testing.T) {
	w, err := parseWeights("aapl=50, MSFT=25.5,,")
	if err != nil {
		t.Fatalf("parseWeights failed: %v", err)
	}
	if len(w) != 2 || w["AAPL"] != 50 || w["MSFT"] != 25.5 {
		t.Errorf("parseWeights = %v", w)
	}
	if got, _ := w.PromptForWeight(context.Background(), "TSLA"); got != 0 {
		t.Errorf("missing ticker weight = %v, want 0", got)
	}

	for _, raw := range []string{"AAPL", "=50", "AAPL=abc", "AAPL=-1"} {
		if _, err := parseWeights(raw); err == nil {
			t.Errorf("parseWeights(%q) should fail", raw)
		}
	}
}

func TestInvalidTargetsMessage(t *testing.T) {
	zero := fmt.Errorf("%w: all weights are zero", models.ErrInvalidTargets)
	if got := invalidTargetsMessage(zero); got != "All weights are 0. Nothing to do." {
		t.Errorf("invalidTargetsMessage(zero) = %q", got)
	}

	other := errors.New("weight for A must be >= 0")
	if got := invalidTargetsMessage(other); got != other.Error() {
		t.Errorf("invalidTargetsMessage(other) = %q", got)
	}
}
