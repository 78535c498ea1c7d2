package main

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

const notAvailable = "N/A"

// formatHoldings formats the stored positions as markdown
func formatHoldings(h *models.Holdings, currency string) string {
	if h.Len() == 0 {
		return "Portfolio is empty.\n"
	}

	var sb strings.Builder
	sb.WriteString("# Holdings\n\n")
	sb.WriteString("| Ticker | Shares | Avg Cost | Cost Basis |\n")
	sb.WriteString("|--------|--------|----------|------------|\n")

	total := 0.0
	for _, p := range h.Positions() {
		total += p.CostBasis()
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			p.Ticker,
			common.FormatQuantity(p.Shares),
			common.FormatMoney(p.AvgCost, currency),
			common.FormatMoney(p.CostBasis(), currency),
		))
	}
	sb.WriteString(fmt.Sprintf("| **Total** | | | **%s** |\n", common.FormatMoney(total, currency)))

	return sb.String()
}

// formatSummary formats a valuation report as markdown
func formatSummary(r *models.ValuationReport, currency string) string {
	if r == nil || r.Empty {
		return "Portfolio is empty. Add holdings first.\n"
	}

	var sb strings.Builder
	sb.WriteString("# Portfolio Summary\n\n")
	if !r.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Date:** %s\n", r.GeneratedAt.Format("2006-01-02 15:04")))
	}
	sb.WriteString(fmt.Sprintf("- **Total Value:** %s\n", common.FormatMoney(r.TotalValue, currency)))
	sb.WriteString(fmt.Sprintf("- **Total Cost:** %s\n", common.FormatMoney(r.TotalCost, currency)))
	sb.WriteString(fmt.Sprintf("- **Total Unrealized P/L:** %s (%s)\n\n",
		common.FormatSignedMoney(r.TotalUnrealizedPL, currency),
		common.FormatSignedPct(r.TotalUnrealizedPct)))

	sb.WriteString("| Ticker | Shares | Avg Cost | Price | Value | Unrealized P/L | Unrealized % | Weight |\n")
	sb.WriteString("|--------|--------|----------|-------|-------|----------------|--------------|--------|\n")
	for _, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			row.Ticker,
			common.FormatQuantity(row.Shares),
			common.FormatMoney(row.AvgCost, currency),
			common.FormatMoney(row.Price, currency),
			common.FormatMoney(row.Value, currency),
			common.FormatSignedMoney(row.UnrealizedPL, currency),
			common.FormatSignedPct(row.UnrealizedPct),
			common.FormatPct(row.Weight),
		))
	}
	sb.WriteString("\n")

	if r.Best != nil {
		sb.WriteString(fmt.Sprintf("- **Biggest winner (unrealized):** %s %s\n", r.Best.Ticker, common.FormatSignedMoney(r.Best.PL, currency)))
	}
	if r.Worst != nil {
		sb.WriteString(fmt.Sprintf("- **Biggest loser (unrealized):** %s %s\n", r.Worst.Ticker, common.FormatSignedMoney(r.Worst.PL, currency)))
	}

	return sb.String()
}

// formatRebalance formats rebalance suggestions as markdown
func formatRebalance(plan *models.RebalancePlan, currency string) string {
	if plan == nil || plan.Empty {
		return "Portfolio is empty.\n"
	}

	var sb strings.Builder
	sb.WriteString("# Rebalance Suggestions\n\n")
	sb.WriteString(fmt.Sprintf("**Total portfolio value:** %s\n\n", common.FormatMoney(plan.TotalValue, currency)))
	sb.WriteString("Targets normalized to sum to 100%.\n\n")

	sb.WriteString("| Ticker | Price | Current | Target % | Target | Action | Amount | Shares |\n")
	sb.WriteString("|--------|-------|---------|----------|--------|--------|--------|--------|\n")
	for _, row := range plan.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			row.Ticker,
			common.FormatMoney(row.Price, currency),
			common.FormatMoney(row.CurrentValue, currency),
			common.FormatPct(row.TargetWeight),
			common.FormatMoney(row.TargetValue, currency),
			row.Action,
			common.FormatMoney(row.Amount, currency),
			common.FormatQuantity(row.Shares),
		))
	}
	sb.WriteString("\n")

	for _, row := range plan.Rows {
		switch row.Action {
		case models.ActionBuy:
			sb.WriteString(fmt.Sprintf("- %s: BUY about %s worth (about %s shares)\n",
				row.Ticker, common.FormatMoney(row.Amount, currency), common.FormatQuantity(row.Shares)))
		case models.ActionSell:
			sb.WriteString(fmt.Sprintf("- %s: SELL about %s worth (about %s shares)\n",
				row.Ticker, common.FormatMoney(row.Amount, currency), common.FormatQuantity(row.Shares)))
		default:
			sb.WriteString(fmt.Sprintf("- %s: already on target\n", row.Ticker))
		}
	}

	return sb.String()
}

// formatTickerInfo formats company information as markdown. Absent fields
// are shown as N/A.
func formatTickerInfo(info *models.TickerInfo) string {
	var sb strings.Builder

	name := info.Name()
	if name == "" {
		name = notAvailable
	}

	sb.WriteString(fmt.Sprintf("# Stock Info: %s\n\n", info.Ticker))
	sb.WriteString(fmt.Sprintf("- **Name:** %s\n", name))
	sb.WriteString(fmt.Sprintf("- **Country:** %s\n", optText(info.Country)))
	sb.WriteString(fmt.Sprintf("- **Sector:** %s\n", optText(info.Sector)))
	sb.WriteString(fmt.Sprintf("- **Industry:** %s\n", optText(info.Industry)))
	sb.WriteString(fmt.Sprintf("- **Exchange:** %s\n", optText(info.Exchange)))
	sb.WriteString(fmt.Sprintf("- **Currency:** %s\n", optText(info.Currency)))
	sb.WriteString(fmt.Sprintf("- **Current price:** %s\n\n", optFixed(info.Price)))

	sb.WriteString("## Size & Financials\n\n")
	sb.WriteString(fmt.Sprintf("- **Market cap:** %s\n", optGrouped(info.MarketCap)))
	sb.WriteString(fmt.Sprintf("- **Revenue (TTM):** %s\n", optGrouped(info.TotalRevenue)))
	sb.WriteString(fmt.Sprintf("- **Net income (TTM):** %s\n\n", optGrouped(info.NetIncome)))

	sb.WriteString("## Ratios & Margins\n\n")
	sb.WriteString(fmt.Sprintf("- **P/E (TTM):** %s\n", optFixed(info.TrailingPE)))
	sb.WriteString(fmt.Sprintf("- **P/B:** %s\n", optFixed(info.PriceToBook)))
	sb.WriteString(fmt.Sprintf("- **ROE:** %s\n", optRatioPct(info.ReturnOnEquity)))
	sb.WriteString(fmt.Sprintf("- **Gross margin:** %s\n", optRatioPct(info.GrossMargin)))
	sb.WriteString(fmt.Sprintf("- **Operating margin:** %s\n", optRatioPct(info.OperatingMargin)))
	sb.WriteString(fmt.Sprintf("- **Profit margin:** %s\n", optRatioPct(info.ProfitMargin)))

	return sb.String()
}

func optText(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}

func optFixed(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return common.FormatQuantity(*v)
}

func optGrouped(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return common.FormatGrouped(*v)
}

// optRatioPct renders a fraction (0.25) as a percentage (25.00%).
func optRatioPct(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return common.FormatPct(*v * 100)
}
