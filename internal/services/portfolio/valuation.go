package portfolio

import (
	"fmt"

	"github.com/bobmcallan/folio/internal/models"
)

// Summarize values every position at its resolved price and aggregates the
// totals. Rows follow holdings insertion order. Best and worst are chosen in
// one pass where a later row only replaces the current pick on a strictly
// greater (best) or strictly smaller (worst) P/L, so ties go to the first row.
//
// Summarize is a pure function of its inputs. A held ticker without a
// positive price returns ErrMissingPrice.
func Summarize(holdings *models.Holdings, prices models.Prices) (*models.ValuationReport, error) {
	if holdings.Len() == 0 {
		return &models.ValuationReport{Empty: true}, nil
	}

	positions := holdings.Positions()
	rows := make([]models.ValuationRow, 0, len(positions))

	var totalValue, totalCost, totalPL float64
	for _, p := range positions {
		price, ok := prices[p.Ticker]
		if !ok || !(price > 0) {
			return nil, fmt.Errorf("%s: %w", p.Ticker, models.ErrMissingPrice)
		}

		row := models.ValuationRow{
			Ticker:       p.Ticker,
			Shares:       p.Shares,
			AvgCost:      p.AvgCost,
			Price:        price,
			Value:        p.Shares * price,
			Cost:         p.CostBasis(),
			UnrealizedPL: (price - p.AvgCost) * p.Shares,
		}
		if p.AvgCost > 0 {
			row.UnrealizedPct = (price - p.AvgCost) / p.AvgCost * 100
		}

		totalValue += row.Value
		totalCost += row.Cost
		totalPL += row.UnrealizedPL
		rows = append(rows, row)
	}

	report := &models.ValuationReport{
		Rows:              rows,
		TotalValue:        totalValue,
		TotalCost:         totalCost,
		TotalUnrealizedPL: totalPL,
	}
	if totalCost > 0 {
		report.TotalUnrealizedPct = totalPL / totalCost * 100
	}

	for i := range rows {
		if totalValue > 0 {
			rows[i].Weight = rows[i].Value / totalValue * 100
		}

		pl := rows[i].UnrealizedPL
		if report.Best == nil || pl > report.Best.PL {
			report.Best = &models.Performer{Ticker: rows[i].Ticker, PL: pl}
		}
		if report.Worst == nil || pl < report.Worst.PL {
			report.Worst = &models.Performer{Ticker: rows[i].Ticker, PL: pl}
		}
	}

	return report, nil
}
