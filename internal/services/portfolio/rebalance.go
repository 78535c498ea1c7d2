package portfolio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/bobmcallan/folio/internal/models"
)

// WeightTolerance is the accepted deviation of a normalized weight set from 100.
const WeightTolerance = 1e-6

// NormalizeWeights scales raw weights for the given tickers so they sum to
// 100. A ticker without a raw weight counts as 0. Negative weights and an
// all-zero set return ErrInvalidTargets.
func NormalizeWeights(raw models.TargetWeights, tickers []string) (map[string]float64, error) {
	values := make([]float64, len(tickers))
	for i, t := range tickers {
		w := raw[t]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight for %s must be >= 0", models.ErrInvalidTargets, t)
		}
		values[i] = w
	}

	sum := floats.Sum(values)
	if sum == 0 {
		return nil, fmt.Errorf("%w: all weights are zero", models.ErrInvalidTargets)
	}

	floats.Scale(100/sum, values)

	out := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		out[t] = values[i]
	}
	return out, nil
}

// Suggest computes the trade that moves each position to its target share
// of the current total value. Rows follow holdings insertion order.
func Suggest(holdings *models.Holdings, prices models.Prices, rawTargets models.TargetWeights) (*models.RebalancePlan, error) {
	if holdings.Len() == 0 {
		return &models.RebalancePlan{Empty: true}, nil
	}

	tickers := holdings.Tickers()
	weights, err := NormalizeWeights(rawTargets, tickers)
	if err != nil {
		return nil, err
	}

	positions := holdings.Positions()
	current := make([]float64, len(positions))
	for i, p := range positions {
		price, ok := prices[p.Ticker]
		if !ok {
			return nil, fmt.Errorf("%s: %w", p.Ticker, models.ErrMissingPrice)
		}
		current[i] = p.Shares * price
	}
	totalValue := floats.Sum(current)

	rows := make([]models.RebalanceRow, len(positions))
	for i, p := range positions {
		price := prices[p.Ticker]
		target := weights[p.Ticker] / 100 * totalValue
		gap := target - current[i]

		row := models.RebalanceRow{
			Ticker:       p.Ticker,
			Price:        price,
			CurrentValue: current[i],
			TargetWeight: weights[p.Ticker],
			TargetValue:  target,
			Gap:          gap,
		}
		switch {
		case gap > 0:
			row.Action = models.ActionBuy
			row.Amount = gap
		case gap < 0:
			row.Action = models.ActionSell
			row.Amount = -gap
		default:
			row.Action = models.ActionHold
		}
		// a non-positive price degrades to a zero share suggestion
		if price > 0 {
			row.Shares = row.Amount / price
		}
		rows[i] = row
	}

	return &models.RebalancePlan{TotalValue: totalValue, Rows: rows}, nil
}
