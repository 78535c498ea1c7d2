// Package models defines data structures for folio
package models

import "time"

// ValuationRow is the derived valuation of a single position.
type ValuationRow struct {
	Ticker        string  `json:"ticker"`
	Shares        float64 `json:"shares"`
	AvgCost       float64 `json:"avg_cost"`
	Price         float64 `json:"price"`
	Value         float64 `json:"value"`          // shares × price
	Cost          float64 `json:"cost"`           // shares × avg_cost
	UnrealizedPL  float64 `json:"unrealized_pl"`  // (price − avg_cost) × shares
	UnrealizedPct float64 `json:"unrealized_pct"` // vs avg_cost, 0 when avg_cost is 0
	Weight        float64 `json:"weight"`         // % of total value, 0 when total is 0
}

// Performer identifies the best or worst position by unrealized P/L.
type Performer struct {
	Ticker string  `json:"ticker"`
	PL     float64 `json:"pl"`
}

// ValuationReport is the portfolio summary. Empty is set when there were no
// holdings to value; Rows is then nil and Best/Worst are nil.
type ValuationReport struct {
	GeneratedAt        time.Time      `json:"generated_at"`
	Empty              bool           `json:"empty"`
	Rows               []ValuationRow `json:"rows"`
	TotalValue         float64        `json:"total_value"`
	TotalCost          float64        `json:"total_cost"`
	TotalUnrealizedPL  float64        `json:"total_unrealized_pl"`
	TotalUnrealizedPct float64        `json:"total_unrealized_pct"`
	Best               *Performer     `json:"best,omitempty"`
	Worst              *Performer     `json:"worst,omitempty"`
}
