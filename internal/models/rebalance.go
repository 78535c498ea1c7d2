package models

import "errors"

// ErrInvalidTargets is returned when a target weight set cannot be normalized.
var ErrInvalidTargets = errors.New("invalid target weights")

// TargetWeights holds raw, pre-normalization weights (>= 0) per ticker.
type TargetWeights map[string]float64

// RebalanceAction is the suggested trade direction.
type RebalanceAction string

const (
	ActionBuy  RebalanceAction = "BUY"
	ActionSell RebalanceAction = "SELL"
	ActionHold RebalanceAction = "HOLD"
)

// RebalanceRow is the suggestion for one ticker.
type RebalanceRow struct {
	Ticker       string          `json:"ticker"`
	Price        float64         `json:"price"`
	CurrentValue float64         `json:"current_value"`
	TargetWeight float64         `json:"target_weight"` // normalized, sums to 100
	TargetValue  float64         `json:"target_value"`
	Gap          float64         `json:"gap"` // target_value − current_value
	Action       RebalanceAction `json:"action"`
	Amount       float64         `json:"amount"` // |gap| in currency
	Shares       float64         `json:"shares"` // amount / price, 0 when price is 0
}

// RebalancePlan is the full set of suggestions in holdings order.
type RebalancePlan struct {
	Empty      bool           `json:"empty"`
	TotalValue float64        `json:"total_value"`
	Rows       []RebalanceRow `json:"rows"`
}
