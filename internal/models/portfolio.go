// Package models defines data structures for folio
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTicker      = errors.New("ticker cannot be empty")
	ErrInvalidPosition  = errors.New("shares and avg_cost must be > 0")
	ErrPositionNotFound = errors.New("position not found")
	ErrUnknownTicker    = errors.New("no price data found; ticker may be invalid, delisted, or need an exchange suffix (e.g. .SA, .L, .PA)")
	ErrCorruptHoldings  = errors.New("holdings storage is corrupt")
)

// EodhExchange maps common exchange names (e.g. "NYSE", "ASX") to EODHD
// exchange codes (e.g. "US", "AU"). Returns "US" for empty exchanges.
func EodhExchange(exchange string) string {
	switch strings.ToUpper(exchange) {
	case "ASX", "AU":
		return "AU"
	case "NYSE", "NASDAQ", "US", "BATS", "AMEX", "ARCA", "":
		return "US"
	case "LSE", "LON":
		return "LSE"
	default:
		return strings.ToUpper(exchange)
	}
}

// EODHDTicker returns the full EODHD-format ticker (e.g. "AAPL.US").
// Tickers that already carry an exchange suffix ("PETR4.SA") are kept as is.
func EODHDTicker(ticker, defaultExchange string) string {
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + EodhExchange(defaultExchange)
}

// NormalizeTicker trims and upper-cases a user supplied ticker.
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return "", ErrEmptyTicker
	}
	return t, nil
}

// Position is a single holding. Shares and AvgCost are always set together.
type Position struct {
	Ticker  string  `json:"ticker"`
	Shares  float64 `json:"shares"`
	AvgCost float64 `json:"avg_cost"` // currency per share
}

// Validate checks the position invariants.
func (p Position) Validate() error {
	if p.Ticker == "" || p.Ticker != strings.ToUpper(p.Ticker) {
		return fmt.Errorf("%w: %q", ErrEmptyTicker, p.Ticker)
	}
	if !(p.Shares > 0) || !(p.AvgCost > 0) {
		return fmt.Errorf("%s: %w", p.Ticker, ErrInvalidPosition)
	}
	return nil
}

// CostBasis returns shares × avg_cost.
func (p Position) CostBasis() float64 {
	return p.Shares * p.AvgCost
}

// Holdings is an insertion-ordered mapping of ticker to Position.
// Iteration order is the order in which tickers were first added; updating
// an existing ticker keeps its slot.
type Holdings struct {
	order     []string
	positions map[string]Position
}

// NewHoldings returns an empty holdings set.
func NewHoldings() *Holdings {
	return &Holdings{positions: make(map[string]Position)}
}

// Upsert adds or overwrites a position after normalizing its ticker.
func (h *Holdings) Upsert(p Position) error {
	t, err := NormalizeTicker(p.Ticker)
	if err != nil {
		return err
	}
	p.Ticker = t
	if err := p.Validate(); err != nil {
		return err
	}
	if h.positions == nil {
		h.positions = make(map[string]Position)
	}
	if _, ok := h.positions[t]; !ok {
		h.order = append(h.order, t)
	}
	h.positions[t] = p
	return nil
}

// Remove deletes a position and reports whether it existed.
func (h *Holdings) Remove(ticker string) bool {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return false
	}
	if _, ok := h.positions[t]; !ok {
		return false
	}
	delete(h.positions, t)
	for i, o := range h.order {
		if o == t {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the position for a ticker.
func (h *Holdings) Get(ticker string) (Position, bool) {
	if h == nil {
		return Position{}, false
	}
	p, ok := h.positions[strings.ToUpper(strings.TrimSpace(ticker))]
	return p, ok
}

// Len returns the number of positions.
func (h *Holdings) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Tickers returns the tickers in insertion order.
func (h *Holdings) Tickers() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Positions returns the positions in insertion order.
func (h *Holdings) Positions() []Position {
	if h == nil {
		return nil
	}
	out := make([]Position, 0, len(h.order))
	for _, t := range h.order {
		out = append(out, h.positions[t])
	}
	return out
}

// Clone returns an independent copy with the same order.
func (h *Holdings) Clone() *Holdings {
	c := &Holdings{
		order:     append([]string(nil), h.order...),
		positions: make(map[string]Position, len(h.positions)),
	}
	for t, p := range h.positions {
		c.positions[t] = p
	}
	return c
}

// holdingsFile is the persisted shape: a single top-level "holdings" field.
type holdingsFile struct {
	Holdings []Position `json:"holdings"`
}

// MarshalJSON writes the holdings as an ordered array under "holdings".
func (h *Holdings) MarshalJSON() ([]byte, error) {
	pos := h.Positions()
	if pos == nil {
		pos = []Position{}
	}
	return json.Marshal(holdingsFile{Holdings: pos})
}

// UnmarshalJSON restores holdings, rejecting invalid positions.
func (h *Holdings) UnmarshalJSON(data []byte) error {
	var f holdingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	fresh := NewHoldings()
	for _, p := range f.Holdings {
		if err := fresh.Upsert(p); err != nil {
			return fmt.Errorf("invalid stored position: %w", err)
		}
	}
	*h = *fresh
	return nil
}
