// Package models defines data structures for folio
package models

import (
	"errors"
	"time"
)

var (
	// ErrMissingPrice is returned when a held ticker has no positive price.
	ErrMissingPrice = errors.New("missing or non-positive price")

	// ErrNoMarketData is reported when no market data source is configured.
	ErrNoMarketData = errors.New("no market data source configured")
)

// Prices maps ticker to a resolved, strictly positive price.
type Prices map[string]float64

// EODBar represents a single day's price data
type EODBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// EODResponse holds EOD bars, most recent first.
type EODResponse struct {
	Data []EODBar `json:"data"`
}

// FetchKind classifies the outcome of a single price fetch.
type FetchKind string

const (
	FetchResolved FetchKind = "resolved"
	FetchNoData   FetchKind = "no_data" // source answered but had nothing usable
	FetchFault    FetchKind = "fault"   // transport, decode or timeout failure
)

// FetchOutcome is the result of fetching one ticker. Price is only
// meaningful when Kind is FetchResolved.
type FetchOutcome struct {
	Ticker string    `json:"ticker"`
	Kind   FetchKind `json:"kind"`
	Price  float64   `json:"price,omitempty"`
	Err    error     `json:"-"`
}

// Resolved reports whether the fetch produced a usable price.
func (o FetchOutcome) Resolved() bool {
	return o.Kind == FetchResolved && o.Price > 0
}

// TickerInfo is company information from the market data source.
// Every optional field is a pointer: nil means the source did not provide it.
type TickerInfo struct {
	Ticker    string  `json:"ticker"`
	LongName  *string `json:"long_name,omitempty"`
	ShortName *string `json:"short_name,omitempty"`
	Country   *string `json:"country,omitempty"`
	Sector    *string `json:"sector,omitempty"`
	Industry  *string `json:"industry,omitempty"`
	Exchange  *string `json:"exchange,omitempty"`
	Currency  *string `json:"currency,omitempty"`

	MarketCap    *float64 `json:"market_cap,omitempty"`
	TotalRevenue *float64 `json:"total_revenue,omitempty"`
	NetIncome    *float64 `json:"net_income,omitempty"`

	TrailingPE      *float64 `json:"trailing_pe,omitempty"`
	PriceToBook     *float64 `json:"price_to_book,omitempty"`
	ReturnOnEquity  *float64 `json:"return_on_equity,omitempty"`  // fraction, 0.25 = 25%
	GrossMargin     *float64 `json:"gross_margin,omitempty"`      // fraction
	OperatingMargin *float64 `json:"operating_margin,omitempty"`  // fraction
	ProfitMargin    *float64 `json:"profit_margin,omitempty"`     // fraction

	Price *float64 `json:"price,omitempty"`
}

// Name returns the long name, then the short name, or "" when neither exists.
func (t *TickerInfo) Name() string {
	if t == nil {
		return ""
	}
	if t.LongName != nil && *t.LongName != "" {
		return *t.LongName
	}
	if t.ShortName != nil && *t.ShortName != "" {
		return *t.ShortName
	}
	return ""
}
