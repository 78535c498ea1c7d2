// Package interfaces defines service contracts for folio
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// MarketDataClient provides prices and company data for tickers
type MarketDataClient interface {
	// GetRecentClose returns the most recent close within the trailing
	// lookback window. ok is false when the source has no data for the
	// ticker (invalid, delisted or unsupported suffix).
	GetRecentClose(ctx context.Context, ticker string, lookback time.Duration) (price float64, ok bool, err error)

	// GetEOD retrieves end-of-day price data
	GetEOD(ctx context.Context, ticker string, opts ...EODOption) (*models.EODResponse, error)

	// GetTickerInfo retrieves company information with optional fields
	GetTickerInfo(ctx context.Context, ticker string) (*models.TickerInfo, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From  time.Time
	To    time.Time
	Order string // a=ascending, d=descending
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}
