// Package interfaces defines service contracts for folio
package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// PriceResolver produces a complete price mapping for a set of tickers
type PriceResolver interface {
	// Resolve fetches every ticker and routes the unresolved ones to the
	// manual fallback. The result has a price > 0 for every input ticker.
	Resolve(ctx context.Context, tickers []string) (models.Prices, error)

	// Fetch attempts a single ticker against the market data source only.
	Fetch(ctx context.Context, ticker string) models.FetchOutcome
}

// ManualPriceSource is asked for a price when the market data source fails.
type ManualPriceSource interface {
	PromptForPrice(ctx context.Context, ticker string) (float64, error)
}

// WeightSource supplies a raw target weight (>= 0) per ticker.
type WeightSource interface {
	PromptForWeight(ctx context.Context, ticker string) (float64, error)
}

// PortfolioService manages holdings and produces reports
type PortfolioService interface {
	// Load reads the persisted holdings; absent or corrupt storage yields empty holdings
	Load(ctx context.Context) (*models.Holdings, error)

	// AddOrUpdate validates and stores a position
	AddOrUpdate(ctx context.Context, h *models.Holdings, ticker string, shares, avgCost float64, checkTicker bool) (*models.Position, error)

	// Remove deletes a position
	Remove(ctx context.Context, h *models.Holdings, ticker string) error

	// Summary resolves prices and values the holdings
	Summary(ctx context.Context, h *models.Holdings) (*models.ValuationReport, error)

	// Rebalance resolves prices, collects target weights and suggests trades
	Rebalance(ctx context.Context, h *models.Holdings, weights WeightSource) (*models.RebalancePlan, error)

	// TickerInfo fetches company information for a held ticker
	TickerInfo(ctx context.Context, ticker string) (*models.TickerInfo, error)

	// AllocationChart renders the current weights of a report as PNG
	AllocationChart(report *models.ValuationReport) ([]byte, error)
}
