// Package portfolio provides holdings management, valuation and rebalancing
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Service implements PortfolioService
type Service struct {
	store       interfaces.HoldingsStore
	prices      interfaces.PriceResolver
	client      interfaces.MarketDataClient
	logger      *common.Logger
	chartWidth  int
	chartHeight int
	now         func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithChartSize sets the allocation chart dimensions in pixels
func WithChartSize(width, height int) Option {
	return func(s *Service) {
		s.chartWidth = width
		s.chartHeight = height
	}
}

// NewService creates a new portfolio service.
// client may be nil; TickerInfo then fails with ErrNoMarketData.
func NewService(store interfaces.HoldingsStore, prices interfaces.PriceResolver, client interfaces.MarketDataClient, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		prices:      prices,
		client:      client,
		logger:      logger,
		chartWidth:  defaultChartWidth,
		chartHeight: defaultChartHeight,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted holdings. Missing or corrupt storage yields
// empty holdings; only unexpected I/O failures are returned.
func (s *Service) Load(ctx context.Context) (*models.Holdings, error) {
	h, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, models.ErrCorruptHoldings) {
			s.logger.Warn().Err(err).Str("path", s.store.Path()).Msg("Holdings unreadable, starting empty")
			return models.NewHoldings(), nil
		}
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	if h == nil {
		h = models.NewHoldings()
	}

	s.logger.Debug().Int("positions", h.Len()).Str("path", s.store.Path()).Msg("Holdings loaded")
	return h, nil
}

// AddOrUpdate validates a position, optionally checks that the ticker has
// price data, then upserts and saves it. With checkTicker set and no market
// data source configured the check is skipped.
func (s *Service) AddOrUpdate(ctx context.Context, h *models.Holdings, ticker string, shares, avgCost float64, checkTicker bool) (*models.Position, error) {
	t, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	p := models.Position{Ticker: t, Shares: shares, AvgCost: avgCost}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if checkTicker {
		out := s.prices.Fetch(ctx, t)
		switch {
		case out.Resolved():
		case errors.Is(out.Err, models.ErrNoMarketData):
			s.logger.Debug().Str("ticker", t).Msg("Ticker check skipped, no market data source")
		default:
			s.logger.Warn().Str("ticker", t).Str("kind", string(out.Kind)).Err(out.Err).Msg("Ticker check failed")
			return nil, fmt.Errorf("%s: %w", t, models.ErrUnknownTicker)
		}
	}

	// Saved first so a failed write leaves h matching the stored document.
	next := h.Clone()
	if err := next.Upsert(p); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save holdings: %w", err)
	}
	*h = *next

	s.logger.Info().Str("ticker", t).Float64("shares", shares).Float64("avg_cost", avgCost).Msg("Position saved")
	return &p, nil
}

// Remove deletes a position and saves the holdings
func (s *Service) Remove(ctx context.Context, h *models.Holdings, ticker string) error {
	t, err := models.NormalizeTicker(ticker)
	if err != nil {
		return err
	}
	next := h.Clone()
	if !next.Remove(t) {
		return fmt.Errorf("%s: %w", t, models.ErrPositionNotFound)
	}
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save holdings: %w", err)
	}
	*h = *next

	s.logger.Info().Str("ticker", t).Msg("Position removed")
	return nil
}

// Summary resolves current prices and values the holdings
func (s *Service) Summary(ctx context.Context, h *models.Holdings) (*models.ValuationReport, error) {
	if h.Len() == 0 {
		return &models.ValuationReport{Empty: true, GeneratedAt: s.now()}, nil
	}

	prices, err := s.prices.Resolve(ctx, h.Tickers())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prices: %w", err)
	}

	report, err := Summarize(h, prices)
	if err != nil {
		return nil, err
	}
	report.GeneratedAt = s.now()

	s.logger.Debug().
		Int("positions", len(report.Rows)).
		Float64("total_value", report.TotalValue).
		Msg("Summary computed")
	return report, nil
}

// Rebalance resolves prices, asks for one raw target weight per ticker in
// holdings order, then suggests trades. Negative weights are asked again.
func (s *Service) Rebalance(ctx context.Context, h *models.Holdings, weights interfaces.WeightSource) (*models.RebalancePlan, error) {
	if h.Len() == 0 {
		return &models.RebalancePlan{Empty: true}, nil
	}

	prices, err := s.prices.Resolve(ctx, h.Tickers())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prices: %w", err)
	}

	targets := make(models.TargetWeights, h.Len())
	for _, t := range h.Tickers() {
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			w, err := weights.PromptForWeight(ctx, t)
			if err != nil {
				return nil, fmt.Errorf("target weight for %s: %w", t, err)
			}
			if w >= 0 && !math.IsInf(w, 1) {
				targets[t] = w
				break
			}
		}
	}

	plan, err := Suggest(h, prices, targets)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("rows", len(plan.Rows)).Float64("total_value", plan.TotalValue).Msg("Rebalance computed")
	return plan, nil
}

// TickerInfo fetches company information together with the latest price
func (s *Service) TickerInfo(ctx context.Context, ticker string) (*models.TickerInfo, error) {
	t, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, models.ErrNoMarketData
	}

	out := s.prices.Fetch(ctx, t)
	if !out.Resolved() {
		return nil, fmt.Errorf("%s: %w", t, models.ErrUnknownTicker)
	}

	info, err := s.client.GetTickerInfo(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company info for %s: %w", t, err)
	}
	info.Ticker = t
	info.Price = &out.Price
	return info, nil
}

// AllocationChart renders the weights of a report as a PNG bar chart
func (s *Service) AllocationChart(report *models.ValuationReport) ([]byte, error) {
	if report == nil || report.Empty {
		return nil, fmt.Errorf("nothing to chart: portfolio is empty")
	}
	return RenderAllocationChart(report.Rows, s.chartWidth, s.chartHeight)
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
