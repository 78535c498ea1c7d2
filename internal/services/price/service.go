// Package price resolves a complete price mapping for a set of tickers,
// falling back to manual entry for anything the market data source misses.
package price

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// ErrNoManualSource is returned when a ticker is unresolved and nothing can be asked.
var ErrNoManualSource = errors.New("no manual price source configured")

const (
	DefaultLookback     = 10 * 24 * time.Hour
	DefaultFetchTimeout = 15 * time.Second
)

// Service implements PriceResolver with a market-data primary and a
// manual-entry fallback.
type Service struct {
	client       interfaces.MarketDataClient
	manual       interfaces.ManualPriceSource
	logger       *common.Logger
	lookback     time.Duration
	fetchTimeout time.Duration
	concurrency  int
}

// Option configures the service
type Option func(*Service)

// WithLookback sets the trailing window searched for the latest close
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// WithFetchTimeout bounds each single-ticker fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithConcurrency sets how many tickers are fetched at once
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a price resolver.
// client may be nil (no API key): every ticker then goes to the manual source.
func NewService(client interfaces.MarketDataClient, manual interfaces.ManualPriceSource, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		client:       client,
		manual:       manual,
		logger:       logger,
		lookback:     DefaultLookback,
		fetchTimeout: DefaultFetchTimeout,
		concurrency:  1,
	}
	if s.logger == nil {
		s.logger = common.NewSilentLogger()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch attempts a single ticker against the market data source. Failures
// never escape as errors; they are folded into the outcome kind.
func (s *Service) Fetch(ctx context.Context, ticker string) models.FetchOutcome {
	out := models.FetchOutcome{Ticker: ticker}
	if s.client == nil {
		out.Kind = models.FetchNoData
		out.Err = models.ErrNoMarketData
		return out
	}

	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	price, ok, err := s.client.GetRecentClose(fctx, ticker, s.lookback)
	switch {
	case err != nil:
		out.Kind = models.FetchFault
		out.Err = err
	case !ok || !validPrice(price):
		out.Kind = models.FetchNoData
	default:
		out.Kind = models.FetchResolved
		out.Price = price
	}
	return out
}

// Resolve returns a price > 0 for every ticker. Tickers are normalized and
// deduplicated; the fallback is consulted in input order, once per
// unresolved ticker, re-asking until it supplies a positive value. The only
// errors are invalid tickers and failures of the manual source itself.
func (s *Service) Resolve(ctx context.Context, tickers []string) (models.Prices, error) {
	ordered := make([]string, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, raw := range tickers {
		t, err := models.NormalizeTicker(raw)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		ordered = append(ordered, t)
	}

	outcomes := s.fetchAll(ctx, ordered)

	prices := make(models.Prices, len(ordered))
	for _, o := range outcomes {
		if o.Resolved() {
			prices[o.Ticker] = o.Price
			continue
		}
		if s.client != nil {
			s.logger.Warn().
				Str("ticker", o.Ticker).
				Str("kind", string(o.Kind)).
				Err(o.Err).
				Msg("Price fetch failed")
		}
	}

	for _, t := range ordered {
		if _, ok := prices[t]; ok {
			continue
		}
		p, err := s.askManual(ctx, t)
		if err != nil {
			return nil, err
		}
		prices[t] = p
	}

	s.logger.Debug().Int("tickers", len(prices)).Msg("Prices resolved")
	return prices, nil
}

// fetchAll runs the fetch pass. Results are indexed by input position so the
// caller sees them in input order regardless of completion order.
func (s *Service) fetchAll(ctx context.Context, tickers []string) []models.FetchOutcome {
	outcomes := make([]models.FetchOutcome, len(tickers))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, t := range tickers {
		g.Go(func() error {
			outcomes[i] = s.Fetch(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *Service) askManual(ctx context.Context, ticker string) (float64, error) {
	if s.manual == nil {
		return 0, fmt.Errorf("%w: %s has no price", ErrNoManualSource, ticker)
	}
	s.logger.Info().Str("ticker", ticker).Msg("Falling back to manual price")
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		p, err := s.manual.PromptForPrice(ctx, ticker)
		if err != nil {
			return 0, fmt.Errorf("manual price for %s: %w", ticker, err)
		}
		if validPrice(p) {
			return p, nil
		}
		s.logger.Debug().Str("ticker", ticker).Float64("value", p).Msg("Rejected non-positive manual price")
	}
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 1)
}

// Ensure Service implements PriceResolver
var _ interfaces.PriceResolver = (*Service)(nil)
