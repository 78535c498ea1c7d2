package price

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// --- Mocks ---

type closeResult struct {
	price float64
	ok    bool
	err   error
}

type mockMarketClient struct {
	mu      sync.Mutex
	results map[string]closeResult
	calls   []string
	windows []time.Duration
	delay   time.Duration
}

func (m *mockMarketClient) GetRecentClose(ctx context.Context, ticker string, lookback time.Duration) (float64, bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ticker)
	m.windows = append(m.windows, lookback)
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}
	r, found := m.results[ticker]
	if !found {
		return 0, false, nil
	}
	return r.price, r.ok, r.err
}
func (m *mockMarketClient) GetEOD(_ context.Context, _ string, _ ...interfaces.EODOption) (*models.EODResponse, error) {
	return nil, nil
}
func (m *mockMarketClient) GetTickerInfo(_ context.Context, _ string) (*models.TickerInfo, error) {
	return nil, nil
}

type mockManual struct {
	answers map[string][]float64
	err     error
	asked   []string
}

func (m *mockManual) PromptForPrice(_ context.Context, ticker string) (float64, error) {
	m.asked = append(m.asked, ticker)
	if m.err != nil {
		return 0, m.err
	}
	queue := m.answers[ticker]
	if len(queue) == 0 {
		return 0, errors.New("no scripted answer for " + ticker)
	}
	m.answers[ticker] = queue[1:]
	return queue[0], nil
}

func newTestService(client interfaces.MarketDataClient, manual interfaces.ManualPriceSource, opts ...Option) *Service {
	return NewService(client, manual, common.NewSilentLogger(), opts...)
}

// --- Tests ---

func TestFetch_Classification(t *testing.T) {
	client := &mockMarketClient{results: map[string]closeResult{
		"AAPL": {price: 120, ok: true},
		"ZERO": {price: 0, ok: true},
		"BAD":  {err: errors.New("connection refused")},
	}}
	svc := newTestService(client, nil)
	ctx := context.Background()

	got := svc.Fetch(ctx, "AAPL")
	assert.Equal(t, models.FetchResolved, got.Kind)
	assert.Equal(t, 120.0, got.Price)
	assert.True(t, got.Resolved())

	assert.Equal(t, models.FetchNoData, svc.Fetch(ctx, "ZERO").Kind)
	assert.Equal(t, models.FetchNoData, svc.Fetch(ctx, "ZZZZ").Kind)

	bad := svc.Fetch(ctx, "BAD")
	assert.Equal(t, models.FetchFault, bad.Kind)
	assert.ErrorContains(t, bad.Err, "connection refused")
	assert.False(t, bad.Resolved())
}

func TestFetch_LookbackWindow(t *testing.T) {
	client := &mockMarketClient{results: map[string]closeResult{"AAPL": {price: 120, ok: true}}}

	newTestService(client, nil).Fetch(context.Background(), "AAPL")
	newTestService(client, nil, WithLookback(7*24*time.Hour)).Fetch(context.Background(), "AAPL")

	require.Len(t, client.windows, 2)
	assert.Greater(t, client.windows[0], 5*24*time.Hour, "default window must outlast a five-day closure")
	assert.Equal(t, DefaultLookback, client.windows[0])
	assert.Equal(t, 7*24*time.Hour, client.windows[1])
}

func TestFetch_TimeoutIsFault(t *testing.T) {
	client := &mockMarketClient{delay: time.Second, results: map[string]closeResult{"SLOW": {price: 1, ok: true}}}
	svc := newTestService(client, nil, WithFetchTimeout(10*time.Millisecond))

	got := svc.Fetch(context.Background(), "SLOW")
	assert.Equal(t, models.FetchFault, got.Kind)
	assert.ErrorIs(t, got.Err, context.DeadlineExceeded)
}

func TestFetch_NilClient(t *testing.T) {
	svc := newTestService(nil, nil)
	got := svc.Fetch(context.Background(), "AAPL")
	assert.Equal(t, models.FetchNoData, got.Kind)
	assert.ErrorIs(t, got.Err, models.ErrNoMarketData)
}

func TestResolve_AllResolvedNeverAsks(t *testing.T) {
	client := &mockMarketClient{results: map[string]closeResult{
		"AAPL": {price: 120, ok: true},
		"MSFT": {price: 400, ok: true},
	}}
	manual := &mockManual{answers: map[string][]float64{}}
	svc := newTestService(client, manual)

	prices, err := svc.Resolve(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, models.Prices{"AAPL": 120, "MSFT": 400}, prices)
	assert.Empty(t, manual.asked)
}

func TestResolve_UnknownTickerAskedExactlyOnce(t *testing.T) {
	client := &mockMarketClient{results: map[string]closeResult{
		"AAPL": {price: 120, ok: true},
	}}
	manual := &mockManual{answers: map[string][]float64{"ZZZZ": {10}}}
	svc := newTestService(client, manual)

	prices, err := svc.Resolve(context.Background(), []string{"AAPL", "ZZZZ"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ZZZZ"}, manual.asked)
	assert.Equal(t, 120.0, prices["AAPL"])
	assert.Equal(t, 10.0, prices["ZZZZ"])
}

func TestResolve_NonPositiveManualValueIsReasked(t *testing.T) {
	manual := &mockManual{answers: map[string][]float64{"ZZZZ": {0, -3, 7.5}}}
	svc := newTestService(&mockMarketClient{}, manual)

	prices, err := svc.Resolve(context.Background(), []string{"ZZZZ"})
	require.NoError(t, err)
	assert.Equal(t, 7.5, prices["ZZZZ"])
	assert.Equal(t, []string{"ZZZZ", "ZZZZ", "ZZZZ"}, manual.asked)
}

func TestResolve_FallbackInInputOrderWithConcurrency(t *testing.T) {
	client := &mockMarketClient{
		delay: 5 * time.Millisecond,
		results: map[string]closeResult{
			"B": {err: errors.New("boom")},
			"D": {price: 4, ok: true},
		},
	}
	manual := &mockManual{answers: map[string][]float64{"C": {3}, "A": {1}, "B": {2}}}
	svc := newTestService(client, manual, WithConcurrency(4))

	prices, err := svc.Resolve(context.Background(), []string{"c", "A", "b", "D"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, manual.asked)
	assert.Equal(t, models.Prices{"A": 1, "B": 2, "C": 3, "D": 4}, prices)
}

func TestResolve_NormalizesAndDeduplicates(t *testing.T) {
	client := &mockMarketClient{results: map[string]closeResult{"AAPL": {price: 100, ok: true}}}
	svc := newTestService(client, nil)

	prices, err := svc.Resolve(context.Background(), []string{" aapl", "AAPL", "Aapl "})
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.Equal(t, []string{"AAPL"}, client.calls)
}

func TestResolve_EmptyTickerRejected(t *testing.T) {
	svc := newTestService(&mockMarketClient{}, nil)
	_, err := svc.Resolve(context.Background(), []string{"AAPL", "  "})
	assert.ErrorIs(t, err, models.ErrEmptyTicker)
}

func TestResolve_NilClientRoutesEverythingToManual(t *testing.T) {
	manual := &mockManual{answers: map[string][]float64{"AAPL": {150}, "MSFT": {300}}}
	svc := newTestService(nil, manual)

	prices, err := svc.Resolve(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, manual.asked)
	assert.Equal(t, models.Prices{"AAPL": 150, "MSFT": 300}, prices)
}

func TestResolve_ManualSourceErrorPropagates(t *testing.T) {
	manual := &mockManual{err: errors.New("stdin closed")}
	svc := newTestService(nil, manual)

	_, err := svc.Resolve(context.Background(), []string{"AAPL"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "AAPL"))
	assert.ErrorContains(t, err, "stdin closed")
}

func TestResolve_NoManualSource(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.Resolve(context.Background(), []string{"AAPL"})
	assert.ErrorIs(t, err, ErrNoManualSource)
}

func TestResolve_EmptyInput(t *testing.T) {
	svc := newTestService(nil, nil)
	prices, err := svc.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}
