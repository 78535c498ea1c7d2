// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// nullFloat64 is a fundamentals value that may be absent. EODHD reports
// missing figures as null, "", "N/A" or other non-numeric strings; all of
// them leave Valid false.
type nullFloat64 struct {
	Value float64
	Valid bool
}

func (n *nullFloat64) UnmarshalJSON(data []byte) error {
	n.Value, n.Valid = 0, false
	if string(data) == "null" {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		n.set(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if num, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			n.set(num)
		}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

func (n *nullFloat64) set(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	n.Value, n.Valid = v, true
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultExchange  = "US"
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL         string
	apiKey          string
	defaultExchange string
	httpClient      *http.Client
	logger          *common.Logger
	limiter         *rate.Limiter
	now             func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDefaultExchange sets the exchange appended to bare tickers
func WithDefaultExchange(exchange string) ClientOption {
	return func(c *Client) {
		c.defaultExchange = exchange
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		apiKey:          apiKey,
		defaultExchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound reports whether err is an EODHD "ticker not found" response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	// Add API key
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) symbol(ticker string) string {
	return models.EODHDTicker(strings.ToUpper(strings.TrimSpace(ticker)), c.defaultExchange)
}

// GetEOD retrieves daily end-of-day price data
func (c *Client) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) (*models.EODResponse, error) {
	params := &interfaces.EODParams{
		Order: "d", // descending (most recent first)
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", "d")
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/eod/%s", c.symbol(ticker))

	var bars []eodBarResponse
	if err := c.get(ctx, path, urlParams, &bars); err != nil {
		return nil, err
	}

	result := &models.EODResponse{
		Data: make([]models.EODBar, len(bars)),
	}

	for i, bar := range bars {
		date, _ := time.Parse("2006-01-02", bar.Date)
		result.Data[i] = models.EODBar{
			Date:     date,
			Open:     float64(bar.Open),
			High:     float64(bar.High),
			Low:      float64(bar.Low),
			Close:    float64(bar.Close),
			AdjClose: float64(bar.AdjustedClose),
			Volume:   bar.Volume,
		}
	}

	return result, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        int64       `json:"volume"`
}

// GetRecentClose returns the latest close in the trailing lookback window.
// A 404 or an empty window is reported as ok=false with a nil error; any
// other failure is returned as an error.
func (c *Client) GetRecentClose(ctx context.Context, ticker string, lookback time.Duration) (float64, bool, error) {
	to := c.now()
	from := to.Add(-lookback)

	eod, err := c.GetEOD(ctx, ticker, interfaces.WithDateRange(from, to))
	if err != nil {
		if IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	// Bars are requested most recent first, but the order is not trusted.
	var latest *models.EODBar
	for i := range eod.Data {
		bar := &eod.Data[i]
		if latest == nil || bar.Date.After(latest.Date) {
			latest = bar
		}
	}
	if latest == nil || !(latest.Close > 0) {
		return 0, false, nil
	}
	return latest.Close, true, nil
}

// GetTickerInfo retrieves company information from the fundamentals endpoint
func (c *Client) GetTickerInfo(ctx context.Context, ticker string) (*models.TickerInfo, error) {
	path := fmt.Sprintf("/fundamentals/%s", c.symbol(ticker))

	var resp fundamentalsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	info := &models.TickerInfo{
		Ticker:    strings.ToUpper(strings.TrimSpace(ticker)),
		LongName:  optString(resp.General.Name),
		ShortName: optString(resp.General.Code),
		Country:   optString(resp.General.CountryName),
		Sector:    optString(resp.General.Sector),
		Industry:  optString(resp.General.Industry),
		Exchange:  optString(resp.General.Exchange),
		Currency:  optString(resp.General.CurrencyCode),

		MarketCap:       optFloat(resp.Highlights.MarketCapitalization),
		TotalRevenue:    optFloat(resp.Highlights.RevenueTTM),
		TrailingPE:      optFloat(resp.Valuation.TrailingPE),
		PriceToBook:     optFloat(resp.Valuation.PriceBookMRQ),
		ReturnOnEquity:  optFloat(resp.Highlights.ReturnOnEquityTTM),
		OperatingMargin: optFloat(resp.Highlights.OperatingMarginTTM),
		ProfitMargin:    optFloat(resp.Highlights.ProfitMargin),
	}
	if info.TrailingPE == nil {
		info.TrailingPE = optFloat(resp.Highlights.PERatio)
	}

	// Derived only when both inputs are present: gross margin and net income
	// are ratios of values EODHD reports on a trailing-twelve-month basis.
	hl := resp.Highlights
	if hl.GrossProfitTTM.Valid && hl.RevenueTTM.Valid && hl.RevenueTTM.Value != 0 {
		v := hl.GrossProfitTTM.Value / hl.RevenueTTM.Value
		info.GrossMargin = &v
	}
	if hl.ProfitMargin.Valid && hl.RevenueTTM.Valid {
		v := hl.ProfitMargin.Value * hl.RevenueTTM.Value
		info.NetIncome = &v
	}

	return info, nil
}

// fundamentalsResponse represents the API response structure. nullFloat64
// fields distinguish a missing value from a reported zero.
type fundamentalsResponse struct {
	General struct {
		Code         string `json:"Code"`
		Name         string `json:"Name"`
		Exchange     string `json:"Exchange"`
		CurrencyCode string `json:"CurrencyCode"`
		CountryName  string `json:"CountryName"`
		Sector       string `json:"Sector"`
		Industry     string `json:"Industry"`
	} `json:"General"`
	Highlights struct {
		MarketCapitalization nullFloat64 `json:"MarketCapitalization"`
		PERatio              nullFloat64 `json:"PERatio"`
		RevenueTTM           nullFloat64 `json:"RevenueTTM"`
		GrossProfitTTM       nullFloat64 `json:"GrossProfitTTM"`
		ProfitMargin         nullFloat64 `json:"ProfitMargin"`
		OperatingMarginTTM   nullFloat64 `json:"OperatingMarginTTM"`
		ReturnOnEquityTTM    nullFloat64 `json:"ReturnOnEquityTTM"`
	} `json:"Highlights"`
	Valuation struct {
		TrailingPE   nullFloat64 `json:"TrailingPE"`
		PriceBookMRQ nullFloat64 `json:"PriceBookMRQ"`
	} `json:"Valuation"`
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return nil
	}
	return &s
}

func optFloat(f nullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
