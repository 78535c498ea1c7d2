package eodhd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/interfaces"
)

func TestGetEOD_ParsesBars(t *testing.T) {
	var capturedPath string
	var capturedQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2024-03-28", "open": 171.0, "high": 172.5, "low": 170.1, "close": "171.48", "adjusted_close": 171.48, "volume": 65672700},
			{"date": "2024-03-27", "open": 170.4, "high": 173.6, "low": 170.1, "close": 173.31, "adjusted_close": 173.31, "volume": 60273300},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	eod, err := client.GetEOD(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}

	if capturedPath != "/eod/AAPL.US" {
		t.Errorf("expected path /eod/AAPL.US, got %s", capturedPath)
	}
	if got := capturedQuery["api_token"]; len(got) != 1 || got[0] != "test-key" {
		t.Errorf("expected api_token test-key, got %v", got)
	}
	if got := capturedQuery["order"]; len(got) != 1 || got[0] != "d" {
		t.Errorf("expected descending order, got %v", got)
	}
	if len(eod.Data) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(eod.Data))
	}
	if eod.Data[0].Close != 171.48 {
		t.Errorf("expected string close to parse as 171.48, got %.2f", eod.Data[0].Close)
	}
	if eod.Data[1].Volume != 60273300 {
		t.Errorf("expected volume 60273300, got %d", eod.Data[1].Volume)
	}
}

func TestGetEOD_DailyDateRange(t *testing.T) {
	var capturedQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	client := NewClient("k", WithBaseURL(srv.URL))
	eod, err := client.GetEOD(context.Background(), "MSFT", interfaces.WithDateRange(from, to))
	if err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}
	if len(eod.Data) != 0 {
		t.Errorf("expected no bars, got %d", len(eod.Data))
	}

	want := map[string]string{"period": "d", "from": "2024-01-01", "to": "2024-03-31"}
	for k, v := range want {
		if got := capturedQuery[k]; len(got) != 1 || got[0] != v {
			t.Errorf("expected %s=%s, got %v", k, v, got)
		}
	}
}

func TestGetEOD_KeepsExchangeSuffix(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithDefaultExchange("AU"))
	if _, err := client.GetEOD(context.Background(), "BHP.AU"); err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}
	if capturedPath != "/eod/BHP.AU" {
		t.Errorf("expected path /eod/BHP.AU, got %s", capturedPath)
	}

	if _, err := client.GetEOD(context.Background(), "CBA"); err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}
	if capturedPath != "/eod/CBA.AU" {
		t.Errorf("expected default exchange applied, got %s", capturedPath)
	}
}

func TestGetRecentClose_UsesLatestBarInWindow(t *testing.T) {
	var from, to string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from = r.URL.Query().Get("from")
		to = r.URL.Query().Get("to")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2024-03-26", "close": 169.71},
			{"date": "2024-03-28", "close": 171.48},
			{"date": "2024-03-27", "close": 173.31},
		})
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	client.now = func() time.Time { return time.Date(2024, 3, 29, 12, 0, 0, 0, time.UTC) }

	price, ok, err := client.GetRecentClose(context.Background(), "AAPL", 5*24*time.Hour)
	if err != nil {
		t.Fatalf("GetRecentClose failed: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if price != 171.48 {
		t.Errorf("expected latest close 171.48, got %.2f", price)
	}
	if from != "2024-03-24" || to != "2024-03-29" {
		t.Errorf("expected window 2024-03-24..2024-03-29, got %s..%s", from, to)
	}
}

func TestGetRecentClose_NoData(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "empty window", status: http.StatusOK, body: "[]"},
		{name: "zero close", status: http.StatusOK, body: `[{"date":"2024-03-28","close":0}]`},
		{name: "ticker not found", status: http.StatusNotFound, body: "Ticker Not Found."},
		{name: "server fault", status: http.StatusInternalServerError, body: "boom", wantErr: true},
		{name: "bad payload", status: http.StatusOK, body: "{not json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("k", WithBaseURL(srv.URL))
			price, ok, err := client.GetRecentClose(context.Background(), "ZZZZ", 5*24*time.Hour)
			if ok {
				t.Errorf("expected ok=false, got price %.2f", price)
			}
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestGet_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthenticated"))
	}))
	defer srv.Close()

	client := NewClient("bad", WithBaseURL(srv.URL))
	_, err := client.GetEOD(context.Background(), "AAPL")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/eod/AAPL.US" {
		t.Errorf("expected endpoint /eod/AAPL.US, got %s", apiErr.Endpoint)
	}
	if IsNotFound(err) {
		t.Error("401 must not be reported as not found")
	}
}

func TestGetTickerInfo_MapsFundamentals(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Write([]byte(`{
			"General": {"Code": "AAPL", "Name": "Apple Inc", "Exchange": "NASDAQ", "CurrencyCode": "USD",
				"CountryName": "USA", "Sector": "Technology", "Industry": "Consumer Electronics"},
			"Highlights": {"MarketCapitalization": 2650000000000, "PERatio": "26.9", "RevenueTTM": 400000000000,
				"GrossProfitTTM": 180000000000, "ProfitMargin": 0.25, "OperatingMarginTTM": 0.3,
				"ReturnOnEquityTTM": null},
			"Valuation": {"TrailingPE": 27.1}
		}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	info, err := client.GetTickerInfo(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetTickerInfo failed: %v", err)
	}

	if capturedPath != "/fundamentals/AAPL.US" {
		t.Errorf("expected path /fundamentals/AAPL.US, got %s", capturedPath)
	}
	if info.Ticker != "AAPL" {
		t.Errorf("expected ticker AAPL, got %s", info.Ticker)
	}
	if info.Name() != "Apple Inc" {
		t.Errorf("expected name Apple Inc, got %s", info.Name())
	}
	if info.Sector == nil || *info.Sector != "Technology" {
		t.Errorf("expected sector Technology, got %v", info.Sector)
	}
	if info.TrailingPE == nil || *info.TrailingPE != 27.1 {
		t.Errorf("expected trailing PE 27.1 from valuation, got %v", info.TrailingPE)
	}
	if info.ReturnOnEquity != nil {
		t.Errorf("expected null ROE to stay absent, got %v", *info.ReturnOnEquity)
	}
	if info.PriceToBook != nil {
		t.Errorf("expected missing price/book to stay absent, got %v", *info.PriceToBook)
	}
	if info.GrossMargin == nil || *info.GrossMargin != 0.45 {
		t.Errorf("expected gross margin 0.45, got %v", info.GrossMargin)
	}
	if info.NetIncome == nil || *info.NetIncome != 100000000000 {
		t.Errorf("expected net income 1e11, got %v", info.NetIncome)
	}
}

func TestGetTickerInfo_NotAvailableStaysAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"General": {"Code": "ZZZZ", "Name": "N/A"},
			"Highlights": {"MarketCapitalization": "N/A", "PERatio": "N/A", "RevenueTTM": "N/A",
				"GrossProfitTTM": "", "ProfitMargin": "N/A", "OperatingMarginTTM": "none"},
			"Valuation": {"TrailingPE": "N/A", "PriceBookMRQ": ""}
		}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	info, err := client.GetTickerInfo(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("GetTickerInfo failed: %v", err)
	}

	fields := map[string]*float64{
		"MarketCap":       info.MarketCap,
		"TotalRevenue":    info.TotalRevenue,
		"NetIncome":       info.NetIncome,
		"TrailingPE":      info.TrailingPE,
		"PriceToBook":     info.PriceToBook,
		"GrossMargin":     info.GrossMargin,
		"OperatingMargin": info.OperatingMargin,
		"ProfitMargin":    info.ProfitMargin,
	}
	for name, v := range fields {
		if v != nil {
			t.Errorf("%s: expected absent, got %v", name, *v)
		}
	}
	if info.LongName != nil {
		t.Errorf("expected N/A name to stay absent, got %q", *info.LongName)
	}
}

func TestGetTickerInfo_ReportedZeroIsPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Highlights": {"ProfitMargin": 0, "RevenueTTM": "1000"}}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	info, err := client.GetTickerInfo(context.Background(), "X")
	if err != nil {
		t.Fatalf("GetTickerInfo failed: %v", err)
	}
	if info.ProfitMargin == nil || *info.ProfitMargin != 0 {
		t.Errorf("expected reported zero margin, got %v", info.ProfitMargin)
	}
	if info.NetIncome == nil || *info.NetIncome != 0 {
		t.Errorf("expected derived net income 0, got %v", info.NetIncome)
	}
	if info.GrossMargin != nil {
		t.Errorf("expected gross margin absent without gross profit, got %v", *info.GrossMargin)
	}
}

func TestNullFloat64(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{`12.5`, 12.5, true},
		{`"12.5"`, 12.5, true},
		{`0`, 0, true},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"N/A"`, 0, false},
		{`"abc"`, 0, false},
		{`"NaN"`, 0, false},
	}
	for _, tt := range tests {
		var n nullFloat64
		if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", tt.in, err)
		}
		if n.Valid != tt.valid || n.Value != tt.want {
			t.Errorf("Unmarshal(%s) = {%v %v}, want {%v %v}", tt.in, n.Value, n.Valid, tt.want, tt.valid)
		}
	}
}

func TestFlexFloat64(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"12.5"`, 12.5},
		{`""`, 0},
		{`"N/A"`, 0},
		{`"abc"`, 0},
	}
	for _, tt := range tests {
		var f flexFloat64
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Errorf("unmarshal %s: %v", tt.in, err)
			continue
		}
		if float64(f) != tt.want {
			t.Errorf("unmarshal %s = %v, want %v", tt.in, float64(f), tt.want)
		}
	}
}
