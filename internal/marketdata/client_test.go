package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetEOD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/AAPL.US", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Equal(t, "d", r.URL.Query().Get("period"))
		assert.Equal(t, "a", r.URL.Query().Get("order"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2025-01-02","open":100.0,"high":102.0,"low":99.0,"close":101.0,"adjusted_close":101.0,"volume":5000000},
			{"date":"2025-01-03","open":101.0,"high":103.0,"low":100.5,"close":102.5,"adjusted_close":102.5,"volume":4800000}
		]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	result, err := client.GetEOD(context.Background(), "AAPL.US")
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "2025-01-02", result[0].Date.Format("2006-01-02"))
	assert.Equal(t, 101.0, result[0].Close)
	assert.Equal(t, int64(5000000), result[0].Volume)
	assert.Equal(t, 102.5, result[1].Close)
}

func TestClient_GetFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fundamentals/MSFT.US", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"General": {"Code":"MSFT","Name":"Microsoft Corporation","Sector":"Technology"},
			"Highlights": {"MarketCapitalization":3000000000000,"PERatio":35.0,"EarningsShare":11.5,"ProfitMargin":0.36},
			"Technicals": {"Beta":0.9,"52WeekHigh":450.0,"52WeekLow":310.0}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	result, err := client.GetFundamentals(context.Background(), "MSFT.US")
	require.NoError(t, err)
	require.NotNil(t, result.General)
	require.NotNil(t, result.Highlights)
	require.NotNil(t, result.Technicals)

	assert.Equal(t, "Microsoft Corporation", result.General.Name)
	assert.Equal(t, 35.0, result.Highlights.PERatio)
	assert.Equal(t, 450.0, result.Technicals.High52Week)
	assert.Nil(t, result.SplitsDividends)
}

func TestClient_RateLimitResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.GetEOD(context.Background(), "AAPL.US")
	require.Error(t, err)

	var rateLimitErr *RateLimitError
	assert.ErrorAs(t, err, &rateLimitErr)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("invalid token"))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.GetFundamentals(context.Background(), "AAPL.US")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "invalid token")
}

func TestProvider_GetFundamentals_MapsFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"General": {"Code":"AAPL","Name":"Apple Inc","Sector":"Technology"},
			"Highlights": {"MarketCapitalization":2800000000000,"PERatio":30.0,"EarningsShare":6.0,"QuarterlyRevenueGrowthYOY":0.08},
			"Technicals": {"Beta":1.2,"52WeekHigh":200.0,"52WeekLow":150.0},
			"SplitsDividends": {"ForwardAnnualDividendYield":0.005}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	provider := NewProviderWithClient(client, nil)

	f, err := provider.GetFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", f.Ticker)
	assert.Equal(t, "Apple Inc", f.Name)
	assert.Equal(t, "eodhd", f.Source)
	assert.Equal(t, 2800000000000.0, f.MarketCap)
	assert.InDelta(t, 180.0, f.Price, 0.001) // EPS 6.0 * PE 30.0
	assert.Equal(t, 0.005, f.DividendYield)  // fallback from SplitsDividends
	assert.False(t, f.IsZero())
}

func TestProvider_GetPriceHistory_ReturnsPopulated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2025-01-10", r.URL.Query().Get("to"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2025-01-02","open":100,"high":101,"low":99,"close":100,"volume":1000},
			{"date":"2025-01-03","open":100,"high":103,"low":100,"close":102,"volume":1100},
			{"date":"2025-01-06","open":102,"high":102,"low":99,"close":99.96,"volume":900}
		]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	provider := NewProviderWithClient(client, nil)

	bars, err := provider.GetPriceHistory(context.Background(), "AAPL", "2025-01-01", "2025-01-10")
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, 0.0, bars[0].Return)
	assert.InDelta(t, 0.02, bars[1].Return, 1e-9)
	assert.InDelta(t, -0.02, bars[2].Return, 1e-9)
}

func TestProvider_GetPriceHistory_InvalidDates(t *testing.T) {
	client := NewClient("test-key")
	provider := NewProviderWithClient(client, nil)

	_, err := provider.GetPriceHistory(context.Background(), "AAPL", "not-a-date", "2025-01-10")
	assert.Error(t, err)

	_, err = provider.GetPriceHistory(context.Background(), "AAPL", "2025-01-01", "bad")
	assert.Error(t, err)
}
