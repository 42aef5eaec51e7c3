package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockForecast/internal/httputil"
)

// DefaultYahooBaseURL is the public quote host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

const userAgent = "Mozilla/5.0"

// YahooFetcher downloads the full daily history CSV.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	Retry   httputil.RetryConfig
}

// NewYahooFetcher creates a CSV download fetcher with optional proxy support.
func NewYahooFetcher(baseURL, proxyURL string, retry httputil.RetryConfig) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  httputil.NewClient(30*time.Second, proxyURL),
		Retry:   retry,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo-download" }

// HistoryURL builds the full-range daily history download URL.
func (f *YahooFetcher) HistoryURL(symbol string) string {
	return fmt.Sprintf("%s/v7/finance/download/%s?period1=0&period2=9999999999&interval=1d&events=history",
		f.BaseURL, url.PathEscape(symbol))
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string) ([]byte, error) {
	return get(ctx, f.Client, f.Retry, f.HistoryURL(symbol), "yahoo")
}

func get(ctx context.Context, client *http.Client, retry httputil.RetryConfig, u, source string) ([]byte, error) {
	resp, err := httputil.Do(ctx, client, retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", source, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d, body: %s", source, resp.StatusCode, excerpt(body))
	}
	return body, nil
}

func excerpt(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
