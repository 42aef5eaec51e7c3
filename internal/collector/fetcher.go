package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"StockForecast/internal/httputil"
)

// Source names accepted by NewFetcher.
const (
	SourceYahoo = "yahoo"
	SourceChart = "chart"
	SourceAuto  = "auto"
	SourceMock  = "mock"
)

// Fetcher retrieves the raw daily history table for a symbol. The body is
// the comma-separated table the quotes parser understands.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string) ([]byte, error)
	Name() string
}

// NewFetcher builds the fetcher for a configured data source.
func NewFetcher(source, baseURL, proxyURL string, retry httputil.RetryConfig) (Fetcher, error) {
	switch strings.ToLower(source) {
	case SourceYahoo, "":
		return NewYahooFetcher(baseURL, proxyURL, retry), nil
	case SourceChart:
		return NewChartFetcher(baseURL, proxyURL, retry), nil
	case SourceAuto:
		return &FallbackFetcher{Fetchers: []Fetcher{
			NewYahooFetcher(baseURL, proxyURL, retry),
			NewChartFetcher(baseURL, proxyURL, retry),
		}}, nil
	case SourceMock:
		return &MockFetcher{}, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", source)
	}
}

// FallbackFetcher tries each fetcher in order and returns the first body.
type FallbackFetcher struct {
	Fetchers []Fetcher
}

func (f *FallbackFetcher) Name() string {
	names := make([]string, len(f.Fetchers))
	for i, x := range f.Fetchers {
		names[i] = x.Name()
	}
	return strings.Join(names, "|")
}

func (f *FallbackFetcher) FetchHistory(ctx context.Context, symbol string) ([]byte, error) {
	var errs []error
	for _, x := range f.Fetchers {
		body, err := x.FetchHistory(ctx, symbol)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("history source failed, trying next", "source", x.Name(), "symbol", symbol, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no history sources configured")
	}
	return nil, errors.Join(errs...)
}
