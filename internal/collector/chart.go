package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockForecast/internal/httputil"
)

// csvHeader is the column layout of the history download.
const csvHeader = "Date,Open,High,Low,Close,Adj Close,Volume"

// ChartFetcher reads the v8 chart JSON API and transcodes it into the
// history table so both sources share one parser.
type ChartFetcher struct {
	BaseURL string
	Client  *http.Client
	Retry   httputil.RetryConfig
}

// NewChartFetcher creates a chart API fetcher with optional proxy support.
func NewChartFetcher(baseURL, proxyURL string, retry httputil.RetryConfig) *ChartFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &ChartFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  httputil.NewClient(30*time.Second, proxyURL),
		Retry:   retry,
	}
}

func (f *ChartFetcher) Name() string { return "yahoo-chart" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartRow struct {
	day                          time.Time
	open, high, low, close, adjc float64
	volume                       float64
}

func (f *ChartFetcher) FetchHistory(ctx context.Context, symbol string) ([]byte, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=max&events=history",
		f.BaseURL, url.PathEscape(symbol))
	body, err := get(ctx, f.Client, f.Retry, u, "yahoo chart")
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo chart decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo chart: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart: no quote indicators")
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}
	offset := time.Duration(result.Meta.GMTOffset) * time.Second

	rows := make([]chartRow, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue // null bar
		}
		local := time.Unix(ts, 0).UTC().Add(offset)
		r := chartRow{
			day:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			close: *c,
			open:  orZero(at(quote.Open, i)),
			high:  orZero(at(quote.High, i)),
			low:   orZero(at(quote.Low, i)),
			adjc:  *c,
		}
		if a := at(adj, i); a != nil {
			r.adjc = *a
		}
		r.volume = orZero(at(quote.Volume, i))
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].day.Before(rows[j].day) })
	return encodeRows(rows), nil
}

func encodeRows(rows []chartRow) []byte {
	var b bytes.Buffer
	b.WriteString(csvHeader)
	b.WriteByte('\n')
	for _, r := range rows {
		fields := []string{
			r.day.Format("2006-01-02"),
			fmtPrice(r.open), fmtPrice(r.high), fmtPrice(r.low),
			fmtPrice(r.close), fmtPrice(r.adjc),
			strconv.FormatFloat(r.volume, 'f', 0, 64),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func fmtPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
