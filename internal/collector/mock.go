package collector

import (
	"context"
	"math"
	"sync"
	"time"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Body  []byte        // returned verbatim when set
	Err   error         // returned when set
	Price float64       // base price for generated bars
	Days  int           // generated bar count, default 730
	Delay time.Duration // simulated latency, honours ctx

	mu    sync.Mutex
	calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, symbol string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Body != nil {
		return m.Body, nil
	}
	days := m.Days
	if days <= 0 {
		days = 730
	}
	price := m.Price
	if price <= 0 {
		price = 1000
	}
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	return GenerateHistory(price, days, end), nil
}

// Calls returns the symbols requested so far.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// GenerateHistory builds a deterministic trending, seasonal table of count
// trading days (Monday to Friday) ending at the last weekday on or before end.
func GenerateHistory(basePrice float64, count int, end time.Time) []byte {
	if count < 0 {
		count = 0
	}
	days := make([]time.Time, 0, count)
	for d := end; len(days) < count; d = d.AddDate(0, 0, -1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}

	rows := make([]chartRow, count)
	for i := 0; i < count; i++ {
		day := days[count-1-i]
		p := basePrice * (1 + float64(i)*0.0005 + 0.03*math.Sin(2*math.Pi*float64(day.YearDay())/365.25))
		rows[i] = chartRow{
			day:    day,
			open:   p * 0.999,
			high:   p * 1.005,
			low:    p * 0.995,
			close:  p,
			adjc:   p,
			volume: 1000000,
		}
	}
	return encodeRows(rows)
}
