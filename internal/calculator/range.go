package calculator

import (
	"errors"
	"math"

	"StockForecast/internal/model"
)

// TradingDaysPerYear is the session count used for 52-week figures.
const TradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 closes and returns the high and low.
func Calculate52WeekRange(quotes []model.Quote) (high, low float64, err error) {
	return closeRange(quotes, TradingDaysPerYear)
}

func closeRange(quotes []model.Quote, window int) (high, low float64, err error) {
	if len(quotes) == 0 {
		return 0, 0, errors.New("no quotes provided")
	}
	n := len(quotes)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		c := quotes[i].ClosePrice()
		high = math.Max(high, c)
		low = math.Min(low, c)
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
