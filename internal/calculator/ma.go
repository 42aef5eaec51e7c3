package calculator

import (
	"errors"

	"StockForecast/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateMA200 returns the 200-session simple moving average of closes.
func CalculateMA200(quotes []model.Quote) (float64, error) {
	return CalculateSMA(model.Closes(quotes), 200)
}

// RollingSMA returns the moving average at every index; entries before the
// window fills are zero.
func RollingSMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}
