package calculator

import (
	"log/slog"

	"StockForecast/internal/model"
)

// Summarize computes the report figures for a parsed history and its
// forecast. Indicators that cannot be computed fall back to neutral values
// and are logged, never returned as errors.
func Summarize(symbol, name string, quotes []model.Quote, fc *model.Forecast) model.Summary {
	s := model.Summary{Symbol: symbol, Name: name, Rows: len(quotes)}
	if len(quotes) == 0 {
		return s
	}
	s.FirstDate = quotes[0].Date
	s.LastDate = quotes[len(quotes)-1].Date
	s.LastClose = quotes[len(quotes)-1].ClosePrice()

	if ma, err := CalculateMA200(quotes); err != nil {
		slog.Debug("MA200 unavailable, using last close", "symbol", symbol, "err", err)
		s.MA200 = s.LastClose
	} else {
		s.MA200 = ma
	}

	if rsi, err := CalculateRSI(quotes, 14); err != nil {
		s.RSI14 = 50
	} else {
		s.RSI14 = rsi
	}

	if h, l, err := Calculate52WeekRange(quotes); err != nil {
		s.High52w, s.Low52w = s.LastClose, s.LastClose
	} else {
		s.High52w, s.Low52w = h, l
	}
	if pos, err := Calculate52WeekPosition(s.LastClose, s.High52w, s.Low52w); err != nil {
		slog.Warn("52-week position failed", "symbol", symbol, "err", err)
		s.Position52w = 0.5
	} else {
		s.Position52w = pos
	}

	if end, ok := fc.Last(); ok {
		s.ForecastEnd = end
		if s.LastClose != 0 {
			s.ChangePct = (end.Yhat - s.LastClose) / s.LastClose * 100
		}
	}
	return s
}
