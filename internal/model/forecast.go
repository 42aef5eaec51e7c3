package model

import "time"

// ForecastPoint is the model output for one calendar day.
type ForecastPoint struct {
	Date  time.Time
	Yhat  float64
	Lower float64
	Upper float64
}

// Forecast is the full prediction over history plus the future horizon.
type Forecast struct {
	Symbol     string
	Points     []ForecastPoint
	HistoryLen int // distinct observed days
	Horizon    int // days predicted past the last observation
}

// Last returns the final point of the forecast horizon.
func (f *Forecast) Last() (ForecastPoint, bool) {
	if f == nil || len(f.Points) == 0 {
		return ForecastPoint{}, false
	}
	return f.Points[len(f.Points)-1], true
}

// At returns the point for the given calendar day, if present.
func (f *Forecast) At(day time.Time) (ForecastPoint, bool) {
	y, m, d := day.Date()
	for _, p := range f.Points {
		py, pm, pd := p.Date.Date()
		if py == y && pm == m && pd == d {
			return p, true
		}
	}
	return ForecastPoint{}, false
}

// ChartArtifact is a rendered forecast chart.
type ChartArtifact struct {
	ID        string
	Symbol    string
	Title     string
	PNG       []byte
	Width     int
	Height    int
	CreatedAt time.Time
}

// Summary holds descriptive figures reported next to a chart.
type Summary struct {
	Symbol      string
	Name        string
	Rows        int
	FirstDate   time.Time
	LastDate    time.Time
	LastClose   float64
	MA200       float64
	RSI14       float64
	High52w     float64
	Low52w      float64
	Position52w float64 // 0.0 ~ 1.0
	ForecastEnd ForecastPoint
	ChangePct   float64 // ForecastEnd.Yhat vs LastClose
}
