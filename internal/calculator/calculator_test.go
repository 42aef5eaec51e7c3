package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockForecast/internal/model"
)

func closesToQuotes(closes ...float64) []model.Quote {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Quote, len(closes))
	for i, c := range closes {
		out[i] = model.Quote{Date: start.AddDate(0, 0, i), Close: decimal.NewFromFloat(c)}
	}
	return out
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		period  int
		want    float64
		wantErr bool
	}{
		{"last three", []float64{1, 2, 3, 4, 5}, 3, 4, false},
		{"whole series", []float64{2, 4}, 2, 3, false},
		{"too short", []float64{1}, 2, 0, true},
		{"zero period", []float64{1, 2}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateSMA(tt.prices, tt.period)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateMA200(t *testing.T) {
	ma, err := CalculateMA200(closesToQuotes(ramp(250)...))
	if err != nil {
		t.Fatal(err)
	}
	// mean of 51..250
	if ma != 150.5 {
		t.Errorf("MA200 = %v, want 150.5", ma)
	}
	if _, err := CalculateMA200(closesToQuotes(ramp(10)...)); err == nil {
		t.Error("expected error with 10 quotes")
	}
}

func TestRollingSMA(t *testing.T) {
	got := RollingSMA([]float64{1, 2, 3, 4}, 2)
	want := []float64{0, 1.5, 2.5, 3.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RollingSMA = %v, want %v", got, want)
		}
	}
}

func TestRSI(t *testing.T) {
	up, err := RSI(ramp(30), 14)
	if err != nil || up != 100 {
		t.Errorf("monotonic rise RSI = %v, %v; want 100", up, err)
	}
	short, _ := RSI(ramp(5), 14)
	if short != 50 {
		t.Errorf("short series RSI = %v, want 50", short)
	}
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 + 5*math.Sin(float64(i))
	}
	mixed, err := CalculateRSI(closesToQuotes(prices...), 14)
	if err != nil || mixed <= 0 || mixed >= 100 {
		t.Errorf("mixed RSI = %v, %v", mixed, err)
	}
}

func TestCalculate52WeekRange(t *testing.T) {
	closes := ramp(300)
	closes[10] = 9999 // outside the window
	h, l, err := Calculate52WeekRange(closesToQuotes(closes...))
	if err != nil {
		t.Fatal(err)
	}
	if h != 300 || l != 49 {
		t.Errorf("range = %v..%v, want 49..300", l, h)
	}
	if _, _, err := Calculate52WeekRange(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestCalculate52WeekPosition(t *testing.T) {
	tests := []struct {
		cur, high, low, want float64
	}{
		{150, 200, 100, 0.5},
		{250, 200, 100, 1},
		{50, 200, 100, 0},
		{7, 7, 7, 0.5},
	}
	for _, tt := range tests {
		got, err := Calculate52WeekPosition(tt.cur, tt.high, tt.low)
		if err != nil || got != tt.want {
			t.Errorf("position(%v,%v,%v) = %v, %v; want %v", tt.cur, tt.high, tt.low, got, err, tt.want)
		}
	}
	if _, err := Calculate52WeekPosition(1, 1, 2); err == nil {
		t.Error("expected error when high < low")
	}
}

func TestSummarize(t *testing.T) {
	qs := closesToQuotes(100, 110)
	fc := &model.Forecast{Points: []model.ForecastPoint{{Yhat: 121}}}
	s := Summarize("INFY.BO", "Infosys Limited", qs, fc)
	if s.Rows != 2 || s.LastClose != 110 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.MA200 != 110 || s.RSI14 != 50 {
		t.Errorf("fallbacks not applied: MA200 %v RSI %v", s.MA200, s.RSI14)
	}
	if math.Abs(s.ChangePct-10) > 1e-9 {
		t.Errorf("ChangePct = %v, want 10", s.ChangePct)
	}
	if s.Position52w != 1 {
		t.Errorf("Position52w = %v, want 1", s.Position52w)
	}
}
