package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is one entry of the symbol directory.
type Company struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// Quote is a single daily closing price.
type Quote struct {
	Date  time.Time
	Close decimal.Decimal
}

// ClosePrice returns the close as a float for numeric work.
func (q Quote) ClosePrice() float64 {
	return q.Close.InexactFloat64()
}

// PriceSeries holds the parsed history for one symbol.
type PriceSeries struct {
	Symbol    string
	Source    string
	Quotes    []Quote
	FetchedAt time.Time
}

// Closes extracts closing prices in series order.
func Closes(quotes []Quote) []float64 {
	out := make([]float64, len(quotes))
	for i, q := range quotes {
		out[i] = q.ClosePrice()
	}
	return out
}
