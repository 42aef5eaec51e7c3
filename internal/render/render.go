package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"StockForecast/internal/directory"
	"StockForecast/internal/model"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
	dpi           = 96
)

var (
	actualColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	forecastColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	bandColor     = color.NRGBA{R: 128, G: 128, B: 128, A: 77}
)

// Renderer draws actual-vs-forecast charts.
type Renderer struct {
	Directory *directory.Directory
	Width     int
	Height    int
	Now       func() time.Time
}

// New returns a Renderer with the default canvas size.
func New(dir *directory.Directory) *Renderer {
	return &Renderer{Directory: dir, Width: DefaultWidth, Height: DefaultHeight}
}

// Title is the chart heading for a company name.
func Title(name string) string {
	return "Stock Price Forecast for " + name
}

// Render plots the quotes and forecast for symbol into a PNG. The symbol
// must be in the directory.
func (r *Renderer) Render(symbol string, quotes []model.Quote, fc *model.Forecast) (*model.ChartArtifact, error) {
	name, err := r.Directory.Name(symbol)
	if err != nil {
		return nil, err
	}
	if fc == nil || len(fc.Points) == 0 {
		return nil, fmt.Errorf("render %s: empty forecast", symbol)
	}

	p := plot.New()
	p.Title.Text = Title(name)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())

	band, err := plotter.NewPolygon(bandOutline(fc.Points))
	if err != nil {
		return nil, fmt.Errorf("render %s: band: %w", symbol, err)
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	p.Add(band)

	actual, err := plotter.NewLine(actualXYs(quotes))
	if err != nil {
		return nil, fmt.Errorf("render %s: actual: %w", symbol, err)
	}
	actual.LineStyle.Width = vg.Points(1.2)
	actual.LineStyle.Color = actualColor
	p.Add(actual)

	predicted, err := plotter.NewLine(forecastXYs(fc.Points))
	if err != nil {
		return nil, fmt.Errorf("render %s: forecast: %w", symbol, err)
	}
	predicted.LineStyle.Width = vg.Points(1.2)
	predicted.LineStyle.Color = forecastColor
	predicted.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(predicted)

	p.Legend.Add("Actual", actual)
	p.Legend.Add("Forecast", predicted)
	p.Legend.Add("Uncertainty", band)
	p.Legend.Top = true
	p.Legend.Left = true

	w, h := r.size()
	wt, err := p.WriterTo(pixels(w), pixels(h), "png")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", symbol, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render %s: encode png: %w", symbol, err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return &model.ChartArtifact{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Title:     p.Title.Text,
		PNG:       buf.Bytes(),
		Width:     w,
		Height:    h,
		CreatedAt: now(),
	}, nil
}

func (r *Renderer) size() (int, int) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / dpi
}

func unix(t time.Time) float64 { return float64(t.Unix()) }

func actualXYs(quotes []model.Quote) plotter.XYs {
	xys := make(plotter.XYs, len(quotes))
	for i, q := range quotes {
		xys[i].X = unix(q.Date)
		xys[i].Y = q.ClosePrice()
	}
	return xys
}

func forecastXYs(points []model.ForecastPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = unix(pt.Date)
		xys[i].Y = pt.Yhat
	}
	return xys
}

// bandOutline walks the upper bound forwards and the lower bound back.
func bandOutline(points []model.ForecastPoint) plotter.XYs {
	n := len(points)
	xys := make(plotter.XYs, 2*n)
	for i, pt := range points {
		xys[i] = plotter.XY{X: unix(pt.Date), Y: pt.Upper}
		xys[2*n-1-i] = plotter.XY{X: unix(pt.Date), Y: pt.Lower}
	}
	return xys
}
