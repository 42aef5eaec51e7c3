package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"StockForecast/internal/calculator"
	"StockForecast/internal/collector"
	"StockForecast/internal/directory"
	"StockForecast/internal/forecast"
	"StockForecast/internal/model"
	"StockForecast/internal/quotes"
	"StockForecast/internal/recorder"
	"StockForecast/internal/render"
)

// Result is everything produced for one symbol.
type Result struct {
	Symbol   string
	Name     string
	Quotes   []model.Quote
	Forecast *model.Forecast
	Chart    *model.ChartArtifact
	Summary  model.Summary
}

// Pipeline runs fetch -> parse -> forecast -> render for a symbol.
type Pipeline struct {
	Directory *directory.Directory
	Fetcher   collector.Fetcher
	Renderer  *render.Renderer
	Recorder  recorder.Recorder
	Horizon   int
	Options   forecast.Options
	Trigger   string // journal tag, e.g. "gui"
}

// New wires a pipeline with the default horizon and model options.
func New(dir *directory.Directory, f collector.Fetcher, r *render.Renderer, rec recorder.Recorder) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{
		Directory: dir,
		Fetcher:   f,
		Renderer:  r,
		Recorder:  rec,
		Horizon:   forecast.DefaultHorizon,
		Options:   forecast.DefaultOptions(),
	}
}

// WithTrigger returns a shallow copy journalling under trigger.
func (p *Pipeline) WithTrigger(trigger string) *Pipeline {
	cp := *p
	cp.Trigger = trigger
	return &cp
}

// Run fetches the full history of symbol and produces its chart.
func (p *Pipeline) Run(ctx context.Context, symbol string) (*Result, error) {
	start := time.Now()
	if _, err := p.Directory.Name(symbol); err != nil {
		return nil, err
	}

	body, err := p.Fetcher.FetchHistory(ctx, symbol)
	if err != nil {
		err = fmt.Errorf("fetch %s: %w", symbol, err)
		p.journal(symbol, nil, start, err)
		return nil, err
	}
	return p.process(symbol, body, start)
}

// Process turns an already fetched history body into a chart.
func (p *Pipeline) Process(symbol string, body []byte) (*Result, error) {
	return p.process(symbol, body, time.Now())
}

func (p *Pipeline) process(symbol string, body []byte, start time.Time) (*Result, error) {
	res, err := p.build(symbol, body)
	p.journal(symbol, res, start, err)
	if err != nil {
		return nil, err
	}
	slog.Info("forecast ready",
		"symbol", symbol,
		"rows", len(res.Quotes),
		"artifact", res.Chart.ID,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

func (p *Pipeline) build(symbol string, body []byte) (*Result, error) {
	name, err := p.Directory.Name(symbol)
	if err != nil {
		return nil, err
	}

	qs, err := quotes.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", symbol, err)
	}

	horizon := p.Horizon
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	fc, err := forecast.Run(symbol, qs, horizon, p.Options)
	if err != nil {
		return &Result{Symbol: symbol, Name: name, Quotes: qs}, fmt.Errorf("forecast %s: %w", symbol, err)
	}

	chart, err := p.Renderer.Render(symbol, qs, fc)
	if err != nil {
		return &Result{Symbol: symbol, Name: name, Quotes: qs, Forecast: fc}, fmt.Errorf("render %s: %w", symbol, err)
	}

	return &Result{
		Symbol:   symbol,
		Name:     name,
		Quotes:   qs,
		Forecast: fc,
		Chart:    chart,
		Summary:  calculator.Summarize(symbol, name, qs, fc),
	}, nil
}

// journal writes the run outcome; failures are only logged.
func (p *Pipeline) journal(symbol string, res *Result, start time.Time, runErr error) {
	if p.Recorder == nil {
		return
	}
	run := &recorder.Run{
		Symbol:   symbol,
		Source:   p.Fetcher.Name(),
		Trigger:  p.Trigger,
		Status:   recorder.StatusOK,
		Duration: time.Since(start),
	}
	if runErr != nil {
		run.Status = recorder.StatusFailed
		run.Error = runErr.Error()
	}
	if res != nil {
		run.Rows = len(res.Quotes)
		if n := len(res.Quotes); n > 0 {
			run.FirstDate = res.Quotes[0].Date
			run.LastDate = res.Quotes[n-1].Date
			run.LastClose = res.Quotes[n-1].ClosePrice()
		}
		if end, ok := res.Forecast.Last(); ok {
			run.ForecastEnd, run.LowerEnd, run.UpperEnd = end.Yhat, end.Lower, end.Upper
		}
		if res.Chart != nil {
			run.ArtifactID = res.Chart.ID
		}
	}
	if err := p.Recorder.RecordRun(run); err != nil {
		slog.Warn("journal write failed", "symbol", symbol, "err", err)
	}
}
