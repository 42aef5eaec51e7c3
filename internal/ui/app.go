package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"StockForecast/internal/collector"
	"StockForecast/internal/directory"
	"StockForecast/internal/model"
	"StockForecast/internal/pipeline"
)

// Shell is the single-window search, load and chart interface.
type Shell struct {
	Directory *directory.Directory
	Loader    *collector.Loader
	Pipeline  *pipeline.Pipeline
	MaxCharts int // 0 keeps every chart

	entry        *widget.Entry
	searchButton *widget.Button
	results      *widget.List
	loadButton   *widget.Button
	status       *widget.Label
	charts       *fyne.Container

	labels   []string
	selected int
}

// NewShell builds the widgets; call Content to lay them out.
func NewShell(dir *directory.Directory, loader *collector.Loader, p *pipeline.Pipeline, maxCharts int) *Shell {
	s := &Shell{
		Directory: dir,
		Loader:    loader,
		Pipeline:  p,
		MaxCharts: maxCharts,
		selected:  -1,
	}

	s.entry = widget.NewEntry()
	s.entry.SetPlaceHolder("e.g. Tata")
	s.entry.OnSubmitted = func(string) { s.Search() }
	s.searchButton = widget.NewButton("Search", s.Search)

	s.results = widget.NewList(
		func() int { return len(s.labels) },
		func() fyne.CanvasObject { return widget.NewLabel("SYMBOL: Company name") },
		func(id widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(s.labels[id]) },
	)
	s.results.OnSelected = func(id widget.ListItemID) { s.selected = id }
	s.results.OnUnselected = func(widget.ListItemID) { s.selected = -1 }

	s.loadButton = widget.NewButton("Load Historical Data and Forecast", s.Load)
	s.status = widget.NewLabel("")
	s.status.Wrapping = fyne.TextWrapWord
	s.charts = container.NewVBox()
	return s
}

// Content returns the window layout.
func (s *Shell) Content() fyne.CanvasObject {
	top := container.NewVBox(
		widget.NewLabel("Enter company name:"),
		s.entry,
		s.searchButton,
	)
	list := container.NewGridWrap(fyne.NewSize(480, 140), s.results)
	controls := container.NewVBox(
		top,
		list,
		widget.NewLabel("Select date range:"),
		s.loadButton,
		s.status,
	)
	return container.NewBorder(controls, nil, nil, nil, container.NewVScroll(s.charts))
}

// Search replaces the result list with the directory matches for the entry text.
func (s *Shell) Search() {
	matches := s.Directory.Search(s.entry.Text)
	s.labels = directory.Labels(matches)
	s.selected = -1
	s.results.UnselectAll()
	s.results.Refresh()
	if len(matches) == 0 {
		s.status.SetText(fmt.Sprintf("No companies match %q", s.entry.Text))
		return
	}
	s.status.SetText("")
}

// Load fetches and forecasts the selected symbol. Without a selection it
// does nothing.
func (s *Shell) Load() {
	if s.selected < 0 || s.selected >= len(s.labels) {
		return
	}
	symbol := directory.SymbolFromLabel(s.labels[s.selected])
	s.status.SetText("Loading " + symbol + "…")

	s.Loader.Load(symbol,
		func(id collector.LoadID, body []byte) {
			res, err := s.Pipeline.Process(symbol, body)
			fyne.Do(func() { s.publish(id, symbol, res, err) })
		},
		func(id collector.LoadID, err error) {
			fyne.Do(func() { s.publish(id, symbol, nil, err) })
		},
	)
}

// publish shows a load outcome unless a newer load has started since.
// Must run on the UI goroutine.
func (s *Shell) publish(id collector.LoadID, symbol string, res *pipeline.Result, err error) {
	if !s.Loader.Current(id) {
		slog.Debug("discarding superseded result", "symbol", symbol)
		return
	}
	if err != nil {
		s.showError(symbol, err)
		return
	}
	s.addChart(res.Chart)
	s.status.SetText(fmt.Sprintf("%s: %d quotes, forecast to %s",
		symbol, len(res.Quotes), res.Summary.ForecastEnd.Date.Format("2006-01-02")))
}

// ChartCount reports how many charts are displayed.
func (s *Shell) ChartCount() int {
	return len(s.charts.Objects)
}

// Labels returns the current search results.
func (s *Shell) Labels() []string {
	return append([]string(nil), s.labels...)
}

func (s *Shell) addChart(art *model.ChartArtifact) {
	img := canvas.NewImageFromResource(fyne.NewStaticResource(art.ID+".png", art.PNG))
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(float32(art.Width)*0.8, float32(art.Height)*0.8))
	s.charts.Add(img)

	for s.MaxCharts > 0 && len(s.charts.Objects) > s.MaxCharts {
		s.charts.Remove(s.charts.Objects[0])
	}
}

func (s *Shell) showError(symbol string, err error) {
	slog.Error("load failed", "symbol", symbol, "err", err)
	s.status.SetText(fmt.Sprintf("Error loading %s: %v", symbol, err))
}

// Run opens the main window and blocks until it is closed.
func Run(a fyne.App, title string, s *Shell) {
	w := a.NewWindow(title)
	w.SetContent(s.Content())
	w.Resize(fyne.NewSize(1000, 800))
	w.SetOnClosed(s.Loader.Cancel)
	w.ShowAndRun()
}
