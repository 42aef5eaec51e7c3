package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"StockForecast/internal/collector"
	"StockForecast/internal/directory"
	"StockForecast/internal/pipeline"
	"StockForecast/internal/render"
)

func newShell(t *testing.T, f *collector.MockFetcher, maxCharts int) *Shell {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	dir, err := directory.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := render.New(dir)
	r.Width, r.Height = 320, 240
	p := pipeline.New(dir, f, r, nil)
	p.Horizon = 14
	s := NewShell(dir, collector.NewLoader(f), p, maxCharts)
	w := test.NewWindow(s.Content())
	t.Cleanup(w.Close)
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSearch(t *testing.T) {
	s := newShell(t, &collector.MockFetcher{}, 0)

	test.Type(s.entry, "tata")
	test.Tap(s.searchButton)
	if got := s.Labels(); len(got) != 1 || got[0] != "TCS.BO: Tata Consultancy Services Limited" {
		t.Errorf("labels = %v", got)
	}

	s.entry.SetText("")
	test.Tap(s.searchButton)
	if got := s.Labels(); len(got) != 3 {
		t.Errorf("empty query labels = %v", got)
	}

	s.entry.SetText("zzz")
	test.Tap(s.searchButton)
	if len(s.Labels()) != 0 || !strings.Contains(s.status.Text, "No companies") {
		t.Errorf("labels %v status %q", s.Labels(), s.status.Text)
	}
}

func TestLoadWithoutSelectionIsNoop(t *testing.T) {
	f := &collector.MockFetcher{}
	s := newShell(t, f, 0)
	test.Tap(s.searchButton)
	test.Tap(s.loadButton)
	s.Loader.Wait()
	if len(f.Calls()) != 0 {
		t.Errorf("fetch started without a selection: %v", f.Calls())
	}
}

func TestLoadAppendsChart(t *testing.T) {
	f := &collector.MockFetcher{Days: 60}
	s := newShell(t, f, 0)
	s.entry.SetText("infosys")
	test.Tap(s.searchButton)
	s.results.Select(0)
	test.Tap(s.loadButton)
	s.Loader.Wait()
	waitFor(t, func() bool { return s.ChartCount() == 1 })

	if calls := f.Calls(); len(calls) != 1 || calls[0] != "INFY.BO" {
		t.Errorf("fetched %v", calls)
	}

	test.Tap(s.loadButton)
	s.Loader.Wait()
	waitFor(t, func() bool { return s.ChartCount() == 2 })
}

func TestMaxChartsDropsOldest(t *testing.T) {
	s := newShell(t, &collector.MockFetcher{Days: 40}, 1)
	test.Tap(s.searchButton)
	s.results.Select(2)
	for i := 0; i < 2; i++ {
		test.Tap(s.loadButton)
		s.Loader.Wait()
	}
	waitFor(t, func() bool { return strings.Contains(s.status.Text, "RELIANCE.BO") })
	if s.ChartCount() != 1 {
		t.Errorf("charts = %d, want 1", s.ChartCount())
	}
}

func TestLoadErrorShowsStatus(t *testing.T) {
	s := newShell(t, &collector.MockFetcher{Err: errors.New("proxy refused")}, 0)
	test.Tap(s.searchButton)
	s.results.Select(1)
	test.Tap(s.loadButton)
	s.Loader.Wait()
	waitFor(t, func() bool { return strings.Contains(s.status.Text, "proxy refused") })
	if s.ChartCount() != 0 {
		t.Error("chart added despite error")
	}
}

func TestSupersededResultIsDiscarded(t *testing.T) {
	f := &collector.MockFetcher{Days: 40}
	s := newShell(t, f, 0)
	test.Tap(s.searchButton)
	s.results.Select(0)

	var stale collector.LoadID
	var staleRes *pipeline.Result
	s.Loader.Load("INFY.BO", func(id collector.LoadID, body []byte) {
		stale = id
		res, err := s.Pipeline.Process("INFY.BO", body)
		if err != nil {
			t.Errorf("Process: %v", err)
		}
		staleRes = res
	}, nil)
	s.Loader.Wait()

	test.Tap(s.loadButton)
	s.Loader.Wait()
	waitFor(t, func() bool { return s.ChartCount() == 1 })

	s.publish(stale, "INFY.BO", staleRes, nil)
	if s.ChartCount() != 1 {
		t.Errorf("charts = %d, want 1 after a superseded result", s.ChartCount())
	}
	s.publish(stale, "INFY.BO", nil, errors.New("late failure"))
	if strings.Contains(s.status.Text, "late failure") {
		t.Errorf("superseded error reached status: %q", s.status.Text)
	}
}
