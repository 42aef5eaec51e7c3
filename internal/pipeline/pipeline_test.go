package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockForecast/internal/collector"
	"StockForecast/internal/directory"
	"StockForecast/internal/forecast"
	"StockForecast/internal/quotes"
	"StockForecast/internal/recorder"
	"StockForecast/internal/render"
)

var forecastEnd = time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)

type memRecorder struct {
	mu   sync.Mutex
	runs []recorder.Run
	err  error
}

func (m *memRecorder) RecordRun(r *recorder.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *r)
	return m.err
}
func (m *memRecorder) RecordDelivery(*recorder.Delivery) error { return nil }
func (m *memRecorder) Close() error                            { return nil }

func newPipeline(t *testing.T, f collector.Fetcher, rec recorder.Recorder) *Pipeline {
	t.Helper()
	dir, err := directory.Default()
	if err != nil {
		t.Fatal(err)
	}
	r := render.New(dir)
	r.Width, r.Height = 320, 240
	p := New(dir, f, r, rec)
	p.Horizon = 30
	return p
}

func TestRun_Success(t *testing.T) {
	rec := &memRecorder{}
	p := newPipeline(t, &collector.MockFetcher{Days: 120, Price: 1500}, rec).WithTrigger("cli")

	res, err := p.Run(context.Background(), "INFY.BO")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Quotes) != 120 {
		t.Errorf("quotes = %d, want 120", len(res.Quotes))
	}
	if len(res.Forecast.Points) != 120+30 {
		t.Errorf("points = %d, want 150", len(res.Forecast.Points))
	}
	if !bytes.HasPrefix(res.Chart.PNG, []byte("\x89PNG")) {
		t.Error("chart is not a PNG")
	}
	if res.Name != "Infosys Limited" || res.Summary.Rows != 120 {
		t.Errorf("unexpected result header %q %+v", res.Name, res.Summary)
	}

	if len(rec.runs) != 1 {
		t.Fatalf("journal rows = %d, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Status != recorder.StatusOK || run.Trigger != "cli" || run.Source != "mock" || run.ArtifactID != res.Chart.ID {
		t.Errorf("unexpected journal row %+v", run)
	}
}

func TestRun_UnknownSymbolSkipsFetch(t *testing.T) {
	m := &collector.MockFetcher{}
	_, err := newPipeline(t, m, nil).Run(context.Background(), "NOPE.BO")
	if !errors.Is(err, directory.ErrUnknownSymbol) {
		t.Fatalf("err = %v, want ErrUnknownSymbol", err)
	}
	if len(m.Calls()) != 0 {
		t.Error("fetch attempted for unknown symbol")
	}
}

func TestRun_StageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	tests := []struct {
		name   string
		f      *collector.MockFetcher
		target error
		prefix string
	}{
		{"fetch", &collector.MockFetcher{Err: boom}, boom, "fetch TCS.BO: "},
		{"parse", &collector.MockFetcher{Body: []byte("Date,Close\n2024-01-02,abc\n")}, quotes.ErrBadPrice, "parse TCS.BO: "},
		{"forecast", &collector.MockFetcher{Body: []byte("Date,Close\n2024-01-02,10\n")}, forecast.ErrInsufficientData, "forecast TCS.BO: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			_, err := newPipeline(t, tt.f, rec).Run(context.Background(), "TCS.BO")
			if !errors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
			if got := err.Error(); len(got) < len(tt.prefix) || got[:len(tt.prefix)] != tt.prefix {
				t.Errorf("err %q lacks stage prefix %q", got, tt.prefix)
			}
			if len(rec.runs) != 1 || rec.runs[0].Status != recorder.StatusFailed {
				t.Errorf("failed run not journalled: %+v", rec.runs)
			}
		})
	}
}

func TestProcess_JournalFailureIsNotFatal(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	p := newPipeline(t, &collector.MockFetcher{}, rec)
	body := collector.GenerateHistory(800, 60, forecastEnd)
	res, err := p.Process("RELIANCE.BO", body)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Chart == nil {
		t.Fatal("missing chart")
	}
}
