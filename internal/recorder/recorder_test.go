package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordRun(t *testing.T) {
	r := openTemp(t)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	run := &Run{
		ArtifactID:  "a1",
		Symbol:      "INFY.BO",
		Source:      "mock",
		Trigger:     "cli",
		Rows:        250,
		FirstDate:   time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		LastDate:    time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
		LastClose:   1500.5,
		ForecastEnd: 1620,
		LowerEnd:    1400,
		UpperEnd:    1840,
		Status:      StatusOK,
		Duration:    1500 * time.Millisecond,
	}
	if err := r.RecordRun(run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	failed := &Run{Symbol: "TCS.BO", Status: StatusFailed, Error: errors.New("fetch: boom").Error()}
	if err := r.RecordRun(failed); err != nil {
		t.Fatalf("RecordRun failed run: %v", err)
	}

	var (
		ts       int64
		symbol   string
		last     string
		rows     int
		duration int64
	)
	err := r.db.QueryRow(`SELECT timestamp, symbol, last_date, row_count, duration_ms
		FROM forecast_runs WHERE artifact_id = ?`, "a1").Scan(&ts, &symbol, &last, &rows, &duration)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if ts != 1700000000 || symbol != "INFY.BO" || last != "2023-12-29" || rows != 250 || duration != 1500 {
		t.Errorf("row = %d %s %s %d %d", ts, symbol, last, rows, duration)
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM forecast_runs WHERE status = ?`, StatusFailed).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("failed runs = %d, want 1", n)
	}
}

func TestRecordDelivery(t *testing.T) {
	r := openTemp(t)
	if err := r.RecordDelivery(&Delivery{ArtifactID: "a1", Symbol: "TCS.BO", Channel: "telegram", Status: StatusOK}); err != nil {
		t.Fatalf("RecordDelivery: %v", err)
	}
	var channel string
	if err := r.db.QueryRow(`SELECT channel FROM deliveries`).Scan(&channel); err != nil {
		t.Fatal(err)
	}
	if channel != "telegram" {
		t.Errorf("channel = %q", channel)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		r, err := NewSQLiteRecorder(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		r.Close()
	}
}

func TestOpenEmptyPathIsNoop(t *testing.T) {
	r, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*NoopRecorder); !ok {
		t.Fatalf("Open(\"\") = %T, want *NoopRecorder", r)
	}
	if err := r.RecordRun(&Run{}); err != nil {
		t.Error(err)
	}
}
