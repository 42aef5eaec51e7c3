package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the run journal to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			artifact_id  TEXT,
			symbol       TEXT NOT NULL,
			source       TEXT,
			trigger_name TEXT,
			row_count    INTEGER,
			first_date   TEXT,
			last_date    TEXT,
			last_close   REAL,
			forecast_end REAL,
			lower_end    REAL,
			upper_end    REAL,
			status       TEXT NOT NULL,
			error        TEXT,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON forecast_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON forecast_runs(symbol)`,

		`CREATE TABLE IF NOT EXISTS deliveries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			artifact_id TEXT,
			symbol      TEXT,
			channel     TEXT,
			status      TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_ts ON deliveries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(timestamp, artifact_id, symbol, source, trigger_name, row_count,
		 first_date, last_date, last_close,
		 forecast_end, lower_end, upper_end,
		 status, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), run.ArtifactID, run.Symbol, run.Source, run.Trigger, run.Rows,
		isoDate(run.FirstDate), isoDate(run.LastDate), run.LastClose,
		run.ForecastEnd, run.LowerEnd, run.UpperEnd,
		run.Status, run.Error, run.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordDelivery(d *Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO deliveries
		(timestamp, artifact_id, symbol, channel, status, error)
		VALUES (?,?,?,?,?,?)`,
		r.now().Unix(), d.ArtifactID, d.Symbol, d.Channel, d.Status, d.Error,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	slog.Info("closing sqlite recorder")
	return r.db.Close()
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
