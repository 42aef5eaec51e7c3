package recorder

import "time"

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one pipeline execution as written to the journal.
type Run struct {
	ArtifactID  string
	Symbol      string
	Source      string // fetcher name
	Trigger     string // "gui", "cli", "cron", "telegram"
	Rows        int
	FirstDate   time.Time
	LastDate    time.Time
	LastClose   float64
	ForecastEnd float64
	LowerEnd    float64
	UpperEnd    float64
	Status      string
	Error       string
	Duration    time.Duration
}

// Delivery records a chart or report pushed to a chat.
type Delivery struct {
	ArtifactID string
	Symbol     string
	Channel    string // "telegram"
	Status     string
	Error      string
}

// Recorder is the write-only run journal.
type Recorder interface {
	RecordRun(run *Run) error
	RecordDelivery(d *Delivery) error
	Close() error
}

// Open returns a SQLite-backed recorder for path, or a no-op recorder when
// path is empty.
func Open(path string) (Recorder, error) {
	if path == "" {
		return NewNoopRecorder(), nil
	}
	return NewSQLiteRecorder(path)
}
