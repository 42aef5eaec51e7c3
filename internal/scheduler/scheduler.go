package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"StockForecast/internal/directory"
	"StockForecast/internal/notifier"
	"StockForecast/internal/pipeline"
	"StockForecast/internal/recorder"
)

const sendRetries = 3

// Messenger delivers text and chart messages to a chat.
type Messenger interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendPhotoWithRetry(ctx context.Context, caption string, png []byte, maxRetries int) error
}

// Scheduler runs the watchlist digest on a cron schedule and answers chat
// commands.
type Scheduler struct {
	Cron      *cron.Cron
	Pipeline  *pipeline.Pipeline
	Directory *directory.Directory
	Notifier  Messenger
	Recorder  recorder.Recorder
	Watchlist []string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. Overlapping digest runs are skipped.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, dir *directory.Directory, n Messenger, rec recorder.Recorder, watchlist []string) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		Pipeline:  p,
		Directory: dir,
		Notifier:  n,
		Recorder:  rec,
		Watchlist: watchlist,
		Ctx:       ctx,
	}
}

// Register schedules the watchlist digest.
func (s *Scheduler) Register(digestCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.RunDigestNow); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	slog.Info("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunDigestNow forecasts every watchlist symbol in turn and pushes the
// results. A failing symbol does not stop the rest.
func (s *Scheduler) RunDigestNow() {
	slog.Info("running watchlist digest", "symbols", len(s.Watchlist))
	for _, sym := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		if err := s.forecastAndSend(s.Ctx, sym, "cron"); err != nil {
			slog.Error("digest symbol failed", "symbol", sym, "err", err)
			s.trySend(notifier.FormatError("forecast "+sym, err))
		}
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(command), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "/search":
		return notifier.FormatSearchResults(arg, s.Directory.Search(arg))
	case "/forecast":
		if arg == "" {
			return "Usage: /forecast SYMBOL"
		}
		sym := strings.ToUpper(arg)
		if err := s.forecastAndSend(ctx, sym, "telegram"); err != nil {
			slog.Error("forecast command failed", "symbol", sym, "err", err)
			return notifier.FormatError("forecast "+sym, err)
		}
		return ""
	case "/help", "/start":
		return notifier.FormatHelp()
	default:
		return "Unknown command.\n\n" + notifier.FormatHelp()
	}
}

func (s *Scheduler) forecastAndSend(ctx context.Context, symbol, trigger string) error {
	res, err := s.Pipeline.WithTrigger(trigger).Run(ctx, symbol)
	if err != nil {
		return err
	}

	sendErr := s.Notifier.SendPhotoWithRetry(ctx, notifier.FormatForecastReport(res.Summary), res.Chart.PNG, sendRetries)
	d := &recorder.Delivery{
		ArtifactID: res.Chart.ID,
		Symbol:     symbol,
		Channel:    "telegram",
		Status:     recorder.StatusOK,
	}
	if sendErr != nil {
		d.Status, d.Error = recorder.StatusFailed, sendErr.Error()
	}
	if err := s.Recorder.RecordDelivery(d); err != nil {
		slog.Warn("record delivery", "err", err)
	}
	if sendErr != nil {
		return fmt.Errorf("deliver %s: %w", symbol, sendErr)
	}
	return nil
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		slog.Error("failed to send telegram message", "err", err)
	}
}
