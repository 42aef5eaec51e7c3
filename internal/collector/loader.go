package collector

import (
	"context"
	"log/slog"
	"sync"
)

// Loader issues one history fetch at a time and resumes the caller in a
// callback. Starting a new load cancels the outstanding one; a superseded
// load never delivers its callback.
type Loader struct {
	Fetcher Fetcher

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// LoadID identifies one Load call. It stops being current once a newer
// Load or a Cancel happens.
type LoadID uint64

// NewLoader creates a Loader around fetcher.
func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{Fetcher: fetcher}
}

// Load starts fetching symbol and returns immediately. Exactly one of
// onSuccess or onError runs on the loader goroutine, unless the load is
// superseded or cancelled first. Work done inside a callback can outlive
// the load; callers re-check Current(id) before publishing results.
func (l *Loader) Load(symbol string, onSuccess func(id LoadID, body []byte), onError func(id LoadID, err error)) LoadID {
	ctx, cancel := context.WithCancel(context.Background())

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()

		slog.Info("fetching history", "symbol", symbol, "source", l.Fetcher.Name())
		body, err := l.Fetcher.FetchHistory(ctx, symbol)
		if !l.Current(LoadID(gen)) {
			slog.Debug("dropping superseded load", "symbol", symbol)
			return
		}
		if err != nil {
			if onError != nil {
				onError(LoadID(gen), err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(LoadID(gen), body)
		}
	}()
	return LoadID(gen)
}

// Cancel aborts the outstanding load, if any.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}

// Wait blocks until every started load goroutine has returned.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Current reports whether id is still the newest, uncancelled load.
func (l *Loader) Current(id LoadID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen == uint64(id)
}
