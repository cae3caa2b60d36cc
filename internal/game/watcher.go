package game

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
)

// Watcher polls the server on a fixed interval so history keeps growing
// while nobody asks.
type Watcher struct {
	clock    clock.Clock
	querier  *Querier
	interval time.Duration
}

// NewWatcher creates a watcher. A nil clock uses the wall clock.
func NewWatcher(q *Querier, interval time.Duration, clk clock.Clock) *Watcher {
	if clk == nil {
		clk = clock.New()
	}
	return &Watcher{querier: q, interval: interval, clock: clk}
}

// Run polls once immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}

	log.Info().Dur("interval", w.interval).Msg("Server watcher started")
	defer log.Info().Msg("Server watcher stopped")

	ticker := w.clock.Ticker(w.interval)
	defer ticker.Stop()

	for {
		w.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	qctx, cancel := context.WithTimeout(ctx, w.querier.cfg.Timeout+time.Second)
	defer cancel()

	// Failures are already logged and recorded by the querier.
	_, _ = w.querier.Query(qctx, SourceWatcher)
}
