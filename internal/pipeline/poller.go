package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Poller follows a source's publication schedule, fetching the most recent
// window and retrying it until it succeeds.
type Poller struct {
	runner
	timer *domain.Timer
	ready atomic.Bool
}

// NewPoller creates a Poller. timer and clock must share the same time source;
// a nil clock uses the real clock.
func NewPoller(fetcher Fetcher, timer *domain.Timer, clock clockwork.Clock, opts ...Option) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{
		runner: runner{fetcher: fetcher, clock: clock, options: buildOptions(opts)},
		timer:  timer,
	}
}

// CheckReadiness returns nil once the poller has ingested at least one window.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("poller has not ingested any window yet")
	}
	return nil
}

// Run polls until ctx is cancelled. Fetch failures never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	name := p.fetcher.Name()
	p.logger.Info("poller started",
		"source", name,
		"interval", p.timer.Interval().String(),
		"delay", p.timer.Delay().String(),
		"retry_delay", p.retryDelay.String(),
	)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	window := p.timer.Window()
	for {
		if ctx.Err() != nil {
			p.logger.Info("poller stopping", "source", name, "reason", ctx.Err())
			return nil
		}

		outcome := p.fetch(ctx, window.Last)
		if !outcome.Success() {
			// Same window again: the product is late or the upstream hiccuped.
			sleepWithContext(ctx, p.clock, p.retryDelay)
			continue
		}

		p.ready.Store(true)
		p.announce(ctx, outcome, "")

		wait := p.timer.WaitUntilNext(window)
		p.logger.Debug("window ingested",
			"source", name,
			"instant", window.Last.UTC().Format(time.RFC3339),
			"next_poll_in", wait.String(),
		)
		if sleepWithContext(ctx, p.clock, wait) {
			window = p.timer.Window()
		}
	}
}
