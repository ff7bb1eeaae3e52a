package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Instants returns the aligned instants after start up to and including the
// last boundary not after end: RoundDown(start)+interval ... RoundDown(end).
// An instant exactly at an aligned start is excluded.
func Instants(start, end time.Time, interval time.Duration) []time.Time {
	if interval <= 0 {
		return nil
	}
	last := domain.RoundDown(end, interval)
	var out []time.Time
	for t := domain.RoundDown(start, interval).Add(interval); !t.After(last); t = t.Add(interval) {
		out = append(out, t)
	}
	return out
}

// Report summarizes one backfill run.
type Report struct {
	RunID   string
	Source  string
	Start   time.Time
	End     time.Time
	Total   int
	Fetched int
	Skipped int
	// Failed lists the instants whose fetch did not succeed, in order.
	Failed  []time.Time
	ByClass map[domain.Classification]int
}

// OK reports whether every instant is now present.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Backfill fetches every instant of a historical range once, skipping
// instants already stored.
type Backfill struct {
	runner
	store    ArtifactStore
	interval time.Duration
}

// NewBackfill validates the interval and debounce. A nil clock uses the real clock.
func NewBackfill(fetcher Fetcher, store ArtifactStore, clock clockwork.Clock, interval time.Duration, opts ...Option) (*Backfill, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", domain.ErrInvalidConfiguration, interval)
	}
	o := buildOptions(opts)
	if o.debounce < 0 {
		return nil, fmt.Errorf("%w: debounce must be non-negative, got %s", domain.ErrInvalidConfiguration, o.debounce)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Backfill{
		runner:   runner{fetcher: fetcher, clock: clock, options: o},
		store:    store,
		interval: interval,
	}, nil
}

// Run walks Instants(start, end) in order. Failures are collected, never
// fatal. On cancellation it returns the partial report and ctx.Err().
func (b *Backfill) Run(ctx context.Context, start, end time.Time) (Report, error) {
	name := b.fetcher.Name()
	instants := Instants(start, end, b.interval)
	report := Report{
		RunID:   uuid.NewString(),
		Source:  name,
		Start:   start,
		End:     end,
		Total:   len(instants),
		ByClass: make(map[domain.Classification]int),
	}
	b.logger.Info("backfill started",
		"source", name,
		"run_id", report.RunID,
		"start", start.UTC().Format(time.RFC3339),
		"end", end.UTC().Format(time.RFC3339),
		"instants", report.Total,
		"force", b.force,
	)

	for _, instant := range instants {
		if err := ctx.Err(); err != nil {
			b.logReport(report, err)
			return report, err
		}

		if !b.force && b.store.Exists(b.fetcher.ArtifactPaths(instant)...) {
			report.Skipped++
			b.metrics.BackfillInstants.WithLabelValues(name, "skipped").Inc()
			b.logger.Debug("artifacts present, skipping", "source", name, "instant", instant.UTC().Format(time.RFC3339))
			continue
		}

		outcome := b.fetch(ctx, instant)
		report.ByClass[outcome.Class]++
		if outcome.Success() {
			report.Fetched++
			b.metrics.BackfillInstants.WithLabelValues(name, "fetched").Inc()
			b.announce(ctx, outcome, report.RunID)
		} else {
			report.Failed = append(report.Failed, instant)
			b.metrics.BackfillInstants.WithLabelValues(name, "failed").Inc()
		}

		if !sleepWithContext(ctx, b.clock, b.debounce) {
			b.logReport(report, ctx.Err())
			return report, ctx.Err()
		}
	}

	b.logReport(report, nil)
	return report, nil
}

func (b *Backfill) logReport(r Report, err error) {
	failed := make([]string, len(r.Failed))
	for i, t := range r.Failed {
		failed[i] = t.UTC().Format(time.RFC3339)
	}
	attrs := []any{
		"source", r.Source,
		"run_id", r.RunID,
		"total", r.Total,
		"fetched", r.Fetched,
		"skipped", r.Skipped,
		"failed", len(r.Failed),
	}
	if len(failed) > 0 {
		attrs = append(attrs, "failed_instants", failed)
	}
	switch {
	case err != nil:
		b.logger.Warn("backfill interrupted", append(attrs, "error", err)...)
	case len(failed) > 0:
		b.logger.Warn("backfill finished with failures", attrs...)
	default:
		b.logger.Info("backfill finished", attrs...)
	}
}
