// Package pipeline drives fetchers over time: a live poller that follows the
// upstream publication schedule and a bounded backfill over historical ranges.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/couchcryptid/precip-ingest-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher pulls one instant from an upstream and publishes its artifacts.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, instant time.Time) domain.FetchOutcome
	ArtifactPaths(instant time.Time) []string
}

// Publisher announces successful ingests downstream.
type Publisher interface {
	Publish(ctx context.Context, event domain.IngestEvent) error
}

// ArtifactStore reports whether published artifacts are present.
type ArtifactStore interface {
	Exists(paths ...string) bool
}

// Defaults for the orchestrator pauses.
const (
	DefaultRetryDelay = 10 * time.Second
	DefaultDebounce   = time.Second
)

type options struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	publisher  Publisher
	retryDelay time.Duration
	debounce   time.Duration
	force      bool
}

// Option configures a Poller or a Backfill.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics sets the metrics sink. The default is an unregistered set.
func WithMetrics(m *observability.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithPublisher announces every successful ingest through p.
func WithPublisher(p Publisher) Option { return func(o *options) { o.publisher = p } }

// WithRetryDelay sets the poller's pause before retrying a failed window.
func WithRetryDelay(d time.Duration) Option { return func(o *options) { o.retryDelay = d } }

// WithDebounce sets the backfill pause after each fetch.
func WithDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

// ForceOverwrite makes backfill refetch instants whose artifacts already exist.
func ForceOverwrite(force bool) Option { return func(o *options) { o.force = force } }

func buildOptions(opts []Option) options {
	o := options{
		retryDelay: DefaultRetryDelay,
		debounce:   DefaultDebounce,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetricsForTesting()
	}
	return o
}

// runner holds what the poller and backfill share: one fetch at a time,
// recorded in metrics and announced on success.
type runner struct {
	fetcher Fetcher
	clock   clockwork.Clock
	options
}

func (r *runner) fetch(ctx context.Context, instant time.Time) domain.FetchOutcome {
	name := r.fetcher.Name()
	start := r.clock.Now()
	outcome := r.fetcher.Fetch(ctx, instant)

	r.metrics.FetchDuration.WithLabelValues(name).Observe(r.clock.Since(start).Seconds())
	r.metrics.FetchTotal.WithLabelValues(name, string(outcome.Class)).Inc()
	if outcome.Success() {
		r.metrics.LastIngested.WithLabelValues(name).Set(float64(instant.Unix()))
	} else {
		r.logFailure(outcome)
	}
	return outcome
}

// logFailure keeps the expected "not published yet" case out of error logs.
func (r *runner) logFailure(o domain.FetchOutcome) {
	attrs := []any{
		"source", o.Source,
		"instant", o.Instant.UTC().Format(time.RFC3339),
		"outcome", string(o.Class),
		"error", o.Err,
	}
	if o.Class == domain.ClassNotFound {
		r.logger.Info("product not available yet", attrs...)
		return
	}
	r.logger.Error("fetch failed", attrs...)
}

// announce publishes a successful outcome. Delivery failures are logged and
// never fail the ingest.
func (r *runner) announce(ctx context.Context, o domain.FetchOutcome, runID string) {
	if r.publisher == nil {
		return
	}
	event := domain.NewIngestEvent(o, r.clock.Now(), runID)
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.metrics.PublishErrors.Inc()
		r.logger.Warn("artifact notification failed", "key", event.Key(), "error", err)
	}
}

// sleepWithContext waits d on clock. It returns false if ctx ended first.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
