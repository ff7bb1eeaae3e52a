package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/couchcryptid/precip-ingest-service/internal/observability"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

// fakeFetcher succeeds by writing one marker file per instant. Scripted
// classifications are consumed first, then per-instant failures apply.
type fakeFetcher struct {
	dir string

	mu      sync.Mutex
	script  []domain.Classification
	fail    map[int64]domain.Classification
	calls   []time.Time
	onFetch func(call int)
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	t.Helper()
	return &fakeFetcher{dir: t.TempDir(), fail: map[int64]domain.Classification{}}
}

func (f *fakeFetcher) Name() string { return "mrms" }

func (f *fakeFetcher) ArtifactPaths(instant time.Time) []string {
	return []string{filepath.Join(f.dir, instant.UTC().Format("20060102-150405")+".uint16.png")}
}

func (f *fakeFetcher) Fetch(_ context.Context, instant time.Time) domain.FetchOutcome {
	f.mu.Lock()
	f.calls = append(f.calls, instant)
	call := len(f.calls)
	class := domain.ClassOK
	if len(f.script) > 0 {
		class, f.script = f.script[0], f.script[1:]
	} else if c, ok := f.fail[instant.Unix()]; ok {
		class = c
	}
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if class != domain.ClassOK {
		return domain.Failed(f.Name(), instant, class, errors.New(string(class)))
	}
	paths := f.ArtifactPaths(instant)
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("frame"), 0o644); err != nil {
			return domain.Failed(f.Name(), instant, domain.ClassFilesystemError, err)
		}
	}
	return domain.Succeeded(f.Name(), instant, paths)
}

func (f *fakeFetcher) Calls() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.calls...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.IngestEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e domain.IngestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Events() []domain.IngestEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.IngestEvent(nil), p.events...)
}

// recordingHandler keeps every log record for level assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

// levelOf returns the level of the first record with msg.
func (h *recordingHandler) levelOf(t *testing.T, msg string) slog.Level {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Message == msg {
			return r.Level
		}
	}
	require.Failf(t, "log record not found", "message %q", msg)
	return 0
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func utc(h, m, s int) time.Time {
	return time.Date(2023, 1, 1, h, m, s, 0, time.UTC)
}
