//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/kafka"
	"github.com/couchcryptid/precip-ingest-service/internal/config"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/couchcryptid/precip-ingest-service/internal/observability"
	"github.com/couchcryptid/precip-ingest-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-precip-artifacts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("precip-ingest-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type received struct {
	Event   domain.IngestEvent
	Key     string
	Headers map[string]string
}

func readEvents(ctx context.Context, t *testing.T, broker string, n int) []received {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]received, 0, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from artifact topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var event domain.IngestEvent
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		out = append(out, received{Event: event, Key: string(msg.Key), Headers: headers})
	}
	return out
}

// TestPublisher_RoundTrip verifies that a notification written by the
// publisher reads back with its key, headers and payload intact.
func TestPublisher_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	instant := time.Date(2023, 1, 1, 0, 10, 0, 0, time.UTC)
	event := domain.NewIngestEvent(
		domain.Succeeded("mrms", instant, []string{"/data/a.grib2", "/data/a.int16.png"}),
		time.Date(2023, 1, 1, 0, 13, 30, 0, time.UTC),
		"",
	)
	require.NoError(t, publisher.Publish(ctx, event))

	got := readEvents(ctx, t, broker, 1)[0]
	assert.Equal(t, "mrms|2023-01-01T00:10:00Z", got.Key)
	assert.Equal(t, "mrms", got.Headers["source"])
	assert.Equal(t, "2023-01-01T00:13:30Z", got.Headers["ingested_at"])
	assert.NotContains(t, got.Headers, "run_id")
	assert.True(t, instant.Equal(got.Event.Instant))
	assert.Equal(t, event.Artifacts, got.Event.Artifacts)
}

type stubFetcher struct{}

func (stubFetcher) Name() string { return "mrms" }

func (stubFetcher) ArtifactPaths(instant time.Time) []string {
	return []string{"/nonexistent/" + instant.Format("150405")}
}

func (stubFetcher) Fetch(_ context.Context, instant time.Time) domain.FetchOutcome {
	return domain.Succeeded("mrms", instant, []string{"/nonexistent/" + instant.Format("150405")})
}

type emptyStore struct{}

func (emptyStore) Exists(...string) bool { return false }

// TestBackfill_PublishesEveryFetchedInstant runs a backfill against a stub
// fetcher with the real publisher and checks one notification per instant,
// all tagged with the run ID.
func TestBackfill_PublishesEveryFetchedInstant(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	backfill, err := pipeline.NewBackfill(stubFetcher{}, emptyStore{}, clockwork.NewRealClock(), 10*time.Minute,
		pipeline.WithLogger(discardLogger()),
		pipeline.WithMetrics(observability.NewMetricsForTesting()),
		pipeline.WithPublisher(publisher),
		pipeline.WithDebounce(0),
	)
	require.NoError(t, err)

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	report, err := backfill.Run(ctx, start, start.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Equal(t, 6, report.Fetched)

	got := readEvents(ctx, t, broker, 6)
	for i, r := range got {
		assert.Equal(t, report.RunID, r.Headers["run_id"])
		assert.Equal(t, report.RunID, r.Event.RunID)
		assert.True(t, start.Add(time.Duration(i+1)*10*time.Minute).Equal(r.Event.Instant))
	}
}
