// Command backfill fetches every instant of a historical range from the
// source's archive, skipping instants already on disk.
//
// Usage:
//
//	go run ./cmd/backfill -start 20230101000000 -end 20230101010000 [-source mrms] [-tz-offset-hours 0] [-force]
//
// The range is open at the start and closed at the end: instants after the
// last boundary not after -start, up to and including the last boundary not
// after -end. 20230101000000..20230101010000 at a 10m interval fetches 00:10
// through 01:00.
//
// Exit status is 2 when any instant could not be fetched.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkaadapter "github.com/couchcryptid/precip-ingest-service/internal/adapter/kafka"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/source"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/storage"
	"github.com/couchcryptid/precip-ingest-service/internal/config"
	"github.com/couchcryptid/precip-ingest-service/internal/observability"
	"github.com/couchcryptid/precip-ingest-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sourceName := flag.String("source", cfg.Source, "source to backfill")
	start := flag.String("start", "", "range start, YYYYMMDDhhmmss (default one week ago)")
	end := flag.String("end", "", "range end, inclusive, YYYYMMDDhhmmss (default one day ago)")
	offset := flag.Int("tz-offset-hours", 0, "UTC offset the start and end are written in")
	force := flag.Bool("force", false, "refetch instants whose artifacts already exist")
	flag.Parse()

	logger := observability.NewLogger(cfg)
	os.Exit(run(cfg, *sourceName, *start, *end, *offset, *force, logger))
}

func run(cfg *config.Config, sourceName, startArg, endArg string, offset int, force bool, logger *slog.Logger) int {
	clock := clockwork.NewRealClock()
	start, end, err := config.ParseRange(startArg, endArg, offset, clock.Now())
	if err != nil {
		logger.Error("invalid range", "error", err)
		return 1
	}
	def, err := cfg.Lookup(sourceName)
	if err != nil {
		logger.Error("invalid source", "error", err)
		return 1
	}

	store := storage.New()
	fetcher, err := source.Build(def, source.Options{
		DataDir:        cfg.DataDir,
		Timeout:        cfg.FetchTimeout,
		KeepCompressed: cfg.KeepCompressed,
		Archive:        true,
	}, store, logger)
	if err != nil {
		logger.Error("failed to build source", "error", err)
		return 1
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(observability.NewMetrics()),
		pipeline.WithDebounce(cfg.BackfillDebounce),
		pipeline.ForceOverwrite(force),
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(publisher))
	}
	backfill, err := pipeline.NewBackfill(fetcher, store, clock, def.Interval, opts...)
	if err != nil {
		logger.Error("failed to create backfill", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := backfill.Run(ctx, start, end)
	for _, t := range report.Failed {
		fmt.Println(t.UTC().Format(time.RFC3339))
	}
	switch {
	case err != nil:
		logger.Error("backfill interrupted", "error", err)
		return 1
	case !report.OK():
		return 2
	}
	return 0
}
