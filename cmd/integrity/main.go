// Command integrity lists the instants of a range whose artifacts are missing
// from the data directory, one RFC 3339 timestamp per line.
//
// Usage:
//
//	go run ./cmd/integrity -start 20230101000000 -end 20230102000000 [-source mrms] [-tz-offset-hours 0]
//
// Exit status is 2 when anything is missing.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/source"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/storage"
	"github.com/couchcryptid/precip-ingest-service/internal/config"
	"github.com/couchcryptid/precip-ingest-service/internal/observability"
	"github.com/couchcryptid/precip-ingest-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sourceName := flag.String("source", cfg.Source, "source to check")
	start := flag.String("start", "", "range start, YYYYMMDDhhmmss (default one week ago)")
	end := flag.String("end", "", "range end, YYYYMMDDhhmmss (default one day ago)")
	offset := flag.Int("tz-offset-hours", 0, "UTC offset the start and end are written in")
	flag.Parse()

	logger := observability.NewLogger(cfg)
	os.Exit(run(cfg, *sourceName, *start, *end, *offset, logger))
}

func run(cfg *config.Config, sourceName, startArg, endArg string, offset int, logger *slog.Logger) int {
	start, end, err := config.ParseRange(startArg, endArg, offset, time.Now())
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
	fetcher, err := source.Build(def, source.Options{DataDir: cfg.DataDir, Timeout: cfg.FetchTimeout}, store, logger)
	if err != nil {
		logger.Error("failed to build source", "error", err)
		return 1
	}

	total := len(pipeline.Instants(start, end, def.Interval))
	missing := pipeline.MissingArtifacts(store, fetcher, start, end, def.Interval)
	for _, t := range missing {
		fmt.Println(t.UTC().Format(time.RFC3339))
	}
	logger.Info("integrity check complete",
		"source", def.Name,
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339),
		"instants", total,
		"missing", len(missing),
	)
	if len(missing) > 0 {
		return 2
	}
	return 0
}
