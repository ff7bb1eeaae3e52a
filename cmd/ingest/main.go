// Command ingest polls the configured source for new products and serves the
// forecast query API until SIGINT or SIGTERM.
//
// Usage:
//
//	go run ./cmd/ingest [-fixed-date 20230101]
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/precip-ingest-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/precip-ingest-service/internal/adapter/kafka"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/series"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/source"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/storage"
	"github.com/couchcryptid/precip-ingest-service/internal/config"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/couchcryptid/precip-ingest-service/internal/observability"
	"github.com/couchcryptid/precip-ingest-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

func main() {
	fixedDate := flag.String("fixed-date", "", "replay this calendar day (YYYYMMDD, in the source time zone) against the live time of day")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, *fixedDate, logger, metrics); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, fixedDate string, logger *slog.Logger, metrics *observability.Metrics) error {
	def, err := cfg.Selected()
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()

	fetcher, err := source.Build(def, source.Options{
		DataDir:        cfg.DataDir,
		Timeout:        cfg.FetchTimeout,
		KeepCompressed: cfg.KeepCompressed,
	}, storage.New(), logger)
	if err != nil {
		return err
	}
	timer, err := newTimer(clock, def, fixedDate, logger)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithRetryDelay(cfg.PollRetryDelay),
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("artifact notifications enabled", "topic", cfg.KafkaTopic)
	}
	poller := pipeline.NewPoller(fetcher, timer, clock, opts...)

	grid, err := domain.NewGrid(cfg.ResultBox, cfg.ResolutionLng, cfg.ResolutionLat)
	if err != nil {
		return err
	}
	points := httpadapter.NewPointHandler(
		series.NewReader(cfg.ResultsDir, cfg.SeriesCacheSize, metrics, logger),
		httpadapter.PointConfig{
			Grid:          grid,
			PrecipMax:     cfg.PrecipMax,
			FrameInterval: cfg.FrameInterval,
			DemoKey:       cfg.DemoKey,
		}, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, poller, points, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newTimer(clock clockwork.Clock, def config.Source, fixedDate string, logger *slog.Logger) (*domain.Timer, error) {
	if fixedDate == "" {
		return domain.NewTimer(clock, def.Interval, def.Delay)
	}
	date, err := time.ParseInLocation("20060102", fixedDate, def.Location())
	if err != nil {
		return nil, errors.New("invalid -fixed-date, want YYYYMMDD")
	}
	logger.Warn("replaying fixed date", "source", def.Name, "date", date.Format(time.DateOnly))
	return domain.NewFixedDateTimer(clock, date, def.Interval, def.Delay)
}
