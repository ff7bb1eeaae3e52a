package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/grib"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/storage"
	"github.com/couchcryptid/precip-ingest-service/internal/config"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
)

// Fetcher is what Build returns: one configured upstream product.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, instant time.Time) domain.FetchOutcome
	ArtifactPaths(instant time.Time) []string
}

// Options control how Build wires a source definition.
type Options struct {
	DataDir        string
	Timeout        time.Duration
	KeepCompressed bool
	// Archive selects the archive URL of an HTTP source when it has one.
	Archive bool
}

// Build creates the fetcher described by def.
func Build(def config.Source, opts Options, store *storage.Store, logger *slog.Logger) (Fetcher, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	layout := domain.Layout{
		Base:     opts.DataDir,
		Source:   def.Name,
		Org:      def.Org,
		Product:  def.Product,
		Location: def.Location(),
	}

	switch def.Kind {
	case config.KindHTTP:
		url := def.LiveURL
		if opts.Archive && def.ArchiveURL != "" {
			url = def.ArchiveURL
		}
		encodings, err := def.SampleTypes()
		if err != nil {
			return nil, err
		}
		decoder, err := grib.NewDecoder(def.Width, def.Height)
		if err != nil {
			return nil, err
		}
		f, err := NewHTTPFetcher(HTTPConfig{
			Name:           def.Name,
			URL:            domain.PathTemplate(url),
			BaseName:       domain.PathTemplate(def.BaseName),
			Layout:         layout,
			Encodings:      encodings,
			KeepCompressed: opts.KeepCompressed,
			Timeout:        opts.Timeout,
		}, decoder, store, logger)
		if err != nil {
			return nil, err
		}
		return f, nil

	case config.KindMirror:
		paths := make([]domain.PathTemplate, len(def.Paths))
		for i, p := range def.Paths {
			paths[i] = domain.PathTemplate(p)
		}
		f, err := NewMirrorFetcher(MirrorConfig{
			Name:     def.Name,
			Root:     def.Root,
			Paths:    paths,
			FileName: domain.PathTemplate(def.FileName),
			Layout:   layout,
		}, store, logger)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidConfiguration, def.Kind)
}
