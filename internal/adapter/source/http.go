// Package source implements the fetchers that pull one product instant from
// an upstream and publish its artifacts into the local store.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/grib"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/raster"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/storage"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

// GridDecoder decodes an uncompressed product into a frame.
type GridDecoder interface {
	Decode(r io.Reader) (domain.Frame, error)
}

// HTTPConfig describes one HTTP-served gridded product.
type HTTPConfig struct {
	Name           string
	URL            domain.PathTemplate
	BaseName       domain.PathTemplate
	Layout         domain.Layout
	Encodings      []domain.SampleType
	KeepCompressed bool
	Timeout        time.Duration
}

// HTTPFetcher downloads a gzipped GRIB2 product and publishes the decompressed
// GRIB2 file plus one PNG per configured encoding. Live and archive mirrors
// differ only in their URL template.
type HTTPFetcher struct {
	cfg        HTTPConfig
	httpClient *http.Client
	decoder    GridDecoder
	store      *storage.Store
	logger     *slog.Logger
}

// NewHTTPFetcher validates cfg and creates the fetcher.
func NewHTTPFetcher(cfg HTTPConfig, decoder GridDecoder, store *storage.Store, logger *slog.Logger) (*HTTPFetcher, error) {
	if cfg.Name == "" || cfg.URL == "" || cfg.BaseName == "" {
		return nil, fmt.Errorf("%w: http source needs name, url and base name", domain.ErrInvalidConfiguration)
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Encodings) == 0 {
		cfg.Encodings = []domain.SampleType{domain.Int16, domain.Uint16}
	}
	for _, st := range cfg.Encodings {
		if _, _, err := st.Range(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		decoder:    decoder,
		store:      store,
		logger:     logger,
	}, nil
}

func (f *HTTPFetcher) Name() string { return f.cfg.Name }

// URL returns the upstream URL for instant.
func (f *HTTPFetcher) URL(instant time.Time) string {
	return f.cfg.URL.Expand(instant, f.cfg.Layout.Location)
}

// ArtifactPaths lists every file a successful fetch publishes for instant.
func (f *HTTPFetcher) ArtifactPaths(instant time.Time) []string {
	paths := []string{f.gribPath(instant)}
	for _, st := range f.cfg.Encodings {
		paths = append(paths, f.pngPath(instant, st))
	}
	if f.cfg.KeepCompressed {
		paths = append(paths, f.compressedPath(instant))
	}
	return paths
}

// Fetch downloads and converts the product for instant. It never retries.
func (f *HTTPFetcher) Fetch(ctx context.Context, instant time.Time) domain.FetchOutcome {
	url := f.URL(instant)
	fail := func(class domain.Classification, err error) domain.FetchOutcome {
		return domain.Failed(f.cfg.Name, instant, class, err)
	}

	body, class, err := f.download(ctx, url)
	if err != nil {
		return fail(class, err)
	}

	if f.cfg.KeepCompressed {
		if err := f.store.WriteAtomic(f.compressedPath(instant), bytes.NewReader(body)); err != nil {
			return fail(domain.ClassFilesystemError, err)
		}
	}

	product, err := gunzipAll(body)
	if err != nil {
		return fail(domain.ClassDecodeError, err)
	}

	gribPath := f.gribPath(instant)
	if err := f.store.WriteAtomic(gribPath, bytes.NewReader(product)); err != nil {
		return fail(domain.ClassFilesystemError, err)
	}

	frame, err := f.decoder.Decode(bytes.NewReader(product))
	if err != nil {
		return fail(domain.ClassDecodeError, fmt.Errorf("decode %s: %w", gribPath, err))
	}

	published := []string{gribPath}
	for _, st := range f.cfg.Encodings {
		enc, err := domain.Encode(frame, st)
		if err != nil {
			return fail(domain.ClassDecodeError, err)
		}
		path := f.pngPath(instant, st)
		if err := f.store.WriteFunc(path, func(w io.Writer) error { return raster.Encode(w, enc) }); err != nil {
			return fail(domain.ClassFilesystemError, err)
		}
		published = append(published, path)
	}
	if f.cfg.KeepCompressed {
		published = append(published, f.compressedPath(instant))
	}

	f.logger.Info("artifacts published",
		"source", f.cfg.Name,
		"instant", instant.UTC().Format(time.RFC3339),
		"artifacts", len(published),
	)
	return domain.Succeeded(f.cfg.Name, instant, published)
}

func (f *HTTPFetcher) download(ctx context.Context, url string) ([]byte, domain.Classification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.ClassHTTPError, fmt.Errorf("create request: %w", err)
	}

	f.logger.Debug("downloading", "source", f.cfg.Name, "url", url)
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domain.ClassNetworkError, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ClassNotFound, fmt.Errorf("get %s: %w", url, &StatusError{Code: resp.StatusCode})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.ClassHTTPError, fmt.Errorf("get %s: %w", url, &StatusError{Code: resp.StatusCode, Body: string(msg)})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ClassNetworkError, fmt.Errorf("read %s: %w", url, err)
	}
	return body, domain.ClassOK, nil
}

func gunzipAll(body []byte) ([]byte, error) {
	zr, err := grib.Gunzip(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	product, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress product: %w", err)
	}
	return product, nil
}

func (f *HTTPFetcher) gribPath(instant time.Time) string {
	return f.cfg.Layout.Path(instant, f.cfg.BaseName+".grib2")
}

func (f *HTTPFetcher) compressedPath(instant time.Time) string {
	return f.cfg.Layout.Path(instant, f.cfg.BaseName+".grib2.gz")
}

func (f *HTTPFetcher) pngPath(instant time.Time, st domain.SampleType) string {
	return f.cfg.Layout.Path(instant, f.cfg.BaseName+domain.PathTemplate("."+st.String()+".png"))
}

// StatusError carries a non-2xx upstream status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}
