package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/storage"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
)

// MirrorConfig describes a product read from a mounted directory tree.
type MirrorConfig struct {
	Name string
	Root string
	// Paths are tried in order relative to Root; the first existing file wins.
	Paths    []domain.PathTemplate
	FileName domain.PathTemplate
	Layout   domain.Layout
}

// MirrorFetcher copies products from a local or network-mounted mirror into
// the store without decoding them.
type MirrorFetcher struct {
	cfg    MirrorConfig
	store  *storage.Store
	logger *slog.Logger
}

// NewMirrorFetcher validates cfg and creates the fetcher.
func NewMirrorFetcher(cfg MirrorConfig, store *storage.Store, logger *slog.Logger) (*MirrorFetcher, error) {
	if cfg.Name == "" || cfg.Root == "" || cfg.FileName == "" || len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("%w: mirror source needs name, root, file name and at least one path", domain.ErrInvalidConfiguration)
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	return &MirrorFetcher{cfg: cfg, store: store, logger: logger}, nil
}

func (f *MirrorFetcher) Name() string { return f.cfg.Name }

// ArtifactPaths returns the single copied file for instant.
func (f *MirrorFetcher) ArtifactPaths(instant time.Time) []string {
	return []string{f.cfg.Layout.Path(instant, f.cfg.FileName)}
}

// Fetch copies the first mirror file found for instant.
func (f *MirrorFetcher) Fetch(ctx context.Context, instant time.Time) domain.FetchOutcome {
	if err := ctx.Err(); err != nil {
		return domain.Failed(f.cfg.Name, instant, domain.ClassFilesystemError, err)
	}

	src, tried, err := f.resolve(instant)
	if err != nil {
		return domain.Failed(f.cfg.Name, instant, domain.ClassFilesystemError, err)
	}
	if src == "" {
		return domain.Failed(f.cfg.Name, instant, domain.ClassNotFound,
			fmt.Errorf("mirror file not found, tried %s", strings.Join(tried, ", ")))
	}

	dst := f.ArtifactPaths(instant)[0]
	if err := f.store.CopyFile(src, dst); err != nil {
		return domain.Failed(f.cfg.Name, instant, domain.ClassFilesystemError, err)
	}

	f.logger.Info("artifacts published",
		"source", f.cfg.Name,
		"instant", instant.UTC().Format(time.RFC3339),
		"from", src,
	)
	return domain.Succeeded(f.cfg.Name, instant, []string{dst})
}

// resolve returns the first existing candidate, or "" with the paths tried.
func (f *MirrorFetcher) resolve(instant time.Time) (string, []string, error) {
	tried := make([]string, 0, len(f.cfg.Paths))
	for i, tmpl := range f.cfg.Paths {
		candidate := filepath.Join(f.cfg.Root, filepath.FromSlash(tmpl.Expand(instant, f.cfg.Layout.Location)))
		tried = append(tried, candidate)

		info, err := os.Stat(candidate)
		switch {
		case err == nil && info.Mode().IsRegular():
			return candidate, tried, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", tried, fmt.Errorf("stat mirror file: %w", err)
		}
		if i < len(f.cfg.Paths)-1 {
			f.logger.Debug("mirror file missing, trying alternate", "source", f.cfg.Name, "path", candidate)
		}
	}
	return "", tried, nil
}
