// Package series reads forecast series written by the nowcasting model:
// one directory per run, {root}/{YYYYMMDD}/{HHMMSS}/pd{N}-min.png, where N is
// the lead time in minutes and every frame is a uint16 quantized raster.
package series

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/raster"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/couchcryptid/precip-ingest-service/internal/observability"
)

// ErrNoSeries is returned when the results directory holds no forecast run.
var ErrNoSeries = errors.New("no forecast series available")

var (
	dateDir  = regexp.MustCompile(`^\d{8}$`)
	timeDir  = regexp.MustCompile(`^\d{6}$`)
	stepFile = regexp.MustCompile(`^pd(\d+)-min\.png$`)
)

// Series is one decoded forecast run.
type Series struct {
	Dir   string
	Start time.Time

	// Steps are lead times in minutes, ascending; Frames[i] belongs to Steps[i].
	Steps  []int
	Frames []domain.EncodedFrame
}

// Point returns the physical value of cell in every frame, clamped to [0, upper].
func (s *Series) Point(c domain.Cell, upper float64) ([]float64, error) {
	out := make([]float64, len(s.Frames))
	for i, f := range s.Frames {
		if c.X < 0 || c.Y < 0 || c.X >= f.Width || c.Y >= f.Height {
			return nil, fmt.Errorf("%w: cell (%d, %d) outside %dx%d frame", domain.ErrOutOfBounds, c.X, c.Y, f.Width, f.Height)
		}
		out[i] = domain.Clamp(domain.DecodeSample(f.Samples[c.Y*f.Width+c.X]), 0, upper)
	}
	return out, nil
}

// Reader loads the most recent series under a results root, caching decoded runs.
type Reader struct {
	root    string
	cache   *lruCache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewReader creates a Reader keeping up to cacheSize decoded series.
func NewReader(root string, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Reader {
	return &Reader{
		root:    root,
		cache:   newLRUCache(cacheSize),
		metrics: metrics,
		logger:  logger,
	}
}

// Latest returns the most recent series, decoding it on first use.
func (r *Reader) Latest() (*Series, error) {
	dir, start, err := LatestDir(r.root)
	if err != nil {
		return nil, err
	}
	if s, ok := r.cache.get(dir); ok {
		r.metrics.SeriesCache.WithLabelValues("hit").Inc()
		return s, nil
	}
	r.metrics.SeriesCache.WithLabelValues("miss").Inc()

	s, err := Load(dir, start)
	if err != nil {
		return nil, err
	}
	r.logger.Info("forecast series loaded",
		"dir", dir,
		"start", start.Format(time.RFC3339),
		"steps", len(s.Steps),
	)
	r.cache.put(dir, s)
	return s, nil
}

// LatestDir finds the newest {YYYYMMDD}/{HHMMSS} run directory under root.
// The start time is read from the directory names as UTC.
func LatestDir(root string) (string, time.Time, error) {
	date, err := latestEntry(root, dateDir)
	if err != nil {
		return "", time.Time{}, err
	}
	clock, err := latestEntry(filepath.Join(root, date), timeDir)
	if err != nil {
		return "", time.Time{}, err
	}
	start, err := time.ParseInLocation("20060102150405", date+clock, time.UTC)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: bad run directory %s/%s", ErrNoSeries, date, clock)
	}
	return filepath.Join(root, date, clock), start, nil
}

func latestEntry(dir string, pattern *regexp.Regexp) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s missing", ErrNoSeries, dir)
		}
		return "", fmt.Errorf("read results: %w", err)
	}
	latest := ""
	for _, e := range entries {
		if e.IsDir() && pattern.MatchString(e.Name()) && e.Name() > latest {
			latest = e.Name()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w: nothing under %s", ErrNoSeries, dir)
	}
	return latest, nil
}

// Load decodes every pd{N}-min.png in dir, ordered by N.
func Load(dir string, start time.Time) (*Series, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}

	type step struct {
		minutes int
		name    string
	}
	var steps []step
	for _, e := range entries {
		m := stepFile.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		steps = append(steps, step{minutes: n, name: e.Name()})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s", ErrNoSeries, dir)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].minutes < steps[j].minutes })

	s := &Series{Dir: dir, Start: start}
	for _, st := range steps {
		frame, err := loadFrame(filepath.Join(dir, st.name))
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, st.minutes)
		s.Frames = append(s.Frames, frame)
	}
	return s, nil
}

func loadFrame(path string) (domain.EncodedFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.EncodedFrame{}, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	frame, err := raster.Decode(f, domain.Uint16)
	if err != nil {
		return domain.EncodedFrame{}, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}
