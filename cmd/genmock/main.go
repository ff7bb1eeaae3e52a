// Command genmock writes local fixtures for exercising the service without
// upstream access: a populated TJWF-style mirror tree for the mirror source,
// and a forecast series under RESULTS_DIR for the point API.
//
// Usage:
//
//	go run ./cmd/genmock -mirror-root /tmp/tjwf -start 20230101000000 -end 20230101010000 [-alternate]
//	go run ./cmd/genmock -series -frames 18
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/adapter/raster"
	"github.com/couchcryptid/precip-ingest-service/internal/adapter/storage"
	"github.com/couchcryptid/precip-ingest-service/internal/config"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/couchcryptid/precip-ingest-service/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	mirrorRoot := flag.String("mirror-root", "", "write mirror files for the tjwf source under this directory")
	alternate := flag.Bool("alternate", false, "use the alternate RADAR_MOSAIC mirror layout")
	start := flag.String("start", "", "mirror range start, YYYYMMDDhhmmss UTC")
	end := flag.String("end", "", "mirror range end, YYYYMMDDhhmmss UTC")
	series := flag.Bool("series", false, "write a forecast series under RESULTS_DIR")
	frames := flag.Int("frames", 18, "number of forecast frames")
	flag.Parse()

	if *mirrorRoot == "" && !*series {
		flag.Usage()
		return fmt.Errorf("nothing to do: pass -mirror-root and/or -series")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store := storage.New()

	if *mirrorRoot != "" {
		from, to, err := config.ParseRange(*start, *end, 0, time.Now())
		if err != nil {
			return err
		}
		n, err := writeMirror(store, cfg, *mirrorRoot, *alternate, from, to)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d mirror files under %s\n", n, *mirrorRoot)
	}

	if *series {
		dir, err := writeSeries(store, cfg, *frames, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d frames to %s\n", *frames, dir)
	}
	return nil
}

func writeMirror(store *storage.Store, cfg *config.Config, root string, alternate bool, start, end time.Time) (int, error) {
	def, err := cfg.Lookup("tjwf")
	if err != nil {
		return 0, err
	}
	tmpl := domain.PathTemplate(def.Paths[0])
	if alternate {
		if len(def.Paths) < 2 {
			return 0, fmt.Errorf("source %s has no alternate path", def.Name)
		}
		tmpl = domain.PathTemplate(def.Paths[1])
	}

	instants := pipeline.Instants(start, end, def.Interval)
	for _, t := range instants {
		path := filepath.Join(root, filepath.FromSlash(tmpl.Expand(t, def.Location())))
		payload := fmt.Sprintf("mock %s %s\n", def.Product, t.UTC().Format(time.RFC3339))
		if err := store.WriteAtomic(path, strings.NewReader(payload)); err != nil {
			return 0, err
		}
	}
	return len(instants), nil
}

// writeSeries writes pd{N}-min.png frames covering the result grid. Values
// form a rain cell drifting east, growing by one unit per frame.
func writeSeries(store *storage.Store, cfg *config.Config, frames int, now time.Time) (string, error) {
	if frames <= 0 {
		return "", fmt.Errorf("frames must be positive")
	}
	width := int(math.Round((cfg.ResultBox.MaxLng-cfg.ResultBox.MinLng)/cfg.ResolutionLng)) + 1
	height := int(math.Round((cfg.ResultBox.MaxLat-cfg.ResultBox.MinLat)/cfg.ResolutionLat)) + 1

	start := domain.RoundDown(now, cfg.FrameInterval)
	dir := filepath.Join(cfg.ResultsDir, start.Format("20060102"), start.Format("150405"))
	step := int(cfg.FrameInterval / time.Minute)

	for i := 0; i < frames; i++ {
		frame := domain.Frame{Width: width, Height: height, Values: make([]float64, width*height)}
		cx, cy := width/4+i*width/(2*frames), height/2
		radius := float64(min(width, height)) / 8
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				d := math.Hypot(float64(x-cx), float64(y-cy))
				if d < radius {
					frame.Values[y*width+x] = (1 - d/radius) * float64(10+i)
				}
			}
		}
		encoded, err := domain.Encode(frame, domain.Uint16)
		if err != nil {
			return "", err
		}
		path := filepath.Join(dir, fmt.Sprintf("pd%d-min.png", (i+1)*step))
		if err := store.WriteFunc(path, func(w io.Writer) error {
			return raster.Encode(w, encoded)
		}); err != nil {
			return "", err
		}
	}
	return dir, nil
}
