package config

import (
	"fmt"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
)

// Source kinds.
const (
	KindHTTP   = "http"
	KindMirror = "mirror"
)

// Source defines one upstream product: where it comes from, how often it is
// published, and how its artifacts are laid out.
type Source struct {
	Name          string        `yaml:"-"`
	Kind          string        `yaml:"kind"`
	Interval      time.Duration `yaml:"interval"`
	Delay         time.Duration `yaml:"delay"`
	TZOffsetHours int           `yaml:"tz_offset_hours"`
	Org           string        `yaml:"org"`
	Product       string        `yaml:"product"`

	// HTTP sources.
	LiveURL    string   `yaml:"live_url"`
	ArchiveURL string   `yaml:"archive_url"`
	BaseName   string   `yaml:"base_name"`
	Width      int      `yaml:"width"`
	Height     int      `yaml:"height"`
	Encodings  []string `yaml:"encodings"`

	// Mirror sources.
	Root     string   `yaml:"root"`
	Paths    []string `yaml:"paths"`
	FileName string   `yaml:"file_name"`
}

// DefaultSources returns the built-in MRMS and TJWF definitions.
func DefaultSources() map[string]Source {
	return map[string]Source{
		"mrms": {
			Name:       "mrms",
			Kind:       KindHTTP,
			Interval:   2 * time.Minute,
			Delay:      3*time.Minute + 10*time.Second,
			Org:        "ncep",
			Product:    "PrecipRate",
			LiveURL:    string(domain.MRMSLiveURL),
			ArchiveURL: string(domain.MRMSArchiveURL),
			BaseName:   string(domain.MRMSBaseName),
			Width:      7000,
			Height:     3500,
			Encodings:  []string{"int16", "uint16"},
		},
		"tjwf": {
			Name:          "tjwf",
			Kind:          KindMirror,
			Interval:      6 * time.Minute,
			TZOffsetHours: 8,
			Org:           "cma",
			Product:       "MCR",
			Root:          "/mnt/tjwf",
			Paths:         []string{string(domain.TJWFPrimary), string(domain.TJWFAlternate)},
			FileName:      string(domain.TJWFFileName),
		},
	}
}

// Location returns the fixed zone the source names its files in.
func (s Source) Location() *time.Location {
	if s.TZOffsetHours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", s.TZOffsetHours), s.TZOffsetHours*60*60)
}

// SampleTypes parses Encodings.
func (s Source) SampleTypes() ([]domain.SampleType, error) {
	types := make([]domain.SampleType, 0, len(s.Encodings))
	for _, e := range s.Encodings {
		st, err := domain.ParseSampleType(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
		types = append(types, st)
	}
	return types, nil
}

// Validate checks the fields required by the source's kind.
func (s Source) Validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", domain.ErrInvalidConfiguration, s.Interval)
	}
	if s.Delay < 0 {
		return fmt.Errorf("%w: delay must be non-negative, got %s", domain.ErrInvalidConfiguration, s.Delay)
	}
	if s.TZOffsetHours < -12 || s.TZOffsetHours > 14 {
		return fmt.Errorf("%w: tz_offset_hours out of range", domain.ErrInvalidConfiguration)
	}
	if s.Org == "" || s.Product == "" {
		return fmt.Errorf("%w: org and product are required", domain.ErrInvalidConfiguration)
	}
	switch s.Kind {
	case KindHTTP:
		if s.LiveURL == "" || s.BaseName == "" || s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: http source needs live_url, base_name and grid dimensions", domain.ErrInvalidConfiguration)
		}
		if _, err := s.SampleTypes(); err != nil {
			return err
		}
	case KindMirror:
		if s.Root == "" || len(s.Paths) == 0 || s.FileName == "" {
			return fmt.Errorf("%w: mirror source needs root, paths and file_name", domain.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidConfiguration, s.Kind)
	}
	return nil
}
