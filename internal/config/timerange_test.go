package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		start, end, err := ParseRange("", "", 0, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 6, 8, 12, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2023, 6, 14, 12, 0, 0, 0, time.UTC), end)
	})

	t.Run("explicit utc", func(t *testing.T) {
		start, end, err := ParseRange("20230101000000", "20230101010000", 0, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC), end)
		assert.Equal(t, time.UTC, start.Location())
	})

	t.Run("offset", func(t *testing.T) {
		start, _, err := ParseRange("20230101080000", "20230101090000", 8, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
	})
}

func TestParseRange_Errors(t *testing.T) {
	now := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		start, end string
		offset     int
	}{
		{"bad start", "2023-01-01", "", 0},
		{"bad end", "", "yesterday", 0},
		{"inverted", "20230102000000", "20230101000000", 0},
		{"offset out of range", "", "", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseRange(tt.start, tt.end, tt.offset, now)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}
