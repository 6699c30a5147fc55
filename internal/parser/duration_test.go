package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/errors"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"bare_minutes", "90", 5400},
		{"go_duration", "1h30m", 5400},
		{"go_seconds", "45s", 45},
		{"minutes_m", "75m", 4500},
		{"minutes_word", "75 minutes", 4500},
		{"minutes_min", "30min", 1800},
		{"hours_word", "2 hours", 7200},
		{"hours_hr", "2hr", 7200},
		{"decimal_hours", "1.5h", 5400},
		{"spaced_combined", "1h 30m", 5400},
		{"clock", "1:30", 5400},
		{"clock_seconds", "1:05:30", 3930},
		{"whitespace", "  60  ", 3600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "0", "0m", "1:75", "-5m", "h30"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDuration(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidDuration))
		})
	}
}
