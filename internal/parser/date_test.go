package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/errors"
)

// Saturday.
var refNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "2026-03-14"},
		{"today", "2026-03-14"},
		{"Today", "2026-03-14"},
		{"yesterday", "2026-03-13"},
		{"2026-02-28", "2026-02-28"},
		{"3 days ago", "2026-03-11"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input, refNow)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, input := range []string{"2026-02-30", "not a date at all"} {
		_, err := ParseDate(input, refNow)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, errors.ErrInvalidDate))
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		input    string
		from, to string
	}{
		{"today", "2026-03-14", "2026-03-14"},
		{"yesterday", "2026-03-13", "2026-03-13"},
		{"this week", "2026-03-09", "2026-03-14"},
		{"last week", "2026-03-02", "2026-03-08"},
		{"this month", "2026-03-01", "2026-03-14"},
		{"last month", "2026-02-01", "2026-02-28"},
		{"previous year", "2025-01-01", "2025-12-31"},
		{"This Year", "2026-01-01", "2026-03-14"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := ParseRange(tt.input, refNow)
			require.NoError(t, err)
			assert.Equal(t, tt.from, r.From)
			assert.Equal(t, tt.to, r.To)
		})
	}

	_, err := ParseRange("next week", refNow)
	assert.Error(t, err)
}

func TestDay(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), Day(refNow))
}
