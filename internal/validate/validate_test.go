package validate

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/errors"
)

// =============================================================================
// Length validators
// =============================================================================

func TestLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{"simple", "Primary", false},
		{"max_length", strings.Repeat("a", MaxLabelLength), false},
		{"multibyte_counts_runes", strings.Repeat("é", MaxLabelLength), false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"too_long", strings.Repeat("a", MaxLabelLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Label(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptionNotes(t *testing.T) {
	assert.NoError(t, OptionNotes(""))
	assert.NoError(t, OptionNotes(strings.Repeat("n", MaxOptionNotesLength)))
	assert.Error(t, OptionNotes(strings.Repeat("n", MaxOptionNotesLength+1)))
}

func TestNotesAndBreakthrough(t *testing.T) {
	assert.NoError(t, Notes(strings.Repeat("x", MaxNotesLength)))
	assert.Error(t, Notes(strings.Repeat("x", MaxNotesLength+1)))

	assert.NoError(t, Breakthrough(""))
	assert.NoError(t, Breakthrough("first drop back"))
	err := Breakthrough(strings.Repeat("b", MaxBreakthroughLength+1))
	require.Error(t, err)
	ve, ok := errors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "breakthrough", ve.Field)
	assert.Contains(t, ve.Suggestion, "20")
}

func TestDuration(t *testing.T) {
	assert.NoError(t, Duration(0))
	assert.NoError(t, Duration(5400))
	assert.ErrorIs(t, Duration(-1), errors.ErrInvalidDuration)
	assert.NoError(t, Duration(MaxEnteredDuration+1))
}

func TestEnteredDuration(t *testing.T) {
	assert.NoError(t, EnteredDuration(MaxEnteredDuration))
	assert.ErrorIs(t, EnteredDuration(-1), errors.ErrInvalidDuration)
	assert.ErrorIs(t, EnteredDuration(MaxEnteredDuration+1), errors.ErrInvalidDuration)
}

// =============================================================================
// Dates
// =============================================================================

func TestDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{"2026-01-18", false},
		{"2024-02-29", false},
		{"2025-02-29", true},
		{"2026-13-01", true},
		{"2026-1-18", true},
		{"18/01/2026", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := Date(tt.date)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidDate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPracticeDate(t *testing.T) {
	now := time.Date(2026, 1, 18, 23, 30, 0, 0, time.Local)

	assert.NoError(t, PracticeDate("2026-01-18", now))
	assert.NoError(t, PracticeDate("2025-12-31", now))
	assert.ErrorIs(t, PracticeDate("2026-01-19", now), errors.ErrFutureDate)
	assert.ErrorIs(t, PracticeDate("not-a-date", now), errors.ErrInvalidDate)
}

// =============================================================================
// Account fields
// =============================================================================

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("yogi@example.com"))
	assert.Error(t, Email(""))
	assert.Error(t, Email("yogi"))
	assert.Error(t, Email("yogi@localhost"))
	assert.Error(t, Email("Yogi <yogi@example.com>"))
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"letters_and_digits", "practice108", false},
		{"exactly_min", "abcdefg1", false},
		{"too_short", "abc1", true},
		{"no_digit", "practiceonly", true},
		{"no_letter", "1234567890", true},
		{"non_ascii_letters_only", "éééééé12", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerificationCode(t *testing.T) {
	assert.NoError(t, VerificationCode("012345"))
	assert.Error(t, VerificationCode("12345"))
	assert.Error(t, VerificationCode("12345a"))
}

func TestProfileFields(t *testing.T) {
	assert.NoError(t, ProfileName("Ashtanga Practitioner"))
	assert.Error(t, ProfileName(" "))
	assert.Error(t, ProfileName(strings.Repeat("n", MaxProfileNameLength+1)))
	assert.NoError(t, Signature(""))
	assert.Error(t, Signature(strings.Repeat("s", MaxSignatureLength+1)))
}

func TestNonEmpty(t *testing.T) {
	assert.NoError(t, NonEmpty("field", "value"))
	assert.Error(t, NonEmpty("field", "\t"))
}

// =============================================================================
// Sanitizing
// =============================================================================

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "Primary", SanitizeLabel("  Pri\x00mary\n "))
	// "e" + combining acute composes to a single rune.
	assert.Equal(t, "Café", SanitizeLabel("Café"))
}

func TestSanitizeNote(t *testing.T) {
	assert.Equal(t, "line1\nline2\nline3", SanitizeNote(" line1\r\nline2\rline3 "))
	assert.Equal(t, "ab", SanitizeNote("a\x00b"))
}

func TestSameLabel(t *testing.T) {
	assert.True(t, SameLabel("Primary", "PRIMARY"))
	assert.True(t, SameLabel("Rest  Day", "rest day"))
	assert.True(t, SameLabel("Café", "CAFÉ"))
	assert.False(t, SameLabel("Primary", "Second"))
}

func TestStripControlChars(t *testing.T) {
	assert.Equal(t, "a\nb\tc", StripControlChars("a\nb\tc\x07"))
}

func TestIsPathTraversal(t *testing.T) {
	assert.False(t, IsPathTraversal("2026-01/2026-01-18/a.jpg"))
	assert.True(t, IsPathTraversal("../etc/passwd"))
	assert.True(t, IsPathTraversal("2026-01/../../x"))
	assert.True(t, IsPathTraversal("/abs/path"))
}

func TestIsWithinDirectory(t *testing.T) {
	base := t.TempDir()
	assert.True(t, IsWithinDirectory(filepath.Join(base, "a", "b.jpg"), base))
	assert.True(t, IsWithinDirectory(base, base))
	assert.False(t, IsWithinDirectory(filepath.Join(base, "..", "other"), base))
}
