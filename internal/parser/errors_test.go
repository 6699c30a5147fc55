package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashtangalog/ashtanga/internal/errors"
)

func TestParseErrorMessage(t *testing.T) {
	err := NewDurationError("forever")
	assert.Equal(t, "invalid duration 'forever': could not parse duration", err.Error())

	formatted := err.FormatWithExamples()
	assert.Contains(t, formatted, "Valid examples:")
	assert.Contains(t, formatted, "  - 1h30m")
}

func TestParseErrorSentinels(t *testing.T) {
	assert.True(t, errors.Is(NewDurationError("x"), errors.ErrInvalidDuration))
	assert.True(t, errors.Is(NewDateError("x"), errors.ErrInvalidDate))
	assert.True(t, errors.Is(NewRangeError("x"), errors.ErrInvalidDate))
}

func TestToValidationError(t *testing.T) {
	ve := NewDateError("someday").ToValidationError()
	assert.Equal(t, "date", ve.Field)
	assert.Equal(t, "someday", ve.Value)
	assert.Equal(t, "Try: today, yesterday, 2026-03-14", ve.Suggestion)
	assert.True(t, errors.IsValidationError(ve))
	assert.True(t, errors.Is(ve, errors.ErrInvalidDate))
}
