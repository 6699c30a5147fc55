package parser

import (
	"fmt"
	"strings"

	"github.com/ashtangalog/ashtanga/internal/errors"
)

// ParseError is an unparseable date, duration or range, with examples of
// accepted input.
type ParseError struct {
	Input    string
	Field    string
	Message  string
	Examples []string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatWithExamples returns the error message with example suggestions.
func (e *ParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// DurationExamples provides example duration formats.
var DurationExamples = []string{"90", "75m", "1h30m", "1.5h", "1:30"}

// DateExamples provides example date formats.
var DateExamples = []string{"today", "yesterday", "2026-03-14", "3 days ago", "last friday"}

// RangeExamples provides example period formats.
var RangeExamples = []string{"today", "this week", "last week", "this month", "last year"}

// NewDurationError creates a duration parse error with standard examples.
func NewDurationError(input string) *ParseError {
	return &ParseError{
		Input:    input,
		Field:    "duration",
		Message:  "could not parse duration",
		Examples: DurationExamples,
		Err:      errors.ErrInvalidDuration,
	}
}

// NewDateError creates a date parse error with standard examples.
func NewDateError(input string) *ParseError {
	return &ParseError{
		Input:    input,
		Field:    "date",
		Message:  "could not parse date",
		Examples: DateExamples,
		Err:      errors.ErrInvalidDate,
	}
}

// NewRangeError creates a period parse error with standard examples.
func NewRangeError(input string) *ParseError {
	return &ParseError{
		Input:    input,
		Field:    "period",
		Message:  "could not parse period",
		Examples: RangeExamples,
		Err:      errors.ErrInvalidDate,
	}
}

// ToValidationError converts a ParseError for consistent CLI handling.
func (e *ParseError) ToValidationError() *errors.ValidationError {
	n := min(3, len(e.Examples))
	return &errors.ValidationError{
		Field:      e.Field,
		Value:      e.Input,
		Message:    e.Message,
		Suggestion: fmt.Sprintf("Try: %s", strings.Join(e.Examples[:n], ", ")),
		Err:        e.Err,
	}
}
