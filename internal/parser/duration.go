package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// durationPattern matches duration expressions like "90", "1h30m", "1.5h", "75 min".
var durationPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(h|hr|hrs|hour|hours|m|min|mins|minute|minutes|s|sec|secs|second|seconds)?\s*(?:(\d+(?:\.\d+)?)\s*(m|min|mins|minute|minutes))?$`)

// clockPattern matches "1:30" (hours:minutes) and "1:30:15".
var clockPattern = regexp.MustCompile(`^(\d+):([0-5]\d)(?::([0-5]\d))?$`)

// ParseDuration parses a practice length into whole seconds. A bare number
// is read as minutes.
// Supports formats like:
//   - "90" or "90m" or "90 minutes"
//   - "1h30m" or "1 hour 30 minutes"
//   - "1.5h"
//   - "1:30" or "1:30:00"
func ParseDuration(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, NewDurationError(input)
	}

	var total time.Duration
	if m := clockPattern.FindStringSubmatch(input); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		total = time.Duration(h)*time.Hour + time.Duration(min)*time.Minute
		if m[3] != "" {
			s, _ := strconv.Atoi(m[3])
			total += time.Duration(s) * time.Second
		}
	} else if d, err := time.ParseDuration(input); err == nil {
		total = d
	} else if m := durationPattern.FindStringSubmatch(input); m != nil {
		value, _ := strconv.ParseFloat(m[1], 64)
		total += unitToDuration(value, strings.ToLower(m[2]))
		if m[3] != "" {
			value, _ := strconv.ParseFloat(m[3], 64)
			total += unitToDuration(value, strings.ToLower(m[4]))
		}
	} else {
		return 0, NewDurationError(input)
	}

	seconds := int(math.Round(total.Seconds()))
	if seconds <= 0 {
		return 0, NewDurationError(input)
	}
	return seconds, nil
}

// unitToDuration converts a value and unit to a duration.
func unitToDuration(value float64, unit string) time.Duration {
	switch unit {
	case "h", "hr", "hrs", "hour", "hours":
		return time.Duration(value * float64(time.Hour))
	case "s", "sec", "secs", "second", "seconds":
		return time.Duration(value * float64(time.Second))
	default:
		return time.Duration(value * float64(time.Minute))
	}
}
