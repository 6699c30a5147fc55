// Package parser turns human input into practice dates, durations and ranges.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// isoDate matches a literal YYYY-MM-DD day.
var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// periodRegex matches period expressions like "this week", "last month".
var periodRegex = regexp.MustCompile(`(?i)^(this|current|last|previous)\s+(day|week|month|year)$`)

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate resolves a day expression ("2026-03-14", "today", "yesterday",
// "3 days ago", "last friday") relative to now and returns it as YYYY-MM-DD.
func ParseDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case "", "today", "now":
		return now.Format(model.DateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(model.DateLayout), nil
	}

	if isoDate.MatchString(input) {
		if _, err := time.ParseInLocation(model.DateLayout, input, now.Location()); err != nil {
			return "", NewDateError(input)
		}
		return input, nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		DefaultTimezone:     now.Location(),
		PreferredDateSource: dateparser.Past,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return "", NewDateError(input)
	}
	return result.Time.In(now.Location()).Format(model.DateLayout), nil
}

// DateRange is an inclusive range of practice days.
type DateRange struct {
	From string
	To   string
}

// ParseRange resolves a period expression ("this month", "last week",
// "this year") to the inclusive days it covers. The current period ends today.
func ParseRange(input string, now time.Time) (DateRange, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	today := Day(now)

	if input == "today" {
		d := today.Format(model.DateLayout)
		return DateRange{From: d, To: d}, nil
	}
	if input == "yesterday" {
		d := today.AddDate(0, 0, -1).Format(model.DateLayout)
		return DateRange{From: d, To: d}, nil
	}

	match := periodRegex.FindStringSubmatch(input)
	if match == nil {
		return DateRange{}, NewRangeError(input)
	}
	previous := match[1] == "last" || match[1] == "previous"

	var start, end time.Time
	switch match[2] {
	case "day":
		start = today
		if previous {
			start = start.AddDate(0, 0, -1)
		}
		end = start
	case "week":
		// Weeks start on Monday.
		weekday := int(today.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = today.AddDate(0, 0, -weekday+1)
		if previous {
			start = start.AddDate(0, 0, -7)
		}
		end = start.AddDate(0, 0, 6)
	case "month":
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		if previous {
			start = start.AddDate(0, -1, 0)
		}
		end = start.AddDate(0, 1, -1)
	case "year":
		start = time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
		if previous {
			start = start.AddDate(-1, 0, 0)
		}
		end = start.AddDate(1, 0, -1)
	}
	if end.After(today) {
		end = today
	}
	return DateRange{From: start.Format(model.DateLayout), To: end.Format(model.DateLayout)}, nil
}
