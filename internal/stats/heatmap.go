package stats

import (
	"time"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// Heatmap intensity levels.
const (
	LevelNone = iota
	LevelLight
	LevelMedium
	LevelStrong
	LevelFull
)

// Cell is one day of the heatmap.
type Cell struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
	Seconds  int    `json:"seconds"`
	Level    int    `json:"level"`
	Moon     string `json:"moon,omitempty"`
}

// Level buckets a day's practice time into five intensities.
func Level(seconds int) int {
	minutes := seconds / 60
	switch {
	case seconds <= 0:
		return LevelNone
	case minutes < 30:
		return LevelLight
	case minutes < 60:
		return LevelMedium
	case minutes < 90:
		return LevelStrong
	default:
		return LevelFull
	}
}

// Heatmap returns one cell per day from `from` to `to` inclusive, oldest
// first. Both bounds are YYYY-MM-DD days.
func Heatmap(recs []*model.PracticeRecord, from, to string) ([]Cell, error) {
	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		start, end = end, start
	}

	type dayAgg struct{ sessions, seconds int }
	byDay := map[string]*dayAgg{}
	for _, r := range recs {
		if r.Duration <= 0 {
			continue
		}
		d := byDay[r.Date]
		if d == nil {
			d = &dayAgg{}
			byDay[r.Date] = d
		}
		d.sessions++
		d.seconds += r.Duration
	}

	var cells []Cell
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		day := t.Format(model.DateLayout)
		c := Cell{Date: day, Moon: MoonPhase(day)}
		if d := byDay[day]; d != nil {
			c.Sessions = d.sessions
			c.Seconds = d.seconds
		}
		c.Level = Level(c.Seconds)
		cells = append(cells, c)
	}
	return cells, nil
}

// Window returns the from/to days of a heatmap of n days ending today,
// shifted back by offset windows.
func Window(today string, n, offset int) (from, to string, err error) {
	t, err := time.Parse(model.DateLayout, today)
	if err != nil {
		return "", "", err
	}
	if n < 1 {
		n = 1
	}
	end := t.AddDate(0, 0, -offset*n)
	start := end.AddDate(0, 0, -(n - 1))
	return start.Format(model.DateLayout), end.Format(model.DateLayout), nil
}
