package stats

import "sort"

// Moon phases marked on the practice calendar. Ashtanga practitioners
// traditionally rest on new and full moon days.
const (
	MoonNew  = "new"
	MoonFull = "full"
)

// MoonDay is a new or full moon day.
type MoonDay struct {
	Date  string `json:"date"`
	Phase string `json:"phase"`
}

// moonDays maps YYYY-MM-DD to its phase. Days outside the table carry no
// marker.
var moonDays = map[string]string{
	"2026-01-03": MoonFull,
	"2026-01-19": MoonNew,
	"2026-02-02": MoonFull,
	"2026-02-17": MoonNew,
	"2026-03-03": MoonFull,
	"2026-03-19": MoonNew,
	"2026-04-02": MoonFull,
	"2026-04-17": MoonNew,
	"2026-05-02": MoonFull,
	"2026-05-17": MoonNew,
	"2026-05-31": MoonFull,
	"2026-06-15": MoonNew,
	"2026-06-30": MoonFull,
	"2026-07-14": MoonNew,
	"2026-07-29": MoonFull,
	"2026-08-13": MoonNew,
	"2026-08-28": MoonFull,
	"2026-09-11": MoonNew,
	"2026-09-27": MoonFull,
	"2026-10-10": MoonNew,
	"2026-10-26": MoonFull,
	"2026-11-09": MoonNew,
	"2026-11-24": MoonFull,
	"2026-12-09": MoonNew,
	"2026-12-24": MoonFull,
}

// MoonPhase returns MoonNew or MoonFull for a moon day and "" otherwise.
func MoonPhase(date string) string {
	return moonDays[date]
}

// MoonDays lists the moon days from `from` to `to` inclusive, oldest first.
func MoonDays(from, to string) []MoonDay {
	var out []MoonDay
	for date, phase := range moonDays {
		if date >= from && date <= to {
			out = append(out, MoonDay{Date: date, Phase: phase})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
