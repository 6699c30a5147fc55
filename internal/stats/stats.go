// Package stats derives practice statistics from journal records.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// TypeAggregate is the practice time spent on one practice type.
type TypeAggregate struct {
	Type     string `json:"type"`
	Sessions int    `json:"sessions"`
	Seconds  int    `json:"seconds"`
	LastDate string `json:"last_date"`
}

// Period summarizes sessions in a date range.
type Period struct {
	Sessions       int `json:"sessions"`
	Days           int `json:"days"`
	TotalMinutes   int `json:"total_minutes"`
	AverageMinutes int `json:"average_minutes"`
}

// Summary is the full statistics view.
type Summary struct {
	Total         Period          `json:"total"`
	TotalHours    int             `json:"total_hours"`
	Month         Period          `json:"month"`
	CurrentStreak int             `json:"current_streak"`
	LongestStreak int             `json:"longest_streak"`
	Breakthroughs int             `json:"breakthroughs"`
	FirstDate     string          `json:"first_date,omitempty"`
	LastDate      string          `json:"last_date,omitempty"`
	ByType        []TypeAggregate `json:"by_type"`
}

// Compute derives the summary as of today (a YYYY-MM-DD day). Records
// without a positive duration do not count as practice. Records dated after
// today are ignored.
func Compute(recs []*model.PracticeRecord, today string) Summary {
	s := Summary{ByType: []TypeAggregate{}}
	month := ""
	if len(today) >= 7 {
		month = today[:7]
	}

	var total, monthAgg periodAgg
	byType := map[string]*TypeAggregate{}
	days := map[string]bool{}

	for _, r := range recs {
		if r.Duration <= 0 || (today != "" && r.Date > today) {
			continue
		}
		total.add(r)
		if month != "" && len(r.Date) >= 7 && r.Date[:7] == month {
			monthAgg.add(r)
		}
		if r.HasBreakthrough() {
			s.Breakthroughs++
		}
		days[r.Date] = true

		agg, ok := byType[r.Type]
		if !ok {
			agg = &TypeAggregate{Type: r.Type}
			byType[r.Type] = agg
		}
		agg.Sessions++
		agg.Seconds += r.Duration
		if r.Date > agg.LastDate {
			agg.LastDate = r.Date
		}

		if s.FirstDate == "" || r.Date < s.FirstDate {
			s.FirstDate = r.Date
		}
		if r.Date > s.LastDate {
			s.LastDate = r.Date
		}
	}

	s.Total = total.period()
	s.Month = monthAgg.period()
	s.TotalHours = int(math.Round(float64(total.seconds) / 3600))
	s.CurrentStreak, s.LongestStreak = Streaks(days, today)

	for _, agg := range byType {
		s.ByType = append(s.ByType, *agg)
	}
	sort.Slice(s.ByType, func(i, j int) bool {
		if s.ByType[i].Seconds != s.ByType[j].Seconds {
			return s.ByType[i].Seconds > s.ByType[j].Seconds
		}
		return s.ByType[i].Type < s.ByType[j].Type
	})
	return s
}

type periodAgg struct {
	sessions int
	seconds  int
	days     map[string]bool
}

func (p *periodAgg) add(r *model.PracticeRecord) {
	if p.days == nil {
		p.days = map[string]bool{}
	}
	p.sessions++
	p.seconds += r.Duration
	p.days[r.Date] = true
}

func (p *periodAgg) period() Period {
	out := Period{
		Sessions:     p.sessions,
		Days:         len(p.days),
		TotalMinutes: int(math.Round(float64(p.seconds) / 60)),
	}
	if p.sessions > 0 {
		out.AverageMinutes = int(math.Round(float64(p.seconds) / float64(p.sessions) / 60))
	}
	return out
}

// Streaks returns the current and longest run of consecutive practice days.
// The current streak counts back from today, or from yesterday when today
// has no practice yet.
func Streaks(days map[string]bool, today string) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}
	dates := make([]time.Time, 0, len(days))
	for d := range days {
		t, err := time.Parse(model.DateLayout, d)
		if err != nil {
			continue
		}
		dates = append(dates, t)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	run := 0
	for i, d := range dates {
		if i > 0 && d.Sub(dates[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	t, err := time.Parse(model.DateLayout, today)
	if err != nil {
		return 0, longest
	}
	if !days[today] {
		t = t.AddDate(0, 0, -1)
	}
	for days[t.Format(model.DateLayout)] {
		current++
		t = t.AddDate(0, 0, -1)
	}
	return current, longest
}
