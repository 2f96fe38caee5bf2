package stats

import "time"

// Streaks are the consecutive-day views derived from the daily set.
type Streaks struct {
	Longest int `json:"longestStreak"`
	Current int `json:"currentStreak"`
}

const dayLayout = "2006-01-02"

// ComputeStreaks scans the (date-ascending) daily contributions.
// Longest counts the best run of consecutive calendar days; Current
// counts the run ending today or yesterday relative to now.
func ComputeStreaks(days []DailyContribution, now time.Time) Streaks {
	if len(days) == 0 {
		return Streaks{}
	}

	active := make(map[string]bool, len(days))
	for _, d := range days {
		active[d.Date] = true
	}

	var s Streaks
	run := 0
	var prev time.Time
	for _, d := range days {
		t, err := time.Parse(dayLayout, d.Date)
		if err != nil {
			continue
		}
		if run > 0 && t.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		prev = t
		if run > s.Longest {
			s.Longest = run
		}
	}

	today := now.UTC().Format(dayLayout)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(dayLayout)
	anchor := ""
	switch {
	case active[today]:
		anchor = today
	case active[yesterday]:
		anchor = yesterday
	default:
		return s
	}

	t, err := time.Parse(dayLayout, anchor)
	if err != nil {
		return s
	}
	for active[t.Format(dayLayout)] {
		s.Current++
		t = t.AddDate(0, 0, -1)
	}
	return s
}
