// Package streak derives consecutive-day streaks from per-day activity dates.
package streak

import (
	"sort"
	"time"
)

const dateFormat = "2006-01-02"

// Badge is the server's view of a user's streak.
type Badge struct {
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
}

// Compute derives the badge from a set of local activity dates (YYYY-MM-DD).
// The current streak counts back from today, or from yesterday when today has
// no activity yet: missing today does not break a streak until the day is
// over.
func Compute(dates []string, today time.Time) Badge {
	if len(dates) == 0 {
		return Badge{}
	}
	seen := make(map[string]bool, len(dates))
	uniq := make([]string, 0, len(dates))
	for _, d := range dates {
		if !seen[d] {
			seen[d] = true
			uniq = append(uniq, d)
		}
	}
	sort.Strings(uniq)

	day := truncate(today)
	cur := 0
	if !seen[day.Format(dateFormat)] {
		day = day.AddDate(0, 0, -1)
	}
	for seen[day.Format(dateFormat)] {
		cur++
		day = day.AddDate(0, 0, -1)
	}

	longest, run := 0, 0
	var prev time.Time
	for i, d := range uniq {
		t, err := time.ParseInLocation(dateFormat, d, today.Location())
		if err != nil {
			continue
		}
		if i > 0 && prev.AddDate(0, 0, 1).Equal(t) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = t
	}
	if cur > longest {
		longest = cur
	}

	return Badge{
		CurrentStreak:    cur,
		LongestStreak:    longest,
		LastActivityDate: uniq[len(uniq)-1],
	}
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
