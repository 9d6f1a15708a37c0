package studykit

import (
	"context"
	"sync"
	"time"
)

// DayCell is one slot in the trailing-week calendar strip.
type DayCell struct {
	Date      string `json:"date"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	IsToday   bool   `json:"is_today"`
}

// WeekCalendar builds the seven-day strip ending today, oldest first. The
// server's completion list covers past days; today's cell is overridden by
// todayCompleted, which the caller derives from the daily quiz status so the
// strip updates the moment today's quiz is finished.
func WeekCalendar(completions []string, today time.Time, todayCompleted bool) []DayCell {
	done := make(map[string]bool, len(completions))
	for _, d := range completions {
		done[d] = true
	}

	cells := make([]DayCell, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		ds := day.Format(dateFormat)
		cell := DayCell{
			Date:      ds,
			Label:     day.Weekday().String()[:1],
			Completed: done[ds],
			IsToday:   i == 0,
		}
		if cell.IsToday {
			cell.Completed = todayCompleted
		}
		cells = append(cells, cell)
	}
	return cells
}

// Motivation picks the badge caption for the current streak.
func Motivation(streak int, todayDone bool) string {
	switch {
	case streak == 0:
		return "Start your streak today!"
	case !todayDone:
		return "Keep it going! Take today's quiz."
	case streak == 1:
		return "Great start! Come back tomorrow."
	case streak < 7:
		return "You're on a roll!"
	case streak < 30:
		return "A full week and counting!"
	default:
		return "Unstoppable!"
	}
}

// Refresher rate-limits dashboard fetches. The streak screen refreshes every
// time it regains focus, which on some devices fires in bursts; anything
// within the interval reuses the cached fetch.
type Refresher struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewRefresher() *Refresher {
	return &Refresher{interval: 3 * time.Second, now: time.Now}
}

// Allow reports whether enough time has passed since the last permitted
// refresh, and records the attempt when it has.
func (r *Refresher) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now()
	if !r.last.IsZero() && t.Sub(r.last) < r.interval {
		return false
	}
	r.last = t
	return true
}

// Dashboard is the assembled state behind the streak screen.
type Dashboard struct {
	Badge     StreakBadge `json:"badge"`
	Calendar  []DayCell   `json:"calendar"`
	TodayDone bool        `json:"today_done"`
	Caption   string      `json:"caption"`
}

// StreakDashboard fetches and caches the streak screen's data. Refreshes
// inside the rate window return the cached dashboard without touching the
// network.
type StreakDashboard struct {
	client    *Client
	refresher *Refresher
	certID    string
	now       func() time.Time

	mu     sync.Mutex
	cached Dashboard
	loaded bool
}

func NewStreakDashboard(client *Client, certificationID string) *StreakDashboard {
	return &StreakDashboard{
		client:    client,
		refresher: NewRefresher(),
		certID:    certificationID,
		now:       time.Now,
	}
}

// Refresh returns the current dashboard, fetching from the server at most
// once per rate window. The first call always fetches.
func (d *StreakDashboard) Refresh(ctx context.Context) (Dashboard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// consult the guard on every call so the first fetch arms it
	allowed := d.refresher.Allow()
	if d.loaded && !allowed {
		return d.cached, nil
	}

	badge, err := d.client.StreakBadge(ctx)
	if err != nil {
		return d.cached, err
	}
	status, err := d.client.DailyQuizStatus(ctx, d.certID)
	if err != nil {
		return d.cached, err
	}
	today := d.now()
	completions, err := d.client.WeeklyCompletions(ctx, d.certID, today.AddDate(0, 0, -6))
	if err != nil {
		return d.cached, err
	}

	d.cached = Dashboard{
		Badge:     badge,
		Calendar:  WeekCalendar(completions, today, status.HasTakenToday),
		TodayDone: status.HasTakenToday,
		Caption:   Motivation(badge.CurrentStreak, status.HasTakenToday),
	}
	d.loaded = true
	return d.cached, nil
}
