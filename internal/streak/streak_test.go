package streak_test

import (
	"testing"
	"time"

	"github.com/examloop/examloop/internal/streak"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeEmpty(t *testing.T) {
	b := streak.Compute(nil, day("2026-09-01"))
	if b.CurrentStreak != 0 || b.LongestStreak != 0 {
		t.Fatalf("empty dates: got %+v", b)
	}
}

func TestComputeCurrentStreakIncludesToday(t *testing.T) {
	dates := []string{"2026-08-30", "2026-08-31", "2026-09-01"}
	b := streak.Compute(dates, day("2026-09-01"))
	if b.CurrentStreak != 3 {
		t.Errorf("current: got %d, want 3", b.CurrentStreak)
	}
	if b.LongestStreak != 3 {
		t.Errorf("longest: got %d, want 3", b.LongestStreak)
	}
	if b.LastActivityDate != "2026-09-01" {
		t.Errorf("last activity: got %q", b.LastActivityDate)
	}
}

func TestComputeMissingTodayKeepsStreak(t *testing.T) {
	// Activity through yesterday, nothing yet today: the streak holds.
	dates := []string{"2026-08-30", "2026-08-31"}
	b := streak.Compute(dates, day("2026-09-01"))
	if b.CurrentStreak != 2 {
		t.Fatalf("current: got %d, want 2", b.CurrentStreak)
	}
}

func TestComputeGapBreaksStreak(t *testing.T) {
	// Last activity two days ago: streak is over.
	dates := []string{"2026-08-28", "2026-08-29", "2026-08-30"}
	b := streak.Compute(dates, day("2026-09-01"))
	if b.CurrentStreak != 0 {
		t.Errorf("current: got %d, want 0", b.CurrentStreak)
	}
	if b.LongestStreak != 3 {
		t.Errorf("longest: got %d, want 3", b.LongestStreak)
	}
}

func TestComputeLongestOlderRun(t *testing.T) {
	dates := []string{
		"2026-08-10", "2026-08-11", "2026-08-12", "2026-08-13",
		"2026-08-31", "2026-09-01",
	}
	b := streak.Compute(dates, day("2026-09-01"))
	if b.CurrentStreak != 2 {
		t.Errorf("current: got %d, want 2", b.CurrentStreak)
	}
	if b.LongestStreak != 4 {
		t.Errorf("longest: got %d, want 4", b.LongestStreak)
	}
}

func TestComputeDuplicatesIgnored(t *testing.T) {
	dates := []string{"2026-09-01", "2026-09-01", "2026-08-31"}
	b := streak.Compute(dates, day("2026-09-01"))
	if b.CurrentStreak != 2 {
		t.Fatalf("current: got %d, want 2", b.CurrentStreak)
	}
}
