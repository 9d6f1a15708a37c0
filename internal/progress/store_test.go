package progress_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examloop/examloop/internal/db"
	"github.com/examloop/examloop/internal/exam"
	"github.com/examloop/examloop/internal/progress"
)

func newTestStore(t *testing.T, now func() time.Time) (*progress.Store, exam.Store) {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file::memory:?cache=shared&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	bank := exam.NewInMemoryStore()
	if err := bank.PutQuestion(ctx, exam.Question{
		ID:              "q1",
		CertificationID: "pmp",
		Type:            exam.TypeSelectOne,
		Text:            "Pick the right one",
		Answers: []exam.AnswerChoice{
			{ID: "a1", Text: "Right", IsCorrect: true},
			{ID: "a2", Text: "Wrong"},
		},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return progress.NewStoreAt(conn, bank, now), bank
}

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRecordAnswerGrades(t *testing.T) {
	now := at("2026-09-01 10:00:00")
	store, _ := newTestStore(t, func() time.Time { return now })
	ctx := context.Background()

	ok, err := store.RecordAnswer(ctx, "u1", "q1", "a1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !ok {
		t.Errorf("correct answer reported incorrect")
	}

	ok, err = store.RecordAnswer(ctx, "u1", "q1", "a2")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if ok {
		t.Errorf("wrong answer reported correct")
	}

	if _, err := store.RecordAnswer(ctx, "u1", "missing", "a1"); !errors.Is(err, progress.ErrQuestionNotFound) {
		t.Fatalf("want ErrQuestionNotFound, got %v", err)
	}
}

func TestActivityDatesDistinctOrdered(t *testing.T) {
	now := at("2026-09-01 10:00:00")
	store, _ := newTestStore(t, func() time.Time { return now })
	ctx := context.Background()

	record := func(day string) {
		t.Helper()
		now = at(day + " 10:00:00")
		if _, err := store.RecordAnswer(ctx, "u1", "q1", "a1"); err != nil {
			t.Fatalf("record %s: %v", day, err)
		}
	}

	record("2026-08-30")
	record("2026-08-30") // same day twice collapses to one date
	record("2026-09-01")
	record("2026-08-29")

	dates, err := store.ActivityDates(ctx, "u1")
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	want := []string{"2026-08-29", "2026-08-30", "2026-09-01"}
	if len(dates) != len(want) {
		t.Fatalf("got %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("got %v, want %v", dates, want)
		}
	}

	other, err := store.ActivityDates(ctx, "u2")
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other user's dates: %v", other)
	}
}
