package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/examloop/examloop/internal/exam"
)

func TestExpireStaleMarksOldSessions(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	store := exam.NewInMemoryStoreAt(clock)
	ctx := context.Background()

	if err := store.PutQuestion(ctx, exam.Question{
		ID:              "q1",
		CertificationID: "pmp",
		Type:            exam.TypeSelectOne,
		Text:            "Q",
		Answers: []exam.AnswerChoice{
			{ID: "a1", Text: "Right", IsCorrect: true},
			{ID: "a2", Text: "Wrong"},
		},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sess, err := store.StartSession(ctx, "u1", "pmp", exam.VariantPractice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	now = now.Add(30 * time.Hour)
	s := New(store, 24*time.Hour)
	s.expireStale()

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != exam.StatusAbandoned {
		t.Fatalf("status after expiry: %s", got.Status)
	}
}
