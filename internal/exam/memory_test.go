package exam_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/examloop/examloop/internal/exam"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func seed(t *testing.T, s exam.Store, n int) []exam.Question {
	t.Helper()
	ctx := context.Background()
	out := make([]exam.Question, 0, n)
	for i := 0; i < n; i++ {
		q := exam.Question{
			ID:              fmt.Sprintf("q%02d", i),
			CertificationID: "pmp",
			Type:            exam.TypeSelectOne,
			Text:            fmt.Sprintf("Question %d", i),
			Answers: []exam.AnswerChoice{
				{ID: "a1", Text: "Right", IsCorrect: true},
				{ID: "a2", Text: "Wrong"},
			},
			Explanation: "because",
		}
		if err := s.PutQuestion(ctx, q); err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func TestStartSessionVariantSizes(t *testing.T) {
	s := exam.NewInMemoryStore()
	seed(t, s, 20)
	ctx := context.Background()

	daily, err := s.StartSession(ctx, "u1", "pmp", exam.VariantDailyQuiz)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(daily.QuestionIDs) != 10 {
		t.Errorf("daily questions: got %d, want 10", len(daily.QuestionIDs))
	}
	if daily.QuizDate == "" {
		t.Errorf("daily session missing quiz date")
	}

	practice, err := s.StartSession(ctx, "u1", "pmp", exam.VariantPractice)
	if err != nil {
		t.Fatalf("practice: %v", err)
	}
	if len(practice.QuestionIDs) != 10 {
		t.Errorf("practice questions: got %d, want 10", len(practice.QuestionIDs))
	}
	if practice.QuizDate != "" {
		t.Errorf("practice session has quiz date %q", practice.QuizDate)
	}

	// a thin bank still starts a mock, just shorter
	mock, err := s.StartSession(ctx, "u1", "pmp", exam.VariantMock)
	if err != nil {
		t.Fatalf("mock: %v", err)
	}
	if len(mock.QuestionIDs) != 20 {
		t.Errorf("mock questions: got %d, want all 20", len(mock.QuestionIDs))
	}
}

func TestStartSessionEmptyBank(t *testing.T) {
	s := exam.NewInMemoryStore()
	_, err := s.StartSession(context.Background(), "u1", "pmp", exam.VariantPractice)
	if !errors.Is(err, exam.ErrEmptyBank) {
		t.Fatalf("want ErrEmptyBank, got %v", err)
	}
}

func TestDailyQuizOncePerDay(t *testing.T) {
	c := &clock{t: at("2026-09-01 09:00:00")}
	s := exam.NewInMemoryStoreAt(c.now)
	seed(t, s, 12)
	ctx := context.Background()

	first, err := s.StartSession(ctx, "u1", "pmp", exam.VariantDailyQuiz)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// relaunch mid-quiz resumes the same session and question set
	resumed, err := s.StartSession(ctx, "u1", "pmp", exam.VariantDailyQuiz)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.ID != first.ID {
		t.Fatalf("resume allocated a new session")
	}
	for i, id := range resumed.QuestionIDs {
		if id != first.QuestionIDs[i] {
			t.Fatalf("question set changed on resume")
		}
	}

	if _, err := s.Submit(ctx, first.ID, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = s.StartSession(ctx, "u1", "pmp", exam.VariantDailyQuiz)
	var done *exam.AlreadyCompletedError
	if !errors.As(err, &done) {
		t.Fatalf("want AlreadyCompletedError, got %v", err)
	}
	if done.ExamID != first.ID {
		t.Errorf("prior exam id: got %s, want %s", done.ExamID, first.ID)
	}

	// a different user is unaffected
	if _, err := s.StartSession(ctx, "u2", "pmp", exam.VariantDailyQuiz); err != nil {
		t.Errorf("other user blocked: %v", err)
	}

	// the next local day opens a fresh quiz
	c.t = at("2026-09-02 00:05:00")
	next, err := s.StartSession(ctx, "u1", "pmp", exam.VariantDailyQuiz)
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if next.ID == first.ID {
		t.Errorf("next day resumed yesterday's session")
	}
}

func TestSubmitScoresAndIdempotent(t *testing.T) {
	s := exam.NewInMemoryStore()
	seed(t, s, 10)
	ctx := context.Background()

	sess, err := s.StartSession(ctx, "u1", "pmp", exam.VariantPractice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// answer the first four correctly, leave the rest blank
	answers := make([]exam.AnswerSubmission, 0, 4)
	for _, qid := range sess.QuestionIDs[:4] {
		answers = append(answers, exam.AnswerSubmission{QuestionID: qid, AnswerIDs: []string{"a1"}})
	}

	got, err := s.Submit(ctx, sess.ID, answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.CorrectCount != 4 {
		t.Errorf("correct: got %d, want 4", got.CorrectCount)
	}
	if got.Score != 40 {
		t.Errorf("score: got %v, want 40", got.Score)
	}
	if got.Status != exam.StatusCompleted || got.CompletedAt == nil {
		t.Errorf("session not completed: %+v", got)
	}

	// a second submit cannot change the recorded result
	again, err := s.Submit(ctx, sess.ID, nil)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.CorrectCount != 4 || again.Score != 40 {
		t.Errorf("resubmit changed result: %+v", again)
	}
}

func TestSessionQuestionsSanitized(t *testing.T) {
	s := exam.NewInMemoryStore()
	seed(t, s, 10)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "u1", "pmp", exam.VariantPractice)
	qs, err := s.SessionQuestions(ctx, sess.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	for _, q := range qs {
		if q.Explanation != "" {
			t.Fatalf("explanation leaked mid-session")
		}
		for _, a := range q.Answers {
			if a.IsCorrect {
				t.Fatalf("answer key leaked mid-session")
			}
		}
	}
}

func TestReviewRequiresCompletion(t *testing.T) {
	s := exam.NewInMemoryStore()
	seed(t, s, 10)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "u1", "pmp", exam.VariantPractice)
	if _, err := s.Review(ctx, sess.ID); !errors.Is(err, exam.ErrNotCompleted) {
		t.Fatalf("want ErrNotCompleted, got %v", err)
	}

	s.Submit(ctx, sess.ID, []exam.AnswerSubmission{
		{QuestionID: sess.QuestionIDs[0], AnswerIDs: []string{"a2"}},
	})
	items, err := s.Review(ctx, sess.ID)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(items) != len(sess.QuestionIDs) {
		t.Fatalf("review items: got %d, want %d", len(items), len(sess.QuestionIDs))
	}
	first := items[0]
	if first.Correct {
		t.Errorf("wrong answer reviewed as correct")
	}
	if first.Question.Explanation == "" {
		t.Errorf("review hides the explanation")
	}
}

func TestWeeklyCompletions(t *testing.T) {
	c := &clock{t: at("2026-08-28 09:00:00")}
	s := exam.NewInMemoryStoreAt(c.now)
	seed(t, s, 12)
	ctx := context.Background()

	for _, day := range []string{"2026-08-28", "2026-08-29", "2026-08-31"} {
		c.t = at(day + " 09:00:00")
		sess, err := s.StartSession(ctx, "u1", "pmp", exam.VariantDailyQuiz)
		if err != nil {
			t.Fatalf("start %s: %v", day, err)
		}
		if _, err := s.Submit(ctx, sess.ID, nil); err != nil {
			t.Fatalf("submit %s: %v", day, err)
		}
	}

	got, err := s.WeeklyCompletions(ctx, "u1", "pmp", "2026-08-26", "2026-09-01")
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	want := []string{"2026-08-28", "2026-08-29", "2026-08-31"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExpireStale(t *testing.T) {
	c := &clock{t: at("2026-09-01 09:00:00")}
	s := exam.NewInMemoryStoreAt(c.now)
	seed(t, s, 10)
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "u1", "pmp", exam.VariantPractice)

	c.t = c.t.Add(50 * time.Hour)
	fresh, _ := s.StartSession(ctx, "u1", "pmp", exam.VariantPractice)

	n, err := s.ExpireStale(ctx, 48*time.Hour)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d sessions, want 1", n)
	}
	old, _ := s.GetSession(ctx, sess.ID)
	if old.Status != exam.StatusAbandoned {
		t.Errorf("stale session status: %s", old.Status)
	}
	kept, _ := s.GetSession(ctx, fresh.ID)
	if kept.Status != exam.StatusInProgress {
		t.Errorf("fresh session status: %s", kept.Status)
	}
}
