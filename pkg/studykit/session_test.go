package studykit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/examloop/examloop/pkg/studykit"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// fakeAPI is a minimal exam server: one fixed session, two questions, and a
// switchable submit failure.
type fakeAPI struct {
	failSubmit  bool
	submitCalls int
	submitted   []studykit.AnswerPayload
	alreadyDone bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/exams/start", func(w http.ResponseWriter, r *http.Request) {
		if f.alreadyDone {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":   "daily_quiz_completed",
				"exam_id": "prior-exam",
			})
			return
		}
		writeJSON(w, http.StatusOK, studykit.Session{
			ExamID:      "exam-1",
			Variant:     studykit.VariantPractice,
			QuestionIDs: []string{"q1", "q2"},
			Status:      "in_progress",
			StartedAt:   time.Now().UnixMilli(),
		})
	})
	mux.HandleFunc("/exams/exam-1/questions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"questions": []studykit.Question{
				{ID: "q1", Type: studykit.TypeSelectOne, Text: "Q1",
					Answers: []studykit.Answer{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}}},
				{ID: "q2", Type: studykit.TypeDragAndMatch, Text: "Q2",
					Match: &studykit.Match{LeftItems: []string{"l1", "l2"}, RightItems: []string{"r1", "r2"}}},
			},
		})
	})
	mux.HandleFunc("/exams/exam-1/submit", func(w http.ResponseWriter, r *http.Request) {
		f.submitCalls++
		if f.failSubmit {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		var body struct {
			Answers []studykit.AnswerPayload `json:"answers"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.submitted = body.Answers
		writeJSON(w, http.StatusOK, studykit.SubmitResult{Score: 50, CorrectAnswers: 1, TotalQuestions: 2})
	})
	return mux
}

func newTestController(t *testing.T, api *fakeAPI, c *clock) (*studykit.Controller, *studykit.ActivityStore) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	activity := studykit.NewActivityStoreAt(studykit.NewMemKV(), c.now)
	return studykit.NewController(studykit.NewClient(srv.URL, "tok"), activity), activity
}

func TestControllerHappyPath(t *testing.T) {
	c := &clock{t: at("2026-09-01 10:00:00")}
	api := &fakeAPI{}
	ctrl, activity := newTestController(t, api, c)

	out, err := ctrl.Start(context.Background(), studykit.VariantPractice, "pmp")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if out.AlreadyCompleted || out.Session.ExamID != "exam-1" {
		t.Fatalf("outcome: %+v", out)
	}
	if ctrl.State() != studykit.StateInProgress {
		t.Fatalf("state: %v", ctrl.State())
	}

	if n := ctrl.Unanswered(); n != 2 {
		t.Fatalf("unanswered: got %d, want 2", n)
	}
	if err := ctrl.SelectAnswer("q1", studykit.Selection{AnswerIDs: []string{"a"}}); err != nil {
		t.Fatalf("select q1: %v", err)
	}
	if err := ctrl.SelectAnswer("q2", studykit.Selection{Matches: map[string]string{"l1": "r1", "l2": "r2"}}); err != nil {
		t.Fatalf("select q2: %v", err)
	}
	if n := ctrl.Unanswered(); n != 0 {
		t.Fatalf("unanswered after selecting: got %d", n)
	}

	c.advance(9 * time.Minute)
	res, err := ctrl.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.TotalQuestions != 2 {
		t.Errorf("result: %+v", res)
	}
	if ctrl.State() != studykit.StateCompleted {
		t.Errorf("state after submit: %v", ctrl.State())
	}
	if len(api.submitted) != 2 {
		t.Errorf("server got %d answers", len(api.submitted))
	}

	a := activity.GetTodayActivity()
	if a.QuestionsAnswered != 2 {
		t.Errorf("questions tracked: got %d, want 2", a.QuestionsAnswered)
	}
	if a.PracticeMinutes != 9 {
		t.Errorf("minutes tracked: got %d, want 9", a.PracticeMinutes)
	}
}

func TestControllerDailyAlreadyCompleted(t *testing.T) {
	c := &clock{t: at("2026-09-01 10:00:00")}
	api := &fakeAPI{alreadyDone: true}
	ctrl, _ := newTestController(t, api, c)

	out, err := ctrl.Start(context.Background(), studykit.VariantDailyQuiz, "pmp")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !out.AlreadyCompleted || out.PriorExamID != "prior-exam" {
		t.Fatalf("outcome: %+v", out)
	}
	if ctrl.State() != studykit.StateNotStarted {
		t.Errorf("state: %v", ctrl.State())
	}
}

func TestControllerIncompleteSubmit(t *testing.T) {
	c := &clock{t: at("2026-09-01 10:00:00")}
	api := &fakeAPI{}
	ctrl, _ := newTestController(t, api, c)

	if _, err := ctrl.Start(context.Background(), studykit.VariantPractice, "pmp"); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctrl.SelectAnswer("q1", studykit.Selection{AnswerIDs: []string{"a"}})

	_, err := ctrl.Submit(context.Background(), false)
	var inc *studykit.IncompleteError
	if !errors.As(err, &inc) || inc.Unanswered != 1 {
		t.Fatalf("want IncompleteError{1}, got %v", err)
	}
	if api.submitCalls != 0 {
		t.Fatalf("incomplete submit reached the server")
	}

	// forced submit goes through with the gap
	if _, err := ctrl.Submit(context.Background(), true); err != nil {
		t.Fatalf("forced submit: %v", err)
	}
}

func TestControllerSubmitFailureRetryable(t *testing.T) {
	c := &clock{t: at("2026-09-01 10:00:00")}
	api := &fakeAPI{failSubmit: true}
	ctrl, activity := newTestController(t, api, c)

	if _, err := ctrl.Start(context.Background(), studykit.VariantPractice, "pmp"); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctrl.SelectAnswer("q1", studykit.Selection{AnswerIDs: []string{"a"}})
	ctrl.SelectAnswer("q2", studykit.Selection{Matches: map[string]string{"l1": "r1", "l2": "r2"}})

	if _, err := ctrl.Submit(context.Background(), false); err == nil {
		t.Fatalf("submit succeeded against failing server")
	}
	if ctrl.State() != studykit.StateInProgress {
		t.Fatalf("state after failure: %v", ctrl.State())
	}
	if sel, ok := ctrl.Selection("q1"); !ok || len(sel.AnswerIDs) != 1 {
		t.Fatalf("answers lost after failed submit")
	}
	if a := activity.GetTodayActivity(); a.QuestionsAnswered != 0 {
		t.Fatalf("activity counted on failure: %+v", a)
	}

	api.failSubmit = false
	if _, err := ctrl.Submit(context.Background(), false); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if ctrl.State() != studykit.StateCompleted {
		t.Fatalf("state after retry: %v", ctrl.State())
	}
}

func TestControllerNavigationBounds(t *testing.T) {
	c := &clock{t: at("2026-09-01 10:00:00")}
	ctrl, _ := newTestController(t, &fakeAPI{}, c)

	if _, err := ctrl.Start(context.Background(), studykit.VariantPractice, "pmp"); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctrl.Previous()
	if _, idx := ctrl.Current(); idx != 0 {
		t.Errorf("previous at first question moved cursor: %d", idx)
	}
	ctrl.Next()
	ctrl.Next()
	ctrl.Next()
	if q, idx := ctrl.Current(); idx != 1 || q.ID != "q2" {
		t.Errorf("next past end: idx=%d q=%s", idx, q.ID)
	}
}
