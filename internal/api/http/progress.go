package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/examloop/examloop/internal/progress"
	"github.com/examloop/examloop/internal/rbac"
	"github.com/examloop/examloop/internal/streak"
)

type recordAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	AnswerID   string `json:"answer_id" validate:"required"`
}

// POST /progress/answer
// One call per selected option: the instant-feedback path.
func RecordAnswerHandler(store *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordAnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		correct, err := store.RecordAnswer(r.Context(),
			rbac.SubjectFromContext(r.Context()), req.QuestionID, req.AnswerID)
		if errors.Is(err, progress.ErrQuestionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"is_correct": correct})
	}
}

// GET /badges/streak
func StreakBadgeHandler(store *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := store.ActivityDates(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, streak.Compute(dates, time.Now()))
	}
}
