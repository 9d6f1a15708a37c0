package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/examloop/examloop/internal/billing"
	"github.com/examloop/examloop/internal/exam"
	"github.com/examloop/examloop/internal/rbac"
)

var validate = validator.New()

type startExamRequest struct {
	CertificationID string `json:"certification_id" validate:"required"`
	Variant         string `json:"variant" validate:"required,oneof=mock practice daily_quiz"`
	// TotalQuestions is accepted for wire compatibility; the variant fixes
	// the real count server-side.
	TotalQuestions int `json:"total_questions"`
}

// POST /exams/start
// The daily-quiz once-per-day rule is enforced here, server-side: a repeat
// start returns 409 with the prior exam id so clients redirect to review.
func StartExamHandler(store exam.Store, sub billing.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startExamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		v := exam.Variant(req.Variant)

		// full mock exams are a premium feature
		if v == exam.VariantMock && rbac.TierFromContext(r.Context()) != billing.TierPremium {
			st, err := sub.GetStatus(r.Context(), userID)
			if err != nil || st.Tier != billing.TierPremium {
				writeJSON(w, http.StatusPaymentRequired, map[string]string{
					"error": "premium_required",
				})
				return
			}
		}

		s, err := store.StartSession(r.Context(), userID, req.CertificationID, v)
		var done *exam.AlreadyCompletedError
		switch {
		case errors.As(err, &done):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":        "daily_quiz_completed",
				"exam_id":      done.ExamID,
				"completed_at": done.CompletedAt,
			})
			return
		case errors.Is(err, exam.ErrEmptyBank):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// GET /exams/daily-quiz/status?certification_id=...
func DailyQuizStatusHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		certID := r.URL.Query().Get("certification_id")
		if certID == "" {
			http.Error(w, "certification_id required", http.StatusBadRequest)
			return
		}
		st, err := store.DailyQuizStatus(r.Context(), rbac.SubjectFromContext(r.Context()), certID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// GET /exams/daily-quiz/weekly?certification_id=...&start_date=YYYY-MM-DD
func WeeklyCompletionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		certID := r.URL.Query().Get("certification_id")
		if certID == "" {
			http.Error(w, "certification_id required", http.StatusBadRequest)
			return
		}
		start := r.URL.Query().Get("start_date")
		startDay, err := time.ParseInLocation(exam.DateFormat, start, time.Local)
		if err != nil {
			// default to the trailing 7 days inclusive of today
			startDay = time.Now().AddDate(0, 0, -6)
		}
		from := startDay.Format(exam.DateFormat)
		to := startDay.AddDate(0, 0, 6).Format(exam.DateFormat)

		dates, err := store.WeeklyCompletions(r.Context(),
			rbac.SubjectFromContext(r.Context()), certID, from, to)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type completion struct {
			Date string `json:"date"`
		}
		out := struct {
			Completions []completion `json:"completions"`
		}{Completions: make([]completion, 0, len(dates))}
		for _, d := range dates {
			out.Completions = append(out.Completions, completion{Date: d})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /exams/{examID}/questions
func SessionQuestionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		s, err := requireOwnSession(w, r, store, id)
		if err != nil {
			return
		}
		qs, err := store.SessionQuestions(r.Context(), s.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
	}
}

type submitRequest struct {
	Answers []exam.AnswerSubmission `json:"answers"`
}

// POST /exams/{examID}/submit
func SubmitExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		s, err := requireOwnSession(w, r, store, id)
		if err != nil {
			return
		}
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		graded, err := store.Submit(r.Context(), s.ID, req.Answers)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, exam.SubmitResult{
			Score:          graded.Score,
			CorrectAnswers: graded.CorrectCount,
			TotalQuestions: len(graded.QuestionIDs),
		})
	}
}

// GET /exams/{examID}/review
func ReviewHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		if _, err := requireOwnSession(w, r, store, id); err != nil {
			return
		}
		items, err := store.Review(r.Context(), id)
		if errors.Is(err, exam.ErrNotCompleted) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// requireOwnSession loads the session and enforces ownership unless the
// caller is an admin. On failure the response is already written.
func requireOwnSession(w http.ResponseWriter, r *http.Request, store exam.Store, id string) (exam.Session, error) {
	s, err := store.GetSession(r.Context(), id)
	if errors.Is(err, exam.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return exam.Session{}, err
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return exam.Session{}, err
	}
	if s.UserID != rbac.SubjectFromContext(r.Context()) &&
		rbac.RoleFromContext(r.Context()) != "admin" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return exam.Session{}, errors.New("forbidden")
	}
	return s, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
