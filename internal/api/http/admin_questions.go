package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/examloop/examloop/internal/exam"
	"github.com/examloop/examloop/internal/importer"
)

// POST /admin/questions
func CreateQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q exam.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := validateQuestion(q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// PUT /admin/questions/{questionID}
func UpdateQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		if _, err := store.GetQuestion(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		var q exam.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q.ID = id
		if err := validateQuestion(q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /admin/questions/{questionID}
func DeleteQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		err := store.DeleteQuestion(r.Context(), id)
		if errors.Is(err, exam.ErrQuestionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/questions?certification_id=...&type=...&limit=50&offset=0
func ListQuestionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListQuestions(r.Context(), exam.ListOpts{
			CertificationID: r.URL.Query().Get("certification_id"),
			Type:            r.URL.Query().Get("type"),
			Limit:           parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:          parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
	}
}

// POST /admin/questions/import  (multipart, file=bank.xlsx|bank.csv)
func ImportQuestionsHandler(im *importer.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		var res *importer.Result
		if strings.HasSuffix(strings.ToLower(hdr.Filename), ".csv") {
			res, err = im.ImportCSV(r.Context(), f)
		} else {
			res, err = im.ImportXLSX(r.Context(), f)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /admin/questions/export?certification_id=...
// Full bank dump with answer keys, as JSON.
func ExportQuestionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		certID := r.URL.Query().Get("certification_id")
		out := []exam.Question{}
		offset := 0
		for {
			page, err := store.ListQuestions(r.Context(), exam.ListOpts{
				CertificationID: certID, Limit: 500, Offset: offset,
			})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, page...)
			if len(page) < 500 {
				break
			}
			offset += 500
		}
		w.Header().Set("Content-Disposition", `attachment; filename="questions.json"`)
		writeJSON(w, http.StatusOK, map[string]any{"questions": out})
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func validateQuestion(q exam.Question) error {
	if q.CertificationID == "" || q.Text == "" {
		return errors.New("certification_id and text required")
	}
	switch q.Type {
	case exam.TypeSelectOne:
		if len(q.CorrectAnswerIDs()) != 1 {
			return errors.New("select_one needs exactly one correct answer")
		}
	case exam.TypeSelectMultiple:
		if len(q.Answers) < 2 || len(q.CorrectAnswerIDs()) == 0 {
			return errors.New("select_multiple needs choices and at least one correct answer")
		}
	case exam.TypeDragAndMatch:
		if q.Match == nil || len(q.Match.LeftItems) == 0 || len(q.Match.Matches) != len(q.Match.LeftItems) {
			return errors.New("drag_and_match needs left items and a full match key")
		}
	default:
		return errors.New("unknown question type")
	}
	return nil
}
