package exam

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/examloop/examloop/internal/grading"
)

type memoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	sessions  map[string]Session
	answers   map[string][]AnswerSubmission // sessionID -> submitted answers
	grader    grading.Grader
	now       func() time.Time
}

// NewInMemoryStore backs the Store interface with maps. Used in tests and for
// quick local runs without a database file.
func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[string]Question{},
		sessions:  map[string]Session{},
		answers:   map[string][]AnswerSubmission{},
		grader:    grading.NewDefaultGrader(),
		now:       time.Now,
	}
}

// NewInMemoryStoreAt is NewInMemoryStore with an injectable clock.
func NewInMemoryStoreAt(now func() time.Time) Store {
	s := NewInMemoryStore().(*memoryStore)
	s.now = now
	return s
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.CreatedAt == 0 {
		q.CreatedAt = m.now().Unix()
	}
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return q, nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) ListQuestions(_ context.Context, opts ListOpts) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Question, 0, len(m.questions))
	for _, q := range m.questions {
		if opts.CertificationID != "" && q.CertificationID != opts.CertificationID {
			continue
		}
		if opts.Type != "" && string(q.Type) != opts.Type {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Question{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) StartSession(_ context.Context, userID, certID string, v Variant) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if v == VariantDailyQuiz {
		today := now.Format(DateFormat)
		for _, s := range m.sessions {
			if s.Variant != VariantDailyQuiz || s.UserID != userID ||
				s.CertificationID != certID || s.QuizDate != today {
				continue
			}
			if s.Status == StatusCompleted {
				return Session{}, &AlreadyCompletedError{ExamID: s.ID, CompletedAt: *s.CompletedAt}
			}
			if s.Status == StatusInProgress {
				return s, nil
			}
		}
	}

	ids := m.pickQuestionIDs(certID, v.QuestionCount())
	if len(ids) == 0 {
		return Session{}, ErrEmptyBank
	}
	s := Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		CertificationID: certID,
		Variant:         v,
		QuestionIDs:     ids,
		Status:          StatusInProgress,
		StartedAt:       now.Unix(),
	}
	if v == VariantDailyQuiz {
		s.QuizDate = now.Format(DateFormat)
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memoryStore) pickQuestionIDs(certID string, n int) []string {
	ids := make([]string, 0, len(m.questions))
	for id, q := range m.questions {
		if q.CertificationID == certID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if n < len(ids) {
		ids = ids[:n]
	}
	return ids
}

func (m *memoryStore) GetSession(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *memoryStore) SessionQuestions(_ context.Context, id string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]Question, 0, len(s.QuestionIDs))
	for _, qid := range s.QuestionIDs {
		if q, ok := m.questions[qid]; ok {
			out = append(out, Sanitize(q))
		}
	}
	return out, nil
}

func (m *memoryStore) Submit(_ context.Context, id string, answers []AnswerSubmission) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.Status == StatusCompleted {
		return s, nil
	}

	byQ := indexAnswers(answers)
	correct := 0
	for _, qid := range s.QuestionIDs {
		q, ok := m.questions[qid]
		if !ok {
			continue
		}
		res, err := m.grader.Grade(GradingView(q), responseFor(byQ, qid))
		if err == nil && res.Correct {
			correct++
		}
	}

	done := m.now().Unix()
	s.CorrectCount = correct
	s.Score = Percent(correct, len(s.QuestionIDs))
	s.Status = StatusCompleted
	s.CompletedAt = &done
	m.sessions[id] = s
	m.answers[id] = answers
	return s, nil
}

func (m *memoryStore) Review(_ context.Context, id string) ([]ReviewItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	byQ := indexAnswers(m.answers[id])
	out := make([]ReviewItem, 0, len(s.QuestionIDs))
	for _, qid := range s.QuestionIDs {
		q, ok := m.questions[qid]
		if !ok {
			continue
		}
		resp := responseFor(byQ, qid)
		res, _ := m.grader.Grade(GradingView(q), resp)
		out = append(out, ReviewItem{
			Question:  q,
			AnswerIDs: resp.AnswerIDs,
			Matches:   resp.Matches,
			Correct:   res.Correct,
		})
	}
	return out, nil
}

func (m *memoryStore) DailyQuizStatus(_ context.Context, userID, certID string) (DailyQuizStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	today := m.now().Format(DateFormat)
	for _, s := range m.sessions {
		if s.Variant != VariantDailyQuiz || s.UserID != userID ||
			s.CertificationID != certID || s.QuizDate != today {
			continue
		}
		if s.Status == StatusCompleted {
			return DailyQuizStatus{HasTakenToday: true, CompletedAt: s.CompletedAt, ExamID: s.ID}, nil
		}
		if s.Status == StatusInProgress {
			return DailyQuizStatus{CanTake: true, ExamID: s.ID}, nil
		}
	}
	return DailyQuizStatus{CanTake: true}, nil
}

func (m *memoryStore) WeeklyCompletions(_ context.Context, userID, certID, from, to string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	for _, s := range m.sessions {
		if s.Variant != VariantDailyQuiz || s.UserID != userID ||
			s.CertificationID != certID || s.Status != StatusCompleted {
			continue
		}
		if s.QuizDate >= from && s.QuizDate <= to {
			seen[s.QuizDate] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memoryStore) ExpireStale(_ context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-olderThan).Unix()
	n := 0
	for id, s := range m.sessions {
		if s.Status == StatusInProgress && s.StartedAt < cutoff {
			s.Status = StatusAbandoned
			m.sessions[id] = s
			n++
		}
	}
	return n, nil
}

// --- shared helpers used by both store implementations ---

// Sanitize strips grading material from a question before serving it to a
// student mid-session.
func Sanitize(q Question) Question {
	out := q
	out.Explanation = ""
	out.Answers = make([]AnswerChoice, len(q.Answers))
	for i, a := range q.Answers {
		a.IsCorrect = false
		out.Answers[i] = a
	}
	if q.Match != nil {
		mm := *q.Match
		mm.Matches = nil
		out.Match = &mm
	}
	return out
}

// GradingView projects a question onto the grading package's view of it.
func GradingView(q Question) grading.Q {
	gq := grading.Q{Type: string(q.Type), CorrectIDs: q.CorrectAnswerIDs()}
	if q.Match != nil {
		gq.LeftItems = q.Match.LeftItems
		gq.CorrectMatches = q.Match.Matches
	}
	return gq
}

// Percent is the session score: correct over total, as a percentage.
func Percent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

func indexAnswers(answers []AnswerSubmission) map[string]AnswerSubmission {
	byQ := make(map[string]AnswerSubmission, len(answers))
	for _, a := range answers {
		byQ[a.QuestionID] = a
	}
	return byQ
}

func responseFor(byQ map[string]AnswerSubmission, qid string) grading.Response {
	a := byQ[qid]
	return grading.Response{AnswerIDs: a.AnswerIDs, Matches: a.Matches}
}
