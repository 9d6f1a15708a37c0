// Package studykit is the client-side study engine: exam session lifecycle,
// daily activity tracking and streak display, talking to the examloop API.
//
// All server payloads are decoded here, once, into the canonical Go shapes
// below; nothing past this boundary looks at raw JSON field variants.
package studykit

import "fmt"

type Variant string

const (
	VariantMock      Variant = "mock"
	VariantPractice  Variant = "practice"
	VariantDailyQuiz Variant = "daily_quiz"
)

// TracksPractice reports whether sittings of this variant count toward
// practice minutes.
func (v Variant) TracksPractice() bool { return v != VariantMock }

type QuestionType string

const (
	TypeSelectOne      QuestionType = "select_one"
	TypeSelectMultiple QuestionType = "select_multiple"
	TypeDragAndMatch   QuestionType = "drag_and_match"
)

type Answer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Match struct {
	LeftItems  []string `json:"left_items"`
	RightItems []string `json:"right_items"`
}

type Question struct {
	ID        string       `json:"id"`
	Type      QuestionType `json:"type"`
	Text      string       `json:"text"`
	Answers   []Answer     `json:"answers,omitempty"`
	Match     *Match       `json:"match,omitempty"`
	ImageKeys []string     `json:"image_keys,omitempty"`
}

type Session struct {
	ExamID          string   `json:"exam_id"`
	CertificationID string   `json:"certification_id"`
	Variant         Variant  `json:"variant"`
	QuestionIDs     []string `json:"question_ids"`
	Status          string   `json:"status"`
	StartedAt       int64    `json:"started_at"`
	CompletedAt     *int64   `json:"completed_at,omitempty"`
}

type SubmitResult struct {
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
}

type DailyQuizStatus struct {
	HasTakenToday bool   `json:"has_taken_today"`
	CanTake       bool   `json:"can_take"`
	CompletedAt   *int64 `json:"completed_at,omitempty"`
	ExamID        string `json:"exam_id,omitempty"`
}

type StreakBadge struct {
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
}

// AnswerPayload is one question's final answer as posted at submit time.
type AnswerPayload struct {
	QuestionID string            `json:"question_id"`
	AnswerIDs  []string          `json:"answer_ids,omitempty"`
	Matches    map[string]string `json:"matches,omitempty"`
}

// AlreadyCompletedError is the daily quiz's "already done today" outcome. It
// carries the prior exam id so the UI redirects to review instead of
// retrying.
type AlreadyCompletedError struct {
	ExamID      string
	CompletedAt int64
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("daily quiz already completed today (exam %s)", e.ExamID)
}

// IncompleteError reports how many questions still lack a submittable answer.
// For mock and practice exams the UI turns this into a "submit anyway?"
// confirmation; the daily quiz blocks on it.
type IncompleteError struct {
	Unanswered int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d unanswered questions", e.Unanswered)
}
