package exam

// Variant selects one of the three session shapes the app offers.
type Variant string

const (
	VariantMock      Variant = "mock"
	VariantPractice  Variant = "practice"
	VariantDailyQuiz Variant = "daily_quiz"
)

// QuestionCount returns the fixed question-set size for a variant.
func (v Variant) QuestionCount() int {
	if v == VariantMock {
		return 180
	}
	return 10
}

// TracksPractice reports whether sessions of this variant count toward
// practice minutes. The mock exam runs under its own countdown and is
// excluded.
func (v Variant) TracksPractice() bool { return v != VariantMock }

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantMock, VariantPractice, VariantDailyQuiz:
		return true
	}
	return false
}

type QuestionType string

const (
	TypeSelectOne      QuestionType = "select_one"
	TypeSelectMultiple QuestionType = "select_multiple"
	TypeDragAndMatch   QuestionType = "drag_and_match"
)

type AnswerChoice struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// MatchMeta carries the item columns and the declared correct pairing for
// drag_and_match questions. Matches maps each left item to its right item.
type MatchMeta struct {
	LeftItems  []string          `json:"left_items"`
	RightItems []string          `json:"right_items"`
	Matches    map[string]string `json:"matches,omitempty"`
}

type Question struct {
	ID              string         `json:"id"`
	CertificationID string         `json:"certification_id"`
	Type            QuestionType   `json:"type"`
	Text            string         `json:"text"`
	Answers         []AnswerChoice `json:"answers,omitempty"`
	Match           *MatchMeta     `json:"match,omitempty"`
	Explanation     string         `json:"explanation,omitempty"`
	ImageKeys       []string       `json:"image_keys,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// CorrectAnswerIDs returns the set of answer ids flagged correct.
func (q Question) CorrectAnswerIDs() []string {
	var out []string
	for _, a := range q.Answers {
		if a.IsCorrect {
			out = append(out, a.ID)
		}
	}
	return out
}

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Session is one exam sitting. Immutable once CompletedAt is set; the server
// is the source of truth for score and completion after submit.
type Session struct {
	ID              string   `json:"exam_id"`
	UserID          string   `json:"user_id"`
	CertificationID string   `json:"certification_id"`
	Variant         Variant  `json:"variant"`
	QuestionIDs     []string `json:"question_ids"`
	Status          string   `json:"status"`
	Score           float64  `json:"score"`
	CorrectCount    int      `json:"correct_answers"`
	StartedAt       int64    `json:"started_at"`
	CompletedAt     *int64   `json:"completed_at,omitempty"`

	// QuizDate is the local calendar date (YYYY-MM-DD) a daily quiz belongs
	// to; empty for other variants.
	QuizDate string `json:"quiz_date,omitempty"`
}

// AnswerSubmission is one question's final answer at submit time. AnswerIDs
// carries a single id for select_one, the selected set for select_multiple;
// Matches carries the left-to-right pairing for drag_and_match.
type AnswerSubmission struct {
	QuestionID string            `json:"question_id"`
	AnswerIDs  []string          `json:"answer_ids,omitempty"`
	Matches    map[string]string `json:"matches,omitempty"`
}

type SubmitResult struct {
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
}

// ReviewItem is one question's answer-by-answer breakdown after completion.
type ReviewItem struct {
	Question  Question          `json:"question"`
	AnswerIDs []string          `json:"answer_ids,omitempty"`
	Matches   map[string]string `json:"matches,omitempty"`
	Correct   bool              `json:"correct"`
}

type DailyQuizStatus struct {
	HasTakenToday bool   `json:"has_taken_today"`
	CanTake       bool   `json:"can_take"`
	CompletedAt   *int64 `json:"completed_at,omitempty"`
	ExamID        string `json:"exam_id,omitempty"`
}
