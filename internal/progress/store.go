// Package progress records per-answer events, the raw material for answer
// statistics and streak badges.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/examloop/examloop/internal/exam"
	"github.com/examloop/examloop/internal/grading"
)

var ErrQuestionNotFound = errors.New("question not found")

// Store appends answer events and serves activity-date queries.
type Store struct {
	db      *sql.DB
	grader  grading.Grader
	qsource QuestionSource
	now     func() time.Time
}

// QuestionSource is the slice of exam.Store the progress path needs.
type QuestionSource interface {
	GetQuestion(ctx context.Context, id string) (exam.Question, error)
}

func NewStore(db *sql.DB, qs QuestionSource) *Store {
	return &Store{db: db, grader: grading.NewDefaultGrader(), qsource: qs, now: time.Now}
}

// NewStoreAt is NewStore with an injectable clock.
func NewStoreAt(db *sql.DB, qs QuestionSource, now func() time.Time) *Store {
	s := NewStore(db, qs)
	s.now = now
	return s
}

// RecordAnswer grades a single selection optimistically, appends the event,
// and returns whether the chosen answer was correct. This is the per-answer
// fire call behind instant feedback; session scoring stays authoritative at
// submit time.
func (s *Store) RecordAnswer(ctx context.Context, userID, questionID, answerID string) (bool, error) {
	q, err := s.qsource.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, exam.ErrQuestionNotFound) {
			return false, ErrQuestionNotFound
		}
		return false, err
	}
	res, err := s.grader.Grade(
		grading.Q{Type: string(exam.TypeSelectOne), CorrectIDs: q.CorrectAnswerIDs()},
		grading.Response{AnswerIDs: []string{answerID}},
	)
	if err != nil {
		return false, err
	}

	now := s.now()
	correct := 0
	if res.Correct {
		correct = 1
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO answer_events
		(user_id,question_id,answer_id,is_correct,answered_on,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		userID, questionID, answerID, correct, now.Format(exam.DateFormat), now.Unix())
	if err != nil {
		return false, err
	}
	return res.Correct, nil
}

// ActivityDates returns the distinct local dates on which the user recorded
// any answer, oldest first.
func (s *Store) ActivityDates(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT answered_on FROM answer_events WHERE user_id=$1 ORDER BY answered_on`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
