package exam

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotCompleted     = errors.New("session not completed")
	ErrEmptyBank        = errors.New("no questions available for certification")
)

// AlreadyCompletedError signals that the caller's daily quiz for today is
// already done. It carries the prior exam id so clients can redirect to
// review instead of retrying. Not a failure: the once-per-day rule held.
type AlreadyCompletedError struct {
	ExamID      string
	CompletedAt int64
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("daily quiz already completed today (exam %s)", e.ExamID)
}

type ListOpts struct {
	CertificationID string
	Type            string
	Limit           int
	Offset          int
}

// Store is the persistence boundary for the question bank and exam sessions.
type Store interface {
	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	ListQuestions(ctx context.Context, opts ListOpts) ([]Question, error)

	// StartSession allocates a session and its question set. For the daily
	// quiz variant it enforces one completed quiz per user, certification and
	// local calendar day: a completed quiz today yields *AlreadyCompletedError,
	// an in-progress one is returned as-is so a relaunch resumes the same
	// question set.
	StartSession(ctx context.Context, userID, certID string, v Variant) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)

	// SessionQuestions returns the session's questions with correctness flags
	// and match keys stripped (student-safe).
	SessionQuestions(ctx context.Context, id string) ([]Question, error)

	// Submit grades the full answer set and completes the session. Submitting
	// a completed session is a no-op returning the stored result.
	Submit(ctx context.Context, id string, answers []AnswerSubmission) (Session, error)

	// Review returns the answer-by-answer breakdown for a completed session.
	Review(ctx context.Context, id string) ([]ReviewItem, error)

	DailyQuizStatus(ctx context.Context, userID, certID string) (DailyQuizStatus, error)

	// WeeklyCompletions returns the local dates (YYYY-MM-DD) in [from, to] on
	// which the user completed a daily quiz for the certification.
	WeeklyCompletions(ctx context.Context, userID, certID, from, to string) ([]string, error)

	// ExpireStale marks in-progress sessions older than the cutoff as
	// abandoned and reports how many were touched.
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// DateFormat is the local calendar-day key used across the daily-quiz and
// activity paths.
const DateFormat = "2006-01-02"
