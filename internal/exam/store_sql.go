package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/examloop/examloop/internal/grading"
)

// SQLStore persists the question bank and exam sessions through database/sql,
// working against both sqlite (offline/dev) and postgres.
type SQLStore struct {
	db     *sql.DB
	grader grading.Grader
	now    func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, grader: grading.NewDefaultGrader(), now: time.Now}
}

// NewSQLStoreAt is NewSQLStore with an injectable clock.
func NewSQLStoreAt(db *sql.DB, now func() time.Time) *SQLStore {
	s := NewSQLStore(db)
	s.now = now
	return s
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	aj, err := json.Marshal(q.Answers)
	if err != nil {
		return err
	}
	mj := ""
	if q.Match != nil {
		buf, err := json.Marshal(q.Match)
		if err != nil {
			return err
		}
		mj = string(buf)
	}
	ij, _ := json.Marshal(q.ImageKeys)
	created := q.CreatedAt
	if created == 0 {
		created = s.now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions
		(id,certification_id,qtype,body,answers_json,match_json,explanation,images_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			certification_id=EXCLUDED.certification_id, qtype=EXCLUDED.qtype,
			body=EXCLUDED.body, answers_json=EXCLUDED.answers_json,
			match_json=EXCLUDED.match_json, explanation=EXCLUDED.explanation,
			images_json=EXCLUDED.images_json`,
		q.ID, q.CertificationID, string(q.Type), q.Text, string(aj), mj,
		q.Explanation, string(ij), created)
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,certification_id,qtype,body,answers_json,match_json,explanation,images_json,created_at
		FROM questions WHERE id=$1`, id)
	return scanQuestion(row)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanQuestion(row rowScanner) (Question, error) {
	var q Question
	var qtype, aj, mj, ij string
	if err := row.Scan(&q.ID, &q.CertificationID, &qtype, &q.Text, &aj, &mj, &q.Explanation, &ij, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrQuestionNotFound
		}
		return Question{}, err
	}
	q.Type = QuestionType(qtype)
	if err := json.Unmarshal([]byte(aj), &q.Answers); err != nil {
		return Question{}, err
	}
	if mj != "" {
		q.Match = &MatchMeta{}
		if err := json.Unmarshal([]byte(mj), q.Match); err != nil {
			return Question{}, err
		}
	}
	if ij != "" {
		_ = json.Unmarshal([]byte(ij), &q.ImageKeys)
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, opts ListOpts) ([]Question, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,certification_id,qtype,body,answers_json,match_json,explanation,images_json,created_at
		FROM questions
		WHERE ($1 = '' OR certification_id = $1) AND ($2 = '' OR qtype = $2)
		ORDER BY id LIMIT $3 OFFSET $4`,
		opts.CertificationID, opts.Type, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) StartSession(ctx context.Context, userID, certID string, v Variant) (Session, error) {
	now := s.now()
	if v == VariantDailyQuiz {
		today := now.Format(DateFormat)
		row := s.db.QueryRowContext(ctx, `SELECT id,status,completed_at,question_ids_json
			FROM exam_sessions
			WHERE user_id=$1 AND certification_id=$2 AND variant=$3 AND quiz_date=$4
			  AND status IN ('in_progress','completed')
			ORDER BY status ASC LIMIT 1`,
			userID, certID, string(VariantDailyQuiz), today)
		var id, status, qj string
		var completed sql.NullInt64
		err := row.Scan(&id, &status, &completed, &qj)
		switch {
		case err == nil && status == StatusCompleted:
			return Session{}, &AlreadyCompletedError{ExamID: id, CompletedAt: completed.Int64}
		case err == nil:
			// relaunch mid-quiz: hand back the same session and question set
			return s.GetSession(ctx, id)
		case !errors.Is(err, sql.ErrNoRows):
			return Session{}, err
		}
	}

	ids, err := s.pickQuestionIDs(ctx, certID, v.QuestionCount())
	if err != nil {
		return Session{}, err
	}
	if len(ids) == 0 {
		return Session{}, ErrEmptyBank
	}

	sess := Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		CertificationID: certID,
		Variant:         v,
		QuestionIDs:     ids,
		Status:          StatusInProgress,
		StartedAt:       now.Unix(),
	}
	if v == VariantDailyQuiz {
		sess.QuizDate = now.Format(DateFormat)
	}
	qj, _ := json.Marshal(ids)
	_, err = s.db.ExecContext(ctx, `INSERT INTO exam_sessions
		(id,user_id,certification_id,variant,question_ids_json,status,score,correct_count,answers_json,started_at,quiz_date)
		VALUES ($1,$2,$3,$4,$5,'in_progress',0,0,'[]',$6,$7)`,
		sess.ID, userID, certID, string(v), string(qj), sess.StartedAt, sess.QuizDate)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) pickQuestionIDs(ctx context.Context, certID string, n int) ([]string, error) {
	// RANDOM() is shared sqlite/postgres syntax
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM questions WHERE certification_id=$1 ORDER BY RANDOM() LIMIT $2`,
		certID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,user_id,certification_id,variant,question_ids_json,status,score,correct_count,started_at,completed_at,quiz_date
		FROM exam_sessions WHERE id=$1`, id)
	var sess Session
	var variant, qj string
	var completed sql.NullInt64
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.CertificationID, &variant, &qj,
		&sess.Status, &sess.Score, &sess.CorrectCount, &sess.StartedAt, &completed, &sess.QuizDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	sess.Variant = Variant(variant)
	if completed.Valid {
		sess.CompletedAt = &completed.Int64
	}
	if err := json.Unmarshal([]byte(qj), &sess.QuestionIDs); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) SessionQuestions(ctx context.Context, id string) ([]Question, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(sess.QuestionIDs))
	for _, qid := range sess.QuestionIDs {
		q, err := s.GetQuestion(ctx, qid)
		if errors.Is(err, ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Sanitize(q))
	}
	return out, nil
}

func (s *SQLStore) Submit(ctx context.Context, id string, answers []AnswerSubmission) (Session, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Status == StatusCompleted {
		return sess, nil
	}

	byQ := indexAnswers(answers)
	correct := 0
	for _, qid := range sess.QuestionIDs {
		q, err := s.GetQuestion(ctx, qid)
		if err != nil {
			continue
		}
		res, err := s.grader.Grade(GradingView(q), responseFor(byQ, qid))
		if err == nil && res.Correct {
			correct++
		}
	}

	done := s.now().Unix()
	sess.CorrectCount = correct
	sess.Score = Percent(correct, len(sess.QuestionIDs))
	sess.Status = StatusCompleted
	sess.CompletedAt = &done

	aj, _ := json.Marshal(answers)
	_, err = s.db.ExecContext(ctx, `UPDATE exam_sessions
		SET status='completed', score=$1, correct_count=$2, answers_json=$3, completed_at=$4
		WHERE id=$5 AND status='in_progress'`,
		sess.Score, correct, string(aj), done, id)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) Review(ctx context.Context, id string) ([]ReviewItem, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	var aj string
	if err := s.db.QueryRowContext(ctx, `SELECT answers_json FROM exam_sessions WHERE id=$1`, id).Scan(&aj); err != nil {
		return nil, err
	}
	var answers []AnswerSubmission
	if err := json.Unmarshal([]byte(aj), &answers); err != nil {
		answers = nil
	}
	byQ := indexAnswers(answers)
	out := make([]ReviewItem, 0, len(sess.QuestionIDs))
	for _, qid := range sess.QuestionIDs {
		q, err := s.GetQuestion(ctx, qid)
		if errors.Is(err, ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		resp := responseFor(byQ, qid)
		res, _ := s.grader.Grade(GradingView(q), resp)
		out = append(out, ReviewItem{
			Question:  q,
			AnswerIDs: resp.AnswerIDs,
			Matches:   resp.Matches,
			Correct:   res.Correct,
		})
	}
	return out, nil
}

func (s *SQLStore) DailyQuizStatus(ctx context.Context, userID, certID string) (DailyQuizStatus, error) {
	today := s.now().Format(DateFormat)
	row := s.db.QueryRowContext(ctx, `SELECT id,status,completed_at FROM exam_sessions
		WHERE user_id=$1 AND certification_id=$2 AND variant=$3 AND quiz_date=$4
		  AND status IN ('in_progress','completed')
		ORDER BY status ASC LIMIT 1`,
		userID, certID, string(VariantDailyQuiz), today)
	var id, status string
	var completed sql.NullInt64
	err := row.Scan(&id, &status, &completed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return DailyQuizStatus{CanTake: true}, nil
	case err != nil:
		return DailyQuizStatus{}, err
	case status == StatusCompleted:
		return DailyQuizStatus{HasTakenToday: true, CompletedAt: &completed.Int64, ExamID: id}, nil
	default:
		return DailyQuizStatus{CanTake: true, ExamID: id}, nil
	}
}

func (s *SQLStore) WeeklyCompletions(ctx context.Context, userID, certID, from, to string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT quiz_date FROM exam_sessions
		WHERE user_id=$1 AND certification_id=$2 AND variant=$3 AND status='completed'
		  AND quiz_date >= $4 AND quiz_date <= $5
		ORDER BY quiz_date`,
		userID, certID, string(VariantDailyQuiz), from, to)
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

func (s *SQLStore) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan).Unix()
	res, err := s.db.ExecContext(ctx,
		`UPDATE exam_sessions SET status='abandoned' WHERE status='in_progress' AND started_at < $1`,
		cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
