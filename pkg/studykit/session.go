package studykit

import (
	"context"
	"errors"
	"fmt"
	"log"
)

type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateSubmitting
	StateCompleted
)

// Selection is the user's current answer for one question: a single id or id
// set for choice questions, a left-to-right mapping for drag_and_match.
type Selection struct {
	AnswerIDs []string
	Matches   map[string]string
}

// StartOutcome distinguishes a fresh session from the daily quiz's
// already-done-today redirect.
type StartOutcome struct {
	Session          Session
	AlreadyCompleted bool
	PriorExamID      string
}

// Controller drives one exam sitting: NotStarted -> InProgress ->
// Submitting -> Completed. Answers accumulate locally and post in one batch
// at submit; a failed submit drops back to InProgress with answers intact so
// the user can retry.
type Controller struct {
	client   *Client
	activity *ActivityStore

	state      State
	session    Session
	questions  []Question
	byID       map[string]Question
	index      int
	selections map[string]Selection
}

func NewController(client *Client, activity *ActivityStore) *Controller {
	return &Controller{client: client, activity: activity}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Session() Session { return c.session }

var ErrSessionActive = errors.New("session already in progress")

// Start allocates a session server-side and loads its question set. For the
// daily quiz the server is authoritative on the once-per-day rule: an
// already-completed outcome carries the prior exam id and leaves the
// controller NotStarted so the UI can redirect to review.
func (c *Controller) Start(ctx context.Context, v Variant, certificationID string) (StartOutcome, error) {
	if c.state == StateInProgress || c.state == StateSubmitting {
		return StartOutcome{}, ErrSessionActive
	}

	sess, err := c.client.StartExam(ctx, certificationID, v)
	var done *AlreadyCompletedError
	if errors.As(err, &done) {
		return StartOutcome{AlreadyCompleted: true, PriorExamID: done.ExamID}, nil
	}
	if err != nil {
		return StartOutcome{}, err
	}

	// the server's question_ids are fetched exactly: relaunching mid-quiz
	// hands back the same set
	qs, err := c.client.SessionQuestions(ctx, sess.ExamID)
	if err != nil {
		return StartOutcome{}, err
	}

	c.session = sess
	c.questions = qs
	c.byID = make(map[string]Question, len(qs))
	for _, q := range qs {
		c.byID[q.ID] = q
	}
	c.index = 0
	c.selections = map[string]Selection{}
	c.state = StateInProgress

	if v.TracksPractice() {
		c.activity.StartSession()
	}
	return StartOutcome{Session: sess}, nil
}

// SelectAnswer stores the user's current selection locally. No network call;
// answers are batched for submission.
func (c *Controller) SelectAnswer(questionID string, sel Selection) error {
	if c.state != StateInProgress {
		return fmt.Errorf("no active session")
	}
	if _, ok := c.byID[questionID]; !ok {
		return fmt.Errorf("question %s not in session", questionID)
	}
	c.selections[questionID] = sel
	return nil
}

// RecordAnswer fires the per-option progress call for instant feedback. The
// result is advisory; a failure here never blocks the session.
func (c *Controller) RecordAnswer(ctx context.Context, questionID, answerID string) (bool, error) {
	return c.client.RecordAnswer(ctx, questionID, answerID)
}

// Current returns the question at the cursor.
func (c *Controller) Current() (Question, int) {
	if c.state == StateNotStarted || len(c.questions) == 0 {
		return Question{}, 0
	}
	return c.questions[c.index], c.index
}

// Next moves the cursor forward; a no-op at the last question.
func (c *Controller) Next() {
	if c.state == StateInProgress && c.index < len(c.questions)-1 {
		c.index++
	}
}

// Previous moves the cursor back; a no-op at the first question.
func (c *Controller) Previous() {
	if c.state == StateInProgress && c.index > 0 {
		c.index--
	}
}

// Selection returns the stored selection for a question.
func (c *Controller) Selection(questionID string) (Selection, bool) {
	sel, ok := c.selections[questionID]
	return sel, ok
}

// Unanswered counts questions whose selection is not yet complete enough to
// submit: one choice for select_one, at least one for select_multiple, every
// left item matched for drag_and_match.
func (c *Controller) Unanswered() int {
	n := 0
	for _, q := range c.questions {
		if !selectionReady(q, c.selections[q.ID]) {
			n++
		}
	}
	return n
}

func selectionReady(q Question, sel Selection) bool {
	switch q.Type {
	case TypeSelectOne:
		return len(sel.AnswerIDs) == 1
	case TypeSelectMultiple:
		return len(sel.AnswerIDs) >= 1
	case TypeDragAndMatch:
		if q.Match == nil || len(q.Match.LeftItems) == 0 {
			return false
		}
		for _, left := range q.Match.LeftItems {
			if sel.Matches[left] == "" {
				return false
			}
		}
		return true
	}
	return false
}

// Submit posts the full answer set and completes the session. With
// unanswered questions it returns *IncompleteError unless force is set; the
// mock and practice flows pass force after the user confirms "submit
// anyway", the daily quiz never does. A transport failure leaves the session
// InProgress with all answers intact.
func (c *Controller) Submit(ctx context.Context, force bool) (SubmitResult, error) {
	if c.state != StateInProgress {
		return SubmitResult{}, fmt.Errorf("no active session")
	}
	if n := c.Unanswered(); n > 0 {
		if !force || c.session.Variant == VariantDailyQuiz {
			return SubmitResult{}, &IncompleteError{Unanswered: n}
		}
	}

	payload := make([]AnswerPayload, 0, len(c.selections))
	for qid, sel := range c.selections {
		payload = append(payload, AnswerPayload{
			QuestionID: qid,
			AnswerIDs:  sel.AnswerIDs,
			Matches:    sel.Matches,
		})
	}

	c.state = StateSubmitting
	res, err := c.client.Submit(ctx, c.session.ExamID, payload)
	if err != nil {
		c.state = StateInProgress
		return SubmitResult{}, err
	}

	c.activity.IncrementQuestions(len(c.questions))
	if minutes := c.activity.EndSession(); minutes > 0 {
		log.Printf("studykit: logged %d practice minutes", minutes)
	}
	c.state = StateCompleted
	return res, nil
}
