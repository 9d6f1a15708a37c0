package studykit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the REST client for the examloop API. The bearer token is
// injected on every request; refresh is the caller's concern.
type Client struct {
	rc *resty.Client
}

func NewClient(baseURL, token string) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Client{rc: rc}
}

// SetToken swaps the bearer token after a refresh.
func (c *Client) SetToken(token string) { c.rc.SetAuthToken(token) }

type apiConflict struct {
	Error       string `json:"error"`
	ExamID      string `json:"exam_id"`
	CompletedAt int64  `json:"completed_at"`
}

// StartExam allocates a session. A repeated daily quiz surfaces as
// *AlreadyCompletedError, not a transport failure.
func (c *Client) StartExam(ctx context.Context, certificationID string, v Variant) (Session, error) {
	var out Session
	var conflict apiConflict
	resp, err := c.rc.R().SetContext(ctx).
		SetBody(map[string]any{
			"certification_id": certificationID,
			"variant":          string(v),
		}).
		SetResult(&out).
		SetError(&conflict).
		Post("/exams/start")
	if err != nil {
		return Session{}, err
	}
	if resp.StatusCode() == 409 && conflict.Error == "daily_quiz_completed" {
		return Session{}, &AlreadyCompletedError{ExamID: conflict.ExamID, CompletedAt: conflict.CompletedAt}
	}
	if resp.IsError() {
		return Session{}, fmt.Errorf("start exam: %s", resp.Status())
	}
	return out, nil
}

func (c *Client) DailyQuizStatus(ctx context.Context, certificationID string) (DailyQuizStatus, error) {
	var out DailyQuizStatus
	resp, err := c.rc.R().SetContext(ctx).
		SetQueryParam("certification_id", certificationID).
		SetResult(&out).
		Get("/exams/daily-quiz/status")
	if err != nil {
		return DailyQuizStatus{}, err
	}
	if resp.IsError() {
		return DailyQuizStatus{}, fmt.Errorf("daily quiz status: %s", resp.Status())
	}
	return out, nil
}

func (c *Client) SessionQuestions(ctx context.Context, examID string) ([]Question, error) {
	var out struct {
		Questions []Question `json:"questions"`
	}
	resp, err := c.rc.R().SetContext(ctx).
		SetResult(&out).
		Get("/exams/" + examID + "/questions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch questions: %s", resp.Status())
	}
	return out.Questions, nil
}

func (c *Client) Submit(ctx context.Context, examID string, answers []AnswerPayload) (SubmitResult, error) {
	var out SubmitResult
	resp, err := c.rc.R().SetContext(ctx).
		SetBody(map[string]any{"answers": answers}).
		SetResult(&out).
		Post("/exams/" + examID + "/submit")
	if err != nil {
		return SubmitResult{}, err
	}
	if resp.IsError() {
		return SubmitResult{}, fmt.Errorf("submit: %s", resp.Status())
	}
	return out, nil
}

// RecordAnswer is the per-answer instant-feedback call. One round trip per
// selected option.
func (c *Client) RecordAnswer(ctx context.Context, questionID, answerID string) (bool, error) {
	var out struct {
		IsCorrect bool `json:"is_correct"`
	}
	resp, err := c.rc.R().SetContext(ctx).
		SetBody(map[string]string{"question_id": questionID, "answer_id": answerID}).
		SetResult(&out).
		Post("/progress/answer")
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, fmt.Errorf("record answer: %s", resp.Status())
	}
	return out.IsCorrect, nil
}

func (c *Client) StreakBadge(ctx context.Context) (StreakBadge, error) {
	var out StreakBadge
	resp, err := c.rc.R().SetContext(ctx).
		SetResult(&out).
		Get("/badges/streak")
	if err != nil {
		return StreakBadge{}, err
	}
	if resp.IsError() {
		return StreakBadge{}, fmt.Errorf("streak badge: %s", resp.Status())
	}
	return out, nil
}

// WeeklyCompletions returns the local dates with a completed daily quiz in
// the 7-day window starting at start.
func (c *Client) WeeklyCompletions(ctx context.Context, certificationID string, start time.Time) ([]string, error) {
	var out struct {
		Completions []struct {
			Date string `json:"date"`
		} `json:"completions"`
	}
	resp, err := c.rc.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"certification_id": certificationID,
			"start_date":       start.Format(dateFormat),
		}).
		SetResult(&out).
		Get("/exams/daily-quiz/weekly")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("weekly completions: %s", resp.Status())
	}
	dates := make([]string, 0, len(out.Completions))
	for _, c := range out.Completions {
		dates = append(dates, c.Date)
	}
	return dates, nil
}
