// Package grading evaluates per-question correctness for the three question
// types the app serves. The same policy runs server-side for authoritative
// scoring and client-side for optimistic feedback.
package grading

import "errors"

// Q is the minimal view of a question needed for grading.
type Q struct {
	Type           string
	CorrectIDs     []string          // select_one / select_multiple
	LeftItems      []string          // drag_and_match
	CorrectMatches map[string]string // drag_and_match: left -> right
}

// Response is the user's final answer for one question.
type Response struct {
	AnswerIDs []string
	Matches   map[string]string
}

type Result struct {
	Correct bool
}

// Strategy grades a single question type.
type Strategy interface {
	Grade(q Q, resp Response) Result
	// Ready reports whether the response is complete enough to enable submit.
	Ready(q Q, resp Response) bool
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q Q, resp Response) (Result, error)
	Ready(q Q, resp Response) (bool, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

var errUnknownType = errors.New("unknown question type")

func (g *defaultGrader) Grade(q Q, resp Response) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}, errUnknownType
	}
	return s.Grade(q, resp), nil
}

func (g *defaultGrader) Ready(q Q, resp Response) (bool, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return false, errUnknownType
	}
	return s.Ready(q, resp), nil
}

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			"select_one":      selectOneStrategy{},
			"select_multiple": selectMultipleStrategy{},
			"drag_and_match":  dragAndMatchStrategy{},
		},
	}
}

// --- Strategies ---

type selectOneStrategy struct{}

func (selectOneStrategy) Grade(q Q, resp Response) Result {
	if len(resp.AnswerIDs) != 1 {
		return Result{}
	}
	for _, k := range q.CorrectIDs {
		if resp.AnswerIDs[0] == k {
			return Result{Correct: true}
		}
	}
	return Result{}
}

// Exactly one selection enables submit.
func (selectOneStrategy) Ready(_ Q, resp Response) bool {
	return len(resp.AnswerIDs) == 1
}

type selectMultipleStrategy struct{}

// Correct iff selected set equals the correct set exactly. No subset or
// superset credit.
func (selectMultipleStrategy) Grade(q Q, resp Response) Result {
	return Result{Correct: setEqual(toSet(resp.AnswerIDs), toSet(q.CorrectIDs))}
}

// At least one selection enables submit; a knowingly partial answer is
// allowed through (treated as a guess, graded incorrect).
func (selectMultipleStrategy) Ready(_ Q, resp Response) bool {
	return len(resp.AnswerIDs) >= 1
}

type dragAndMatchStrategy struct{}

// Correct iff every left item's match equals the declared correct match. A
// single mismatched pair marks the whole submission incorrect.
func (dragAndMatchStrategy) Grade(q Q, resp Response) Result {
	if len(q.CorrectMatches) == 0 {
		return Result{}
	}
	for left, want := range q.CorrectMatches {
		if resp.Matches[left] != want {
			return Result{}
		}
	}
	return Result{Correct: true}
}

// All left items must be matched before submit.
func (dragAndMatchStrategy) Ready(q Q, resp Response) bool {
	for _, left := range q.LeftItems {
		if resp.Matches[left] == "" {
			return false
		}
	}
	return len(q.LeftItems) > 0
}

// helpers

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
