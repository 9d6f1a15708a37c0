package grading_test

import (
	"testing"

	"github.com/examloop/examloop/internal/grading"
)

func TestSelectOne(t *testing.T) {
	g := grading.NewDefaultGrader()
	q := grading.Q{Type: "select_one", CorrectIDs: []string{"b"}}

	if res, err := g.Grade(q, grading.Response{AnswerIDs: []string{"b"}}); err != nil || !res.Correct {
		t.Fatalf("correct choice: got %+v, %v", res, err)
	}
	if res, _ := g.Grade(q, grading.Response{AnswerIDs: []string{"a"}}); res.Correct {
		t.Fatalf("wrong choice graded correct")
	}
	if res, _ := g.Grade(q, grading.Response{}); res.Correct {
		t.Fatalf("empty response graded correct")
	}
}

func TestSelectMultipleExactSet(t *testing.T) {
	g := grading.NewDefaultGrader()
	q := grading.Q{Type: "select_multiple", CorrectIDs: []string{"a", "c"}}

	cases := []struct {
		name string
		ids  []string
		want bool
	}{
		{"exact match", []string{"a", "c"}, true},
		{"order independent", []string{"c", "a"}, true},
		{"missing one", []string{"a"}, false},
		{"extra wrong", []string{"a", "c", "b"}, false},
		{"all wrong", []string{"b", "d"}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		res, err := g.Grade(q, grading.Response{AnswerIDs: tc.ids})
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if res.Correct != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, res.Correct, tc.want)
		}
	}
}

func TestDragAndMatch(t *testing.T) {
	g := grading.NewDefaultGrader()
	q := grading.Q{
		Type:      "drag_and_match",
		LeftItems: []string{"initiating", "planning"},
		CorrectMatches: map[string]string{
			"initiating": "charter",
			"planning":   "schedule",
		},
	}

	ok, err := g.Grade(q, grading.Response{Matches: map[string]string{
		"initiating": "charter",
		"planning":   "schedule",
	}})
	if err != nil || !ok.Correct {
		t.Fatalf("all pairs correct: got %+v, %v", ok, err)
	}

	res, _ := g.Grade(q, grading.Response{Matches: map[string]string{
		"initiating": "schedule",
		"planning":   "charter",
	}})
	if res.Correct {
		t.Fatalf("swapped pairs graded correct")
	}

	res, _ = g.Grade(q, grading.Response{Matches: map[string]string{
		"initiating": "charter",
	}})
	if res.Correct {
		t.Fatalf("partial mapping graded correct")
	}
}

func TestReady(t *testing.T) {
	g := grading.NewDefaultGrader()

	ready := func(q grading.Q, resp grading.Response) bool {
		t.Helper()
		ok, err := g.Ready(q, resp)
		if err != nil {
			t.Fatalf("ready: %v", err)
		}
		return ok
	}

	one := grading.Q{Type: "select_one", CorrectIDs: []string{"a"}}
	if ready(one, grading.Response{}) {
		t.Errorf("select_one ready with no selection")
	}
	if !ready(one, grading.Response{AnswerIDs: []string{"b"}}) {
		t.Errorf("select_one not ready with one selection")
	}
	if ready(one, grading.Response{AnswerIDs: []string{"a", "b"}}) {
		t.Errorf("select_one ready with two selections")
	}

	multi := grading.Q{Type: "select_multiple", CorrectIDs: []string{"a", "b"}}
	if ready(multi, grading.Response{}) {
		t.Errorf("select_multiple ready with no selection")
	}
	if !ready(multi, grading.Response{AnswerIDs: []string{"c"}}) {
		t.Errorf("select_multiple not ready with one selection")
	}

	match := grading.Q{
		Type:           "drag_and_match",
		LeftItems:      []string{"l1", "l2"},
		CorrectMatches: map[string]string{"l1": "r1", "l2": "r2"},
	}
	if ready(match, grading.Response{Matches: map[string]string{"l1": "r1"}}) {
		t.Errorf("drag_and_match ready with unmatched left item")
	}
	if !ready(match, grading.Response{Matches: map[string]string{"l1": "r2", "l2": "r1"}}) {
		t.Errorf("drag_and_match not ready with all items matched")
	}

	if _, err := g.Ready(grading.Q{Type: "hotspot"}, grading.Response{}); err == nil {
		t.Errorf("unknown type accepted")
	}
}
