// Package importer loads question banks from spreadsheet exports. Content
// teams maintain banks as XLSX or CSV; each row is one question.
//
// Expected columns (1-based, after the header row):
//
//	1 certification_id
//	2 type                select_one|select_multiple|drag_and_match
//	3 text
//	4 answers             pipe-separated choice texts (choice types)
//	                      or pipe-separated left items (drag_and_match)
//	5 correct             pipe-separated 1-based indices into answers
//	                      or pipe-separated right items (drag_and_match)
//	6 matches             left>right pairs, pipe-separated (drag_and_match only)
//	7 explanation
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/examloop/examloop/internal/exam"
)

type Result struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

type Importer struct {
	store exam.Store
	// SheetName is the XLSX sheet read; empty means the first sheet.
	SheetName string
}

func New(store exam.Store) *Importer { return &Importer{store: store} }

// ImportXLSX reads a workbook and upserts one question per row, skipping the
// header row.
func (im *Importer) ImportXLSX(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := im.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}
	return im.importRows(ctx, rows)
}

// ImportCSV reads comma-separated rows with the same column layout.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	return im.importRows(ctx, records)
}

func (im *Importer) importRows(ctx context.Context, rows [][]string) (*Result, error) {
	res := &Result{}
	for i, row := range rows {
		res.Processed++
		q, err := parseRow(row)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		if err := im.store.PutQuestion(ctx, q); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: store: %v", i+2, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

func parseRow(row []string) (exam.Question, error) {
	if len(row) < 5 {
		return exam.Question{}, fmt.Errorf("expected at least 5 columns, got %d", len(row))
	}
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	q := exam.Question{
		ID:              uuid.NewString(),
		CertificationID: get(0),
		Type:            exam.QuestionType(get(1)),
		Text:            get(2),
		Explanation:     get(6),
	}
	if q.CertificationID == "" || q.Text == "" {
		return exam.Question{}, fmt.Errorf("certification_id and text required")
	}

	switch q.Type {
	case exam.TypeSelectOne, exam.TypeSelectMultiple:
		texts := splitPipe(get(3))
		if len(texts) < 2 {
			return exam.Question{}, fmt.Errorf("need at least 2 answer choices")
		}
		correct, err := parseIndices(get(4), len(texts))
		if err != nil {
			return exam.Question{}, err
		}
		if q.Type == exam.TypeSelectOne && len(correct) != 1 {
			return exam.Question{}, fmt.Errorf("select_one needs exactly one correct index")
		}
		if len(correct) == 0 {
			return exam.Question{}, fmt.Errorf("no correct indices")
		}
		for i, text := range texts {
			q.Answers = append(q.Answers, exam.AnswerChoice{
				ID:        fmt.Sprintf("a%d", i+1),
				Text:      text,
				IsCorrect: correct[i+1],
			})
		}
	case exam.TypeDragAndMatch:
		left := splitPipe(get(3))
		right := splitPipe(get(4))
		matches, err := parseMatches(get(5), left, right)
		if err != nil {
			return exam.Question{}, err
		}
		q.Match = &exam.MatchMeta{LeftItems: left, RightItems: right, Matches: matches}
	default:
		return exam.Question{}, fmt.Errorf("unknown type %q", q.Type)
	}
	return q, nil
}

func splitPipe(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseIndices(s string, max int) (map[int]bool, error) {
	out := map[int]bool{}
	for _, p := range splitPipe(s) {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > max {
			return nil, fmt.Errorf("bad correct index %q", p)
		}
		out[n] = true
	}
	return out, nil
}

func parseMatches(s string, left, right []string) (map[string]string, error) {
	if len(left) == 0 || len(left) != len(right) {
		return nil, fmt.Errorf("drag_and_match needs equal non-empty item columns")
	}
	rightSet := map[string]bool{}
	for _, r := range right {
		rightSet[r] = true
	}
	out := map[string]string{}
	for _, pair := range splitPipe(s) {
		lr := strings.SplitN(pair, ">", 2)
		if len(lr) != 2 {
			return nil, fmt.Errorf("bad match pair %q", pair)
		}
		l, r := strings.TrimSpace(lr[0]), strings.TrimSpace(lr[1])
		if !rightSet[r] {
			return nil, fmt.Errorf("match target %q not in right items", r)
		}
		out[l] = r
	}
	for _, l := range left {
		if out[l] == "" {
			return nil, fmt.Errorf("left item %q has no match", l)
		}
	}
	return out, nil
}
