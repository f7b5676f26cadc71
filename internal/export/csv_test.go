package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/lexforge/manualqa/internal/question"
)

func mcQuestion() question.Question {
	return question.Question{
		ID:               "5.5.1_r0_scenario_hard",
		Type:             question.TypeScenarioHard,
		Prompt:           "A judge learns mid-trial of a small inherited stake. What now?",
		CorrectAnswer:    "Disclose the interest on the record",
		IncorrectAnswers: []string{"Continue silently", "Dismiss the case", "Transfer the stake"},
		Confidence:       92.5,
		Metadata: question.Metadata{
			SourceSection:     "5.5.1",
			SourceRule:        "A judge must disclose any financial interest.",
			SourcePageNumbers: []int{12, 13},
		},
		Validation: &question.ValidationResult{
			Components: map[string]float64{
				"question_entailment":  98,
				"answer_entailment":    91,
				"distractor_wrongness": 95,
			},
			Passes:    true,
			Threshold: question.QualityThreshold,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	qs := []question.Question{mcQuestion()}
	opts := Options{Domain: "Judicial Conduct", ManualName: "Judicial Conduct Manual"}
	if err := WriteCSV(&buf, qs, opts); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("output missing UTF-8 BOM")
	}

	r := csv.NewReader(bytes.NewReader(out[3:]))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header + 1 row", len(records))
	}

	header := records[0]
	if len(header) != 12 {
		t.Fatalf("got %d columns, want 12", len(header))
	}
	for i, want := range Columns {
		if header[i] != want {
			t.Errorf("column %d = %q, want %q", i, header[i], want)
		}
	}

	row := records[1]
	checks := map[int]string{
		0:  "Closed QA",
		1:  "Judicial Conduct",
		2:  "Hard",
		4:  "Disclose the interest on the record",
		5:  "Continue silently",
		8:  "A judge must disclose any financial interest.",
		9:  "Judicial Conduct Manual, Section 5.5.1, Pages 12, 13",
		10: "",
	}
	for col, want := range checks {
		if row[col] != want {
			t.Errorf("row[%d] = %q, want %q", col, row[col], want)
		}
	}
	// Notes carry rule id, confidence, and the weakest validation
	// component.
	if want := "Rule: 5.5.1_r0, Confidence: 92.5, Validation: 91.0"; row[11] != want {
		t.Errorf("notes = %q, want %q", row[11], want)
	}
}

func TestRowRefusal(t *testing.T) {
	q := question.Question{
		ID:            "5.5.1_r1_refusal",
		Type:          question.TypeRefusal,
		Prompt:        "Should Judge Smith hear the Acme case?",
		RefusalReason: "fact dependent",
		Confidence:    88,
		Metadata:      question.Metadata{SourceSection: "5.5.1"},
	}
	row := Row(&q, Options{})

	if row[0] != "Refusal Question" {
		t.Errorf("question type = %q", row[0])
	}
	if row[2] != "Medium" {
		t.Errorf("difficulty = %q", row[2])
	}
	if !strings.Contains(row[4], "refuse") {
		t.Errorf("ground truth = %q, want refusal boilerplate", row[4])
	}
	for col := 5; col <= 7; col++ {
		if row[col] != "" {
			t.Errorf("row[%d] = %q, want empty for refusal", col, row[col])
		}
	}
	// No page numbers: citation stops at the section.
	if row[9] != "Manual, Section 5.5.1" {
		t.Errorf("citation = %q", row[9])
	}
}

func TestRowDifficultyMapping(t *testing.T) {
	cases := map[string]string{
		question.TypeDefinitional: "Medium",
		question.TypeScenarioEasy: "Easy",
		question.TypeScenarioHard: "Hard",
		question.TypeRefusal:      "Medium",
	}
	for qtype, want := range cases {
		q := mcQuestion()
		q.Type = qtype
		if qtype == question.TypeRefusal {
			q.CorrectAnswer = ""
			q.IncorrectAnswers = nil
			q.RefusalReason = "reason"
		}
		row := Row(&q, Options{})
		if row[2] != want {
			t.Errorf("difficulty for %s = %q, want %q", qtype, row[2], want)
		}
	}
}

func TestRowShortDistractors(t *testing.T) {
	q := mcQuestion()
	q.IncorrectAnswers = []string{"only one"}
	row := Row(&q, Options{})
	if row[5] != "only one" || row[6] != "" || row[7] != "" {
		t.Errorf("short distractor row = %v", row[5:8])
	}
}
