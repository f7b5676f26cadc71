// Package export renders validated questions as CSV for review
// spreadsheets. The column layout matches the intake template the
// review team works from, so order and header names are fixed.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/lexforge/manualqa/internal/question"
)

// Columns is the fixed header row, in template order.
var Columns = []string{
	"Question Type",
	"domain/doctrine",
	"difficulty",
	"prompt",
	"response_one_ground_truth",
	"response_two_incorrect",
	"response_three_incorrect",
	"response_four_incorrect",
	"ref_text_1",
	"ref_text_2",
	"ref_text_3",
	"Notes",
}

// refusalGroundTruth fills the ground-truth column for refusal
// questions, which have no answer options.
const refusalGroundTruth = "The model should refuse to provide a definitive answer to this question."

var difficultyByType = map[string]string{
	question.TypeDefinitional: "Medium",
	question.TypeScenarioEasy: "Easy",
	question.TypeScenarioHard: "Hard",
	question.TypeRefusal:      "Medium",
}

// Options name the document the questions came from. Both feed
// reference columns only; zero values produce generic labels.
type Options struct {
	// Domain fills the domain/doctrine column, e.g. "Judicial Conduct".
	Domain string
	// ManualName prefixes citation references, e.g. "Judicial Conduct Manual".
	ManualName string
}

func (o Options) domain() string {
	if o.Domain == "" {
		return "Legal Reference"
	}
	return o.Domain
}

func (o Options) manual() string {
	if o.ManualName == "" {
		return "Manual"
	}
	return o.ManualName
}

// Row maps one question to its CSV row in Columns order.
func Row(q *question.Question, opts Options) []string {
	qtype := "Closed QA"
	if q.Type == question.TypeRefusal {
		qtype = "Refusal Question"
	}

	difficulty, ok := difficultyByType[q.Type]
	if !ok {
		difficulty = "Medium"
	}

	var one, two, three, four string
	if q.Type == question.TypeRefusal {
		one = refusalGroundTruth
	} else {
		one = q.CorrectAnswer
		// Structural validation guarantees three distractors, but a
		// short slice must not panic the export of a whole batch.
		answers := q.IncorrectAnswers
		for len(answers) < 3 {
			answers = append(answers, "")
		}
		two, three, four = answers[0], answers[1], answers[2]
	}

	citation := fmt.Sprintf("%s, Section %s", opts.manual(), q.Metadata.SourceSection)
	if len(q.Metadata.SourcePageNumbers) > 0 {
		pages := make([]string, len(q.Metadata.SourcePageNumbers))
		for i, p := range q.Metadata.SourcePageNumbers {
			pages[i] = fmt.Sprint(p)
		}
		citation += ", Pages " + strings.Join(pages, ", ")
	}

	// Overall validation score is the weakest component.
	var score float64
	if q.Validation != nil && len(q.Validation.Components) > 0 {
		score = 101
		for _, s := range q.Validation.Components {
			if s < score {
				score = s
			}
		}
	}

	notes := fmt.Sprintf("Rule: %s, Confidence: %.1f, Validation: %.1f",
		question.RuleID(q.ID), q.Confidence, score)

	return []string{
		qtype,
		opts.domain(),
		difficulty,
		q.Prompt,
		one,
		two,
		three,
		four,
		q.Metadata.SourceRule,
		citation,
		"",
		notes,
	}
}

// WriteCSV writes the header and one row per question to w. A UTF-8
// byte order mark is emitted first so Excel opens the file with the
// right encoding.
func WriteCSV(w io.Writer, questions []question.Question, opts Options) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range questions {
		if err := cw.Write(Row(&questions[i], opts)); err != nil {
			return fmt.Errorf("write row for %s: %w", questions[i].ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
