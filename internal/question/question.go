// Package question generates and validates evaluation questions from
// extracted legal rules. Four question types are produced per rule:
// definitional, easy and hard scenario, and refusal. Validation is a
// hard structural gate followed by model-scored entailment checks that
// must all clear a fixed quality threshold.
package question

import (
	"context"
	"fmt"
	"time"

	"github.com/lexforge/manualqa/internal/extract"
)

// Question types.
const (
	TypeDefinitional = "definitional"
	TypeScenarioEasy = "scenario_easy"
	TypeScenarioHard = "scenario_hard"
	TypeRefusal      = "refusal"
)

// AllTypes lists every question type in generation order.
var AllTypes = []string{TypeDefinitional, TypeScenarioEasy, TypeScenarioHard, TypeRefusal}

// ValidType reports whether t is a known question type.
func ValidType(t string) bool {
	switch t {
	case TypeDefinitional, TypeScenarioEasy, TypeScenarioHard, TypeRefusal:
		return true
	}
	return false
}

// Chat is the LLM surface the generator and validator need. Satisfied by
// *extract.OpenAIClient.
type Chat interface {
	ChatJSON(ctx context.Context, system, user string, temperature float64) (string, extract.Usage, error)
	Model() string
}

// Metadata carries provenance for one generated question.
type Metadata struct {
	SourceSection       string    `json:"source_section"`
	SourceRule          string    `json:"source_rule"`
	RuleType            string    `json:"rule_type"`
	FootnotesUsed       []int     `json:"footnotes_used"`
	GenerationModel     string    `json:"generation_model"`
	GenerationTimestamp time.Time `json:"generation_timestamp"`
	SourcePageNumbers   []int     `json:"source_page_numbers"`
}

// Question is one evaluation question. MC questions carry a correct
// answer and exactly three incorrect answers; refusal questions carry a
// refusal reason and no answer options.
type Question struct {
	ID               string   `json:"question_id"`
	Type             string   `json:"question_type"`
	Prompt           string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer,omitempty"`
	IncorrectAnswers []string `json:"incorrect_answers,omitempty"`
	RefusalReason    string   `json:"refusal_reason,omitempty"`
	Confidence       float64  `json:"confidence"`
	Metadata         Metadata `json:"metadata"`

	Validation *ValidationResult `json:"validation,omitempty"`
}

// IsMC reports whether the question is multiple-choice.
func (q *Question) IsMC() bool {
	return q.Type != TypeRefusal
}

// questionID builds the deterministic id for a rule's question, e.g.
// "5.5.1_r0_def".
func questionID(sectionID string, ruleIndex int, qtype string) string {
	suffix := map[string]string{
		TypeDefinitional: "def",
		TypeScenarioEasy: "scenario_easy",
		TypeScenarioHard: "scenario_hard",
		TypeRefusal:      "refusal",
	}[qtype]
	return fmt.Sprintf("%s_r%d_%s", sectionID, ruleIndex, suffix)
}

// RuleID extracts the rule identifier from a question id, e.g.
// "5.5.1_r0_scenario_easy" yields "5.5.1_r0".
func RuleID(questionID string) string {
	for _, suffix := range []string{"_def", "_scenario_easy", "_scenario_hard", "_refusal"} {
		if len(questionID) > len(suffix) && questionID[len(questionID)-len(suffix):] == suffix {
			return questionID[:len(questionID)-len(suffix)]
		}
	}
	return questionID
}
