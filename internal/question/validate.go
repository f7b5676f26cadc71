package question

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexforge/manualqa/internal/docmodel"
)

// QualityThreshold is the minimum score every validation component must
// reach for a question to pass.
const QualityThreshold = 90.0

// ValidationResult records the model-scored components for one
// question and whether all of them cleared the threshold.
type ValidationResult struct {
	Components     map[string]float64 `json:"components"`
	Passes         bool               `json:"passes_threshold"`
	Threshold      float64            `json:"threshold"`
	RejectedReason string             `json:"rejected_reason,omitempty"`
}

// ValidateStructure is the hard gate that runs before any model
// scoring. It returns every structural problem found; an empty slice
// means the question may proceed to scoring.
func ValidateStructure(q *Question, sections docmodel.SectionMap) []string {
	var problems []string
	if q.ID == "" {
		problems = append(problems, "missing question id")
	}
	if !ValidType(q.Type) {
		problems = append(problems, fmt.Sprintf("unknown question type %q", q.Type))
	}
	if strings.TrimSpace(q.Prompt) == "" {
		problems = append(problems, "empty question text")
	}
	if q.Confidence < 0 || q.Confidence > 100 {
		problems = append(problems, fmt.Sprintf("confidence %v outside 0-100", q.Confidence))
	}
	if q.Metadata.SourceSection == "" {
		problems = append(problems, "missing source section")
	} else if _, ok := sections[q.Metadata.SourceSection]; !ok {
		problems = append(problems, fmt.Sprintf("source section %q not in document", q.Metadata.SourceSection))
	}

	if q.IsMC() {
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			problems = append(problems, "multiple-choice question has no correct answer")
		}
		if len(q.IncorrectAnswers) != 3 {
			problems = append(problems, fmt.Sprintf("expected 3 incorrect answers, got %d", len(q.IncorrectAnswers)))
		}
		for i, a := range q.IncorrectAnswers {
			if strings.TrimSpace(a) == "" {
				problems = append(problems, fmt.Sprintf("incorrect answer %d is empty", i+1))
			}
		}
		if q.RefusalReason != "" {
			problems = append(problems, "multiple-choice question carries a refusal reason")
		}
	} else {
		if strings.TrimSpace(q.RefusalReason) == "" {
			problems = append(problems, "refusal question has no refusal reason")
		}
		if q.CorrectAnswer != "" || len(q.IncorrectAnswers) > 0 {
			problems = append(problems, "refusal question carries answer options")
		}
	}
	return problems
}

// Validator scores questions against their source section.
type Validator struct {
	chat Chat
	log  *slog.Logger
}

// NewValidator returns a Validator backed by chat.
func NewValidator(chat Chat, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{chat: chat, log: log}
}

type scored struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

func (v *Validator) score(ctx context.Context, prompt string) (float64, error) {
	raw, _, err := v.chat.ChatJSON(ctx, ValidationSystemPrompt, prompt, 0.0)
	if err != nil {
		return 0, err
	}
	var s scored
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return 0, fmt.Errorf("decode score: %w", err)
	}
	if s.Score < 0 || s.Score > 100 {
		return 0, fmt.Errorf("score %v outside 0-100", s.Score)
	}
	return s.Score, nil
}

// Validate runs the structural gate and the model-scored components
// for q. Structural failures short-circuit with Passes false and no
// component scores. Multiple-choice questions are scored on question
// entailment, answer entailment, and distractor wrongness; refusal
// questions on question entailment and refusal justification. Every
// component must reach QualityThreshold.
func (v *Validator) Validate(ctx context.Context, q *Question, sections docmodel.SectionMap) (*ValidationResult, error) {
	res := &ValidationResult{
		Components: map[string]float64{},
		Threshold:  QualityThreshold,
	}
	if problems := ValidateStructure(q, sections); len(problems) > 0 {
		res.RejectedReason = "structure: " + strings.Join(problems, "; ")
		return res, nil
	}
	sectionText := sections[q.Metadata.SourceSection].Text

	components := map[string]string{
		"question_entailment": BuildQuestionEntailmentPrompt(q, sectionText),
	}
	if q.IsMC() {
		components["answer_entailment"] = BuildAnswerEntailmentPrompt(q, sectionText)
		components["distractor_wrongness"] = BuildDistractorPrompt(q, sectionText)
	} else {
		components["refusal_justification"] = BuildRefusalPrompt(q, sectionText)
	}

	res.Passes = true
	for name, prompt := range components {
		score, err := v.score(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("score %s for %s: %w", name, q.ID, err)
		}
		res.Components[name] = score
		if score < QualityThreshold {
			res.Passes = false
			if res.RejectedReason == "" {
				res.RejectedReason = fmt.Sprintf("%s scored %.0f, below %.0f", name, score, QualityThreshold)
			}
		}
	}
	v.log.Debug("question validated", "id", q.ID, "passes", res.Passes, "components", res.Components)
	return res, nil
}
