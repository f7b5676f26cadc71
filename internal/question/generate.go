package question

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexforge/manualqa/internal/docmodel"
	"github.com/lexforge/manualqa/internal/extract"
)

// Sampling temperatures per question type. Definitional questions stay
// close to the rule text; scenarios need more variety; refusal sits in
// between.
var generationTemperature = map[string]float64{
	TypeDefinitional: 0.3,
	TypeScenarioEasy: 0.5,
	TypeScenarioHard: 0.5,
	TypeRefusal:      0.4,
}

// Generator produces questions for extracted rules.
type Generator struct {
	chat Chat
	log  *slog.Logger
	now  func() time.Time
}

// NewGenerator returns a Generator backed by chat.
func NewGenerator(chat Chat, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{chat: chat, log: log, now: time.Now}
}

// generated is the wire shape the model returns for one question.
type generated struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
	RefusalReason    string   `json:"refusal_reason"`
	Confidence       float64  `json:"confidence"`
}

// Generate produces one question of each type in types for the given
// rule. ruleIndex is the rule's position within its section and feeds
// the question id. A failed generation for one type is logged and
// skipped; the remaining types still run.
func (g *Generator) Generate(ctx context.Context, rule extract.Rule, ruleIndex int, section *docmodel.Section, types []string) ([]Question, error) {
	if len(types) == 0 {
		types = AllTypes
	}
	var out []Question
	var lastErr error
	for _, qtype := range types {
		if !ValidType(qtype) {
			return nil, fmt.Errorf("unknown question type %q", qtype)
		}
		q, err := g.generateOne(ctx, qtype, rule, ruleIndex, section)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			g.log.Warn("question generation failed",
				"section", rule.SourceSection, "rule", ruleIndex, "type", qtype, "error", err)
			lastErr = err
			continue
		}
		out = append(out, *q)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (g *Generator) generateOne(ctx context.Context, qtype string, rule extract.Rule, ruleIndex int, section *docmodel.Section) (*Question, error) {
	prompt := BuildGenerationPrompt(qtype, rule, section.Text)
	raw, _, err := g.chat.ChatJSON(ctx, GenerationSystemPrompt, prompt, generationTemperature[qtype])
	if err != nil {
		return nil, err
	}
	var gen generated
	if err := json.Unmarshal([]byte(raw), &gen); err != nil {
		return nil, fmt.Errorf("decode %s question: %w", qtype, err)
	}
	if gen.Question == "" {
		return nil, fmt.Errorf("%s generation returned empty question", qtype)
	}

	q := &Question{
		ID:         questionID(rule.SourceSection, ruleIndex, qtype),
		Type:       qtype,
		Prompt:     gen.Question,
		Confidence: gen.Confidence,
		Metadata: Metadata{
			SourceSection:       rule.SourceSection,
			SourceRule:          rule.RuleText,
			RuleType:            rule.RuleType,
			FootnotesUsed:       rule.FootnoteRefs,
			GenerationModel:     g.chat.Model(),
			GenerationTimestamp: g.now().UTC(),
			SourcePageNumbers:   rule.SourcePages,
		},
	}
	if qtype == TypeRefusal {
		q.RefusalReason = gen.RefusalReason
	} else {
		q.CorrectAnswer = gen.CorrectAnswer
		q.IncorrectAnswers = gen.IncorrectAnswers
	}
	return q, nil
}
