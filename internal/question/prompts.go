package question

import (
	"fmt"
	"strings"

	"github.com/lexforge/manualqa/internal/extract"
)

// GenerationSystemPrompt frames the model as a legal exam writer.
const GenerationSystemPrompt = `You are an expert legal examiner writing evaluation questions from rules in a legal reference manual. You respond only with valid JSON, no markdown fences and no commentary.`

// ValidationSystemPrompt frames the model as a strict grader.
const ValidationSystemPrompt = `You are a strict legal reviewer grading evaluation questions against their source material. You respond only with valid JSON, no markdown fences and no commentary.`

const mcShape = `Respond with a JSON object:
{
  "question": "the question text",
  "correct_answer": "the single correct answer",
  "incorrect_answers": ["plausible but wrong", "plausible but wrong", "plausible but wrong"],
  "confidence": 0-100
}
There must be exactly one correct answer and exactly three incorrect answers. Each incorrect answer must be clearly wrong under the rule but plausible to a reader who has not studied it.`

const refusalShape = `Respond with a JSON object:
{
  "question": "the question text",
  "refusal_reason": "why a competent assistant must decline to answer definitively",
  "confidence": 0-100
}`

func ruleContext(rule extract.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule (quoted verbatim from section %s):\n%s\n\n", rule.SourceSection, rule.RuleText)
	fmt.Fprintf(&b, "Rule type: %s\n", rule.RuleType)
	if rule.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", rule.Summary)
	}
	if len(rule.Actors) > 0 {
		fmt.Fprintf(&b, "Actors: %s\n", strings.Join(rule.Actors, ", "))
	}
	if rule.Conditions != "" {
		fmt.Fprintf(&b, "Conditions: %s\n", rule.Conditions)
	}
	return b.String()
}

// BuildGenerationPrompt renders the user prompt for one question type
// over one rule. sectionText gives the model surrounding context so
// distractors stay on-topic.
func BuildGenerationPrompt(qtype string, rule extract.Rule, sectionText string) string {
	var b strings.Builder
	b.WriteString(ruleContext(rule))
	fmt.Fprintf(&b, "\nSection context:\n%s\n\n", sectionText)

	switch qtype {
	case TypeDefinitional:
		b.WriteString(`Write one multiple-choice question that tests whether the reader knows what this rule says. The question should ask directly about the rule's content, not a hypothetical. ` + mcShape)
	case TypeScenarioEasy:
		b.WriteString(`Write one multiple-choice question presenting a short, concrete scenario where this rule clearly applies. A reader who knows the rule should immediately see the answer. ` + mcShape)
	case TypeScenarioHard:
		b.WriteString(`Write one multiple-choice question presenting a scenario where applying this rule requires care: edge conditions, competing considerations, or facts that superficially point the wrong way. The correct answer must still follow strictly from the rule as quoted. ` + mcShape)
	case TypeRefusal:
		b.WriteString(`Write one question that LOOKS like it is about this rule but that a competent assistant must refuse to answer definitively, because the answer depends on facts, jurisdictional details, or discretion the rule does not resolve. ` + refusalShape)
	}
	return b.String()
}

// Validation component prompts. Each asks for a 0-100 score.

const scoreShape = `Respond with a JSON object:
{
  "score": 0-100,
  "reasoning": "one or two sentences"
}`

// BuildQuestionEntailmentPrompt checks the question is answerable from
// the section text alone.
func BuildQuestionEntailmentPrompt(q *Question, sectionText string) string {
	return fmt.Sprintf(`Section text:
%s

Question:
%s

Score 0-100 how fully this question can be answered using ONLY the section text above. 100 means the section alone determines the answer; 0 means the section is irrelevant. %s`, sectionText, q.Prompt, scoreShape)
}

// BuildAnswerEntailmentPrompt checks the stated correct answer follows
// from the section.
func BuildAnswerEntailmentPrompt(q *Question, sectionText string) string {
	return fmt.Sprintf(`Section text:
%s

Question:
%s

Proposed correct answer:
%s

Score 0-100 how strongly the section text entails that this answer is correct. %s`, sectionText, q.Prompt, q.CorrectAnswer, scoreShape)
}

// BuildDistractorPrompt checks every incorrect answer is actually wrong.
func BuildDistractorPrompt(q *Question, sectionText string) string {
	var opts strings.Builder
	for i, a := range q.IncorrectAnswers {
		fmt.Fprintf(&opts, "%d. %s\n", i+1, a)
	}
	return fmt.Sprintf(`Section text:
%s

Question:
%s

Answers presented as incorrect:
%s
Score 0-100 how confident you are that ALL of these answers are wrong under the section text. A single defensible answer among them drops the score below 50. %s`, sectionText, q.Prompt, opts.String(), scoreShape)
}

// BuildRefusalPrompt checks a refusal question genuinely warrants
// declining.
func BuildRefusalPrompt(q *Question, sectionText string) string {
	return fmt.Sprintf(`Section text:
%s

Question:
%s

Stated reason a definitive answer must be refused:
%s

Score 0-100 how genuinely this question warrants refusal given the section text. 100 means no responsible answer is possible from the section alone; 0 means the section plainly answers it. %s`, sectionText, q.Prompt, q.RefusalReason, scoreShape)
}
