package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lexforge/manualqa/internal/docmodel"
)

// Rule is a single legal rule extracted from a manual section. RuleText
// is expected to be a verbatim quote of the source; rules that fail that
// check carry a validation warning rather than being dropped.
type Rule struct {
	RuleText     string   `json:"rule_text"`
	RuleType     string   `json:"rule_type"`
	Summary      string   `json:"summary"`
	Actors       []string `json:"actors"`
	Conditions   string   `json:"conditions"`
	Confidence   string   `json:"confidence"`
	FootnoteRefs []int    `json:"footnote_refs"`

	SourceSection     string `json:"source_section,omitempty"`
	SourcePages       []int  `json:"source_page_numbers,omitempty"`
	ValidationWarning string `json:"validation_warning,omitempty"`
}

var validRuleTypes = map[string]bool{
	"obligation":  true,
	"permission":  true,
	"prohibition": true,
	"definition":  true,
	"exception":   true,
}

// ValidRuleType reports whether t is a known rule type.
func ValidRuleType(t string) bool {
	return validRuleTypes[t]
}

// ExtractRules asks the model for every legal rule in a section, checks
// the quotes against the source text and stamps provenance metadata.
func (c *OpenAIClient) ExtractRules(ctx context.Context, section *docmodel.Section) ([]Rule, error) {
	prompt := BuildRulePrompt(section)
	text, _, err := c.ChatJSON(ctx, RuleSystemPrompt, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	var result struct {
		Rules []Rule `json:"rules"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse rules json: %w (raw: %s)", err, truncate(text, 200))
	}

	rules := result.Rules
	MarkNonVerbatim(rules, section.Text)
	for i := range rules {
		rules[i].SourceSection = section.ID
		rules[i].SourcePages = section.PageNumbers
	}
	return rules, nil
}

// MarkNonVerbatim flags rules whose rule_text does not appear verbatim in
// the source section. Minor whitespace differences are tolerated by
// normalizing runs of whitespace before comparing.
func MarkNonVerbatim(rules []Rule, sourceText string) {
	normalizedSource := normalizeSpace(sourceText)
	for i := range rules {
		if rules[i].RuleText == "" {
			rules[i].ValidationWarning = "rule_text is empty"
			continue
		}
		if !strings.Contains(normalizedSource, normalizeSpace(rules[i].RuleText)) {
			rules[i].ValidationWarning = "rule_text not found verbatim in source"
		}
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
