package extract

import (
	"fmt"
	"strings"

	"github.com/lexforge/manualqa/internal/docmodel"
)

// RuleSystemPrompt frames the extraction role for the model.
const RuleSystemPrompt = "You are a legal analyst extracting rules from legal documents. Return valid JSON only."

const ruleExtractionPrompt = `You are a legal expert analyzing a legal reference manual. Extract all legal rules from this section.

A "rule" is any statement that:
- Creates an obligation (must, shall, required to)
- Grants permission (may, can, are permitted to)
- States a prohibition (may not, shall not, prohibited)
- Defines a legal status or classification
- Establishes conditions or exceptions

For each rule, provide:
1. rule_text: Exact sentence(s) containing the rule, quoted verbatim from the section text
2. rule_type: one of obligation, permission, prohibition, definition, exception
3. summary: Brief plain-English summary
4. actors: list of who the rule applies to
5. conditions: When/how the rule applies
6. confidence: one of high, medium, low
7. footnote_refs: list of footnote numbers referenced (integers)

Return a JSON object of the form {"rules": [...]}.`

// BuildRulePrompt creates the user prompt for extracting rules from one
// section, including its id, title and body text.
func BuildRulePrompt(section *docmodel.Section) string {
	var sb strings.Builder
	sb.WriteString(ruleExtractionPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Section %s: %s\n", section.ID, section.Title))
	sb.WriteString("Text:\n")
	sb.WriteString(section.Text)
	return sb.String()
}
