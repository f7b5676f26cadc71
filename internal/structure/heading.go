package structure

import (
	"regexp"
	"strings"
)

// headingPattern matches section heading lines: a dotted numeric id of at
// least two parts followed by title text, any casing, any punctuation.
var headingPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)+)\s+(.+?)\s*$`)

// heading carries the numeric id and title fragment of a matched line.
type heading struct {
	id    string
	title string
}

// depth is the number of dot separators in the id. Ids like "5.5" are
// depth 1, "5.5.1" is depth 2.
func (h heading) depth() int {
	return strings.Count(h.id, ".")
}

// matchHeading classifies a line as a section heading. The pattern
// requires at least two dot-separated numeric components, so plain
// numbers never match. False positives on body text that happens to
// start with digits and dots are accepted as headings; there is no
// semantic validation at this layer.
func matchHeading(line string) (heading, bool) {
	m := headingPattern.FindStringSubmatch(line)
	if m == nil {
		return heading{}, false
	}
	return heading{id: m[1], title: strings.TrimSpace(m[2])}, true
}
