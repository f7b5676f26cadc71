// Package structure reconstructs the hierarchical section structure of a
// paginated legal manual: numbered headings, nested subsections, body
// text and page provenance, with footnote regions excluded via page
// geometry.
package structure

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexforge/manualqa/internal/docmodel"
	"github.com/lexforge/manualqa/internal/pagesource"
)

// Config holds the geometry thresholds for footnote separator detection.
// Values are in page units (PDF points).
type Config struct {
	SeparatorWidth float64 // exact width of the footnote rule
	WidthTolerance float64 // accepted deviation from SeparatorWidth
	MaxRuleHeight  float64 // rectangles at least this tall are not rules
}

// DefaultConfig matches the manual family this service targets: the
// footnote separator is a 140-unit black rule on every page.
func DefaultConfig() Config {
	return Config{
		SeparatorWidth: 140,
		WidthTolerance: 1,
		MaxRuleHeight:  5,
	}
}

// Parser extracts the section structure of a document.
type Parser struct {
	cfg Config
	log *slog.Logger
}

func NewParser(cfg Config, log *slog.Logger) *Parser {
	if cfg.SeparatorWidth <= 0 {
		cfg = DefaultConfig()
	}
	return &Parser{cfg: cfg, log: log}
}

// Parse walks all pages in document order and returns the section map.
// It takes ownership of the source and closes it on every exit path.
// An optional prefix narrows the result to that section and its
// descendants; hierarchy is computed on the unfiltered set first.
func (p *Parser) Parse(src pagesource.Source, prefix string) (docmodel.SectionMap, error) {
	defer src.Close()

	acc := newAccumulator()
	for pageNum := 1; pageNum <= src.NumPages(); pageNum++ {
		page, err := src.Page(pageNum)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", pageNum, err)
		}
		text, err := p.pageBody(page)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", pageNum, err)
		}
		if strings.TrimSpace(text) == "" {
			// Blank or image-only page.
			continue
		}
		p.walkLines(acc, newLineQueue(strings.Split(text, "\n")), pageNum)
	}
	acc.flush()

	sections := acc.sections
	buildHierarchy(sections)
	if prefix != "" {
		sections = FilterPrefix(sections, prefix)
	}

	p.log.Debug("parsed document", "sections", len(sections), "pages", src.NumPages(), "prefix", prefix)
	return sections, nil
}

// pageBody returns the page text with the footnote region excluded. When
// no separator is found the full page is used; footnotes may then leak
// into body text for that page, which is an accepted degradation.
func (p *Parser) pageBody(page pagesource.Page) (string, error) {
	if y, ok := findSeparator(page.Rects(), p.cfg); ok {
		return page.TextAbove(y)
	}
	return page.Text()
}

// walkLines feeds one page's lines through the accumulator.
func (p *Parser) walkLines(acc *accumulator, q *lineQueue, pageNum int) {
	for {
		raw, ok := q.Next()
		if !ok {
			return
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		h, ok := matchHeading(line)
		if !ok {
			acc.body(line, pageNum)
			continue
		}

		// Deep headings (two or more dots) render across two physical
		// lines; top-level ids like "5.5" are single-line and all caps.
		if h.depth() >= 2 {
			resolveContinuation(&h, q)
		}
		acc.open(h.id, strings.TrimSuffix(h.title, "."), pageNum)
	}
}

// resolveContinuation merges a heading's second physical line into its
// title. A following line that is itself a heading, or blank, means no
// continuation. Otherwise the line is split at its first period: the part
// up to and including the period joins the title, and any remainder is
// pushed back to be read as body text. A period-free line joins the title
// whole.
func resolveContinuation(h *heading, q *lineQueue) {
	raw, ok := q.Peek()
	if !ok {
		return
	}
	next := strings.TrimSpace(raw)
	if next == "" {
		return
	}
	if _, isHeading := matchHeading(next); isHeading {
		return
	}

	q.Next()
	if idx := strings.Index(next, "."); idx >= 0 {
		h.title += " " + next[:idx+1]
		if remainder := strings.TrimSpace(next[idx+1:]); remainder != "" {
			q.PushBack(remainder)
		}
		return
	}
	h.title += " " + next
}
