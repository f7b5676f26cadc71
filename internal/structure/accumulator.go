package structure

import (
	"sort"
	"strings"

	"github.com/lexforge/manualqa/internal/docmodel"
)

// accumulator is the single-pass state machine that collects body lines
// and page provenance for the section currently being read. It starts
// with no current section; content seen before the first heading is
// dropped.
type accumulator struct {
	sections docmodel.SectionMap

	id    string
	title string
	lines []string
	pages map[int]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{sections: make(docmodel.SectionMap)}
}

// open finalizes the current section, if any, and starts a new one with
// the given id and title, seeding its page set with the current page.
func (a *accumulator) open(id, title string, page int) {
	a.flush()
	a.id = id
	a.title = title
	a.lines = nil
	a.pages = map[int]struct{}{page: {}}
}

// body appends a non-heading line to the current section. Lines arriving
// while no section is open have nothing to attach to and are dropped.
func (a *accumulator) body(line string, page int) {
	if a.id == "" {
		return
	}
	a.lines = append(a.lines, line)
	a.pages[page] = struct{}{}
}

// flush writes the current section into the output map. Called when a
// new heading opens and once more when input is exhausted.
func (a *accumulator) flush() {
	if a.id == "" {
		return
	}
	pages := make([]int, 0, len(a.pages))
	for p := range a.pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	a.sections[a.id] = &docmodel.Section{
		ID:          a.id,
		Title:       a.title,
		Text:        strings.TrimSpace(strings.Join(a.lines, "\n")),
		PageNumbers: pages,
	}
	a.id = ""
	a.title = ""
	a.lines = nil
	a.pages = nil
}
