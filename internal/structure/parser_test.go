package structure

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/lexforge/manualqa/internal/docmodel"
	"github.com/lexforge/manualqa/internal/pagesource"
)

// fakePage is a synthetic page: full is the whole-page text, body the
// text above the separator.
type fakePage struct {
	num   int
	rects []pagesource.Rect
	full  string
	body  string
	err   error
}

func (p *fakePage) Number() int                 { return p.num }
func (p *fakePage) Rects() []pagesource.Rect    { return p.rects }
func (p *fakePage) Text() (string, error)       { return p.full, p.err }
func (p *fakePage) TextAbove(float64) (string, error) { return p.body, p.err }

type fakeSource struct {
	pages  []*fakePage
	closed bool
}

func (s *fakeSource) NumPages() int { return len(s.pages) }

func (s *fakeSource) Page(i int) (pagesource.Page, error) {
	return s.pages[i-1], nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func pageOf(num int, lines ...string) *fakePage {
	return &fakePage{num: num, full: strings.Join(lines, "\n")}
}

func newTestParser() *Parser {
	return NewParser(DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mustParse(t *testing.T, src pagesource.Source, prefix string) docmodel.SectionMap {
	t.Helper()
	sections, err := newTestParser().Parse(src, prefix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sections
}

func TestParse_FootnoteExclusion(t *testing.T) {
	black := 0.0
	page := &fakePage{
		num: 1,
		rects: []pagesource.Rect{
			{Width: 140, Height: 2, Top: 650, Fill: &black},
		},
		full: "5.5 DISCRIMINATION\nBody above the rule.\n1 Footnote citation text.",
		body: "5.5 DISCRIMINATION\nBody above the rule.",
	}
	src := &fakeSource{pages: []*fakePage{page}}

	sections := mustParse(t, src, "")
	s := sections["5.5"]
	if s == nil {
		t.Fatal("section 5.5 not found")
	}
	if !strings.Contains(s.Text, "Body above the rule.") {
		t.Errorf("body text missing: %q", s.Text)
	}
	if strings.Contains(s.Text, "Footnote citation") {
		t.Errorf("footnote text leaked into body: %q", s.Text)
	}
}

func TestParse_NoSeparatorFallsBackToFullPage(t *testing.T) {
	page := &fakePage{
		num:  1,
		full: "5.5 DISCRIMINATION\nBody text.",
		body: "should not be used",
	}
	src := &fakeSource{pages: []*fakePage{page}}

	sections := mustParse(t, src, "")
	if got := sections["5.5"].Text; got != "Body text." {
		t.Errorf("expected full-page text, got %q", got)
	}
}

func TestParse_MultiLineHeadingMergeWithPeriod(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1,
			"5.5.1 Persons, Objects",
			"and Locations Not Protected.",
			"Some body text.",
		),
	}}

	sections := mustParse(t, src, "")
	s := sections["5.5.1"]
	if s == nil {
		t.Fatal("section 5.5.1 not found")
	}
	if s.Title != "Persons, Objects and Locations Not Protected" {
		t.Errorf("title = %q", s.Title)
	}
	if !strings.HasPrefix(s.Text, "Some body text.") {
		t.Errorf("text = %q, want it to begin with the body line", s.Text)
	}
}

func TestParse_MultiLineHeadingMergeWithoutPeriod(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1,
			"5.5.2 Short",
			"Title Tail",
			"5.5.3 Next Section.",
		),
	}}

	sections := mustParse(t, src, "")
	s := sections["5.5.2"]
	if s == nil {
		t.Fatal("section 5.5.2 not found")
	}
	if s.Title != "Short Title Tail" {
		t.Errorf("title = %q", s.Title)
	}
	if s.Text != "" {
		t.Errorf("expected empty body, got %q", s.Text)
	}
	if _, ok := sections["5.5.3"]; !ok {
		t.Error("section 5.5.3 not found")
	}
}

func TestParse_ContinuationRemainderBecomesBody(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1,
			"5.5.4 Application of",
			"Distinction. The remainder is body.",
			"More body.",
		),
	}}

	sections := mustParse(t, src, "")
	s := sections["5.5.4"]
	if s.Title != "Application of Distinction" {
		t.Errorf("title = %q", s.Title)
	}
	want := "The remainder is body.\nMore body."
	if s.Text != want {
		t.Errorf("text = %q, want %q", s.Text, want)
	}
}

func TestParse_ContinuationSkippedWhenNextLineIsHeading(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1,
			"5.5.1 First Deep Title.",
			"5.5.2 Second Deep Title.",
		),
	}}

	sections := mustParse(t, src, "")
	if got := sections["5.5.1"].Title; got != "First Deep Title" {
		t.Errorf("5.5.1 title = %q", got)
	}
	if got := sections["5.5.2"].Title; got != "Second Deep Title" {
		t.Errorf("5.5.2 title = %q", got)
	}
}

func TestParse_TopLevelHeadingsNeverContinue(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1,
			"5.5 DISCRIMINATION IN CONDUCTING ATTACKS",
			"This line is body, not a continuation.",
		),
	}}

	sections := mustParse(t, src, "")
	s := sections["5.5"]
	if s.Title != "DISCRIMINATION IN CONDUCTING ATTACKS" {
		t.Errorf("title = %q", s.Title)
	}
	if s.Text != "This line is body, not a continuation." {
		t.Errorf("text = %q", s.Text)
	}
}

func TestParse_ContinuationDoesNotCrossPageBoundary(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1, "5.5.1 Fragment Only"),
		pageOf(2, "Next page starts with body."),
	}}

	sections := mustParse(t, src, "")
	s := sections["5.5.1"]
	if s.Title != "Fragment Only" {
		t.Errorf("title = %q, continuation must not cross pages", s.Title)
	}
	if s.Text != "Next page starts with body." {
		t.Errorf("text = %q", s.Text)
	}
	if !reflect.DeepEqual(s.PageNumbers, []int{1, 2}) {
		t.Errorf("page numbers = %v, want [1 2]", s.PageNumbers)
	}
}

func TestParse_SectionSpansPages(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1, "5.5 TITLE", "Page one body."),
		pageOf(2, "Page two body."),
		pageOf(3, "5.6 NEXT", "Other."),
	}}

	sections := mustParse(t, src, "")
	s := sections["5.5"]
	if !reflect.DeepEqual(s.PageNumbers, []int{1, 2}) {
		t.Errorf("page numbers = %v, want [1 2]", s.PageNumbers)
	}
	if s.Text != "Page one body.\nPage two body." {
		t.Errorf("text = %q", s.Text)
	}
	if !reflect.DeepEqual(sections["5.6"].PageNumbers, []int{3}) {
		t.Errorf("5.6 page numbers = %v, want [3]", sections["5.6"].PageNumbers)
	}
}

func TestParse_ContentBeforeFirstHeadingDropped(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1, "Preamble text with no heading.", "", "5.5 TITLE", "Body."),
	}}

	sections := mustParse(t, src, "")
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if strings.Contains(sections["5.5"].Text, "Preamble") {
		t.Errorf("preamble leaked into section text: %q", sections["5.5"].Text)
	}
}

func TestParse_BlankPagesSkipped(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1, "5.5 TITLE", "Before blank."),
		pageOf(2, "   ", ""),
		pageOf(3, "After blank."),
	}}

	sections := mustParse(t, src, "")
	s := sections["5.5"]
	if s.Text != "Before blank.\nAfter blank." {
		t.Errorf("text = %q", s.Text)
	}
	if !reflect.DeepEqual(s.PageNumbers, []int{1, 3}) {
		t.Errorf("page numbers = %v, want [1 3]", s.PageNumbers)
	}
}

func TestParse_TrailingPeriodStripped(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1, "5.5 ALL CAPS TITLE.", "Body."),
	}}

	sections := mustParse(t, src, "")
	if got := sections["5.5"].Title; got != "ALL CAPS TITLE" {
		t.Errorf("title = %q", got)
	}
}

func hierarchyFixture() *fakeSource {
	return &fakeSource{pages: []*fakePage{
		pageOf(1,
			"5.5 DISCRIMINATION",
			"Top body.",
			"5.5.1 First Child.",
			"Child body.",
			"5.5.2 Second Child.",
			"Child body.",
		),
		pageOf(2,
			"5.5.1.1 Grandchild.",
			"Deep body.",
			"5.6 NEXT TOP",
			"Body.",
			"5.6.1 Other Child.",
			"Body.",
		),
	}}
}

func TestParse_HierarchyConsistency(t *testing.T) {
	sections := mustParse(t, hierarchyFixture(), "")

	// Every section whose parent is present must appear in that
	// parent's children.
	for id, s := range sections {
		parent, ok := sections[s.Parent]
		if !ok {
			continue
		}
		found := false
		for _, c := range parent.Children {
			if c == id {
				found = true
			}
		}
		if !found {
			t.Errorf("section %s missing from parent %s children %v", id, s.Parent, parent.Children)
		}
	}

	// Children are exactly one level deeper and prefixed by the id.
	for id, s := range sections {
		for _, c := range s.Children {
			if strings.Count(c, ".") != strings.Count(id, ".")+1 {
				t.Errorf("child %s of %s is not one level deeper", c, id)
			}
			if !strings.HasPrefix(c, id+".") {
				t.Errorf("child %s of %s lacks the id prefix", c, id)
			}
		}
	}
}

func TestParse_SyntheticRootStubParent(t *testing.T) {
	sections := mustParse(t, hierarchyFixture(), "")

	if got := sections["5.5"].Parent; got != "5" {
		t.Errorf("5.5 parent = %q, want synthetic stub \"5\"", got)
	}
	if _, exists := sections["5"]; exists {
		t.Error("stub parent \"5\" must not be materialized as a section")
	}
	if got := sections["5.5.1.1"].Parent; got != "5.5.1" {
		t.Errorf("5.5.1.1 parent = %q", got)
	}
}

func TestParse_ChildrenSortedAscending(t *testing.T) {
	sections := mustParse(t, hierarchyFixture(), "")
	want := []string{"5.5.1", "5.5.2"}
	if !reflect.DeepEqual(sections["5.5"].Children, want) {
		t.Errorf("5.5 children = %v, want %v", sections["5.5"].Children, want)
	}
}

func TestParse_PrefixFilter(t *testing.T) {
	sections := mustParse(t, hierarchyFixture(), "5.5")

	for _, id := range []string{"5.5", "5.5.1", "5.5.2", "5.5.1.1"} {
		if _, ok := sections[id]; !ok {
			t.Errorf("expected %s in filtered map", id)
		}
	}
	for _, id := range []string{"5.6", "5.6.1"} {
		if _, ok := sections[id]; ok {
			t.Errorf("did not expect %s in filtered map", id)
		}
	}
}

func TestParse_PrefixFilterExcludesSiblingWithSharedDigits(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		pageOf(1, "5.5 A", "x", "5.55 B", "x", "5.5.1 C.", "x"),
	}}
	sections := mustParse(t, src, "5.5")
	if _, ok := sections["5.55"]; ok {
		t.Error("5.55 must not match prefix 5.5")
	}
	if len(sections) != 2 {
		t.Errorf("expected 2 sections, got %v", sections.SortedIDs())
	}
}

func TestParse_Idempotence(t *testing.T) {
	first := mustParse(t, hierarchyFixture(), "")
	second := mustParse(t, hierarchyFixture(), "")

	if !reflect.DeepEqual(first, second) {
		t.Error("re-running the parser on the same document produced different output")
	}
}

func TestParse_ClosesSource(t *testing.T) {
	src := hierarchyFixture()
	mustParse(t, src, "")
	if !src.closed {
		t.Error("source not closed after parse")
	}
}

func TestParse_ClosesSourceOnError(t *testing.T) {
	src := &fakeSource{pages: []*fakePage{
		{num: 1, err: errors.New("boom")},
	}}
	if _, err := newTestParser().Parse(src, ""); err == nil {
		t.Fatal("expected error")
	}
	if !src.closed {
		t.Error("source not closed on error path")
	}
}
