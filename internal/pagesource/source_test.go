package pagesource

import (
	"strings"
	"testing"
)

func TestFromText_SinglePageWithAllLines(t *testing.T) {
	input := "5.5 DISCRIMINATION\nBody line one.\n\nBody line two."
	src, err := FromText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	if src.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", src.NumPages())
	}
	page, err := src.Page(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Number() != 1 {
		t.Errorf("expected page number 1, got %d", page.Number())
	}
	if len(page.Rects()) != 0 {
		t.Errorf("expected no rects on a text page, got %d", len(page.Rects()))
	}

	text, err := page.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != input {
		t.Errorf("expected %q, got %q", input, text)
	}
}

func TestTextPage_TextAboveIgnoresOffset(t *testing.T) {
	src, err := FromText(strings.NewReader("line one\nline two"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	page, _ := src.Page(1)
	whole, _ := page.Text()
	cropped, err := page.TextAbove(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cropped != whole {
		t.Errorf("synthetic pages have no geometry: expected full text, got %q", cropped)
	}
}

func TestFromMarkdown_FlattensHeadingsAndBlocks(t *testing.T) {
	input := "## 5.5 DISCRIMINATION IN CONDUCTING ATTACKS\n\nCombatants must discriminate.\n\n### 5.5.1 Persons Not Protected.\n\nSome body text.\n"
	src, err := FromMarkdown(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	page, _ := src.Page(1)
	text, _ := page.Text()
	lines := strings.Split(text, "\n")

	want := []string{
		"5.5 DISCRIMINATION IN CONDUCTING ATTACKS",
		"Combatants must discriminate.",
		"5.5.1 Persons Not Protected.",
		"Some body text.",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestFromMarkdown_MultiLineBlock(t *testing.T) {
	// A soft-wrapped paragraph spans several source segments; each one
	// must be emitted.
	input := "## 5.5 DISCRIMINATION\n\nCombatants must discriminate\nin conducting attacks\nagainst the enemy.\n"
	src, err := FromMarkdown(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	page, _ := src.Page(1)
	text, _ := page.Text()
	for _, w := range []string{"Combatants must discriminate", "in conducting attacks", "against the enemy."} {
		if !strings.Contains(text, w) {
			t.Errorf("expected %q in flattened text, got %q", w, text)
		}
	}
}

func TestFromHTML_FlattensHeadingsAndParagraphs(t *testing.T) {
	input := `<html><head><title>Manual</title></head><body>
<h2>5.5 DISCRIMINATION</h2>
<p>Combatants must discriminate.</p>
<h3>5.5.1 Persons Not Protected.</h3>
<p>Some body text.</p>
<script>ignored()</script>
</body></html>`
	src, err := FromHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	page, _ := src.Page(1)
	text, _ := page.Text()

	for _, want := range []string{"5.5 DISCRIMINATION", "Combatants must discriminate.", "5.5.1 Persons Not Protected.", "Some body text."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected flattened text to contain %q, got %q", want, text)
		}
	}
	if strings.Contains(text, "ignored") {
		t.Errorf("script content leaked into text: %q", text)
	}
}

func TestForReader_UnsupportedExtension(t *testing.T) {
	_, err := ForReader(strings.NewReader("x"), "manual.xls")
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     bool
	}{
		{"manual.pdf", true},
		{"manual.PDF", true},
		{"manual.md", true},
		{"manual.html", true},
		{"manual.docx", true},
		{"manual.txt", true},
		{"manual.png", false},
		{"manual", false},
	}
	for _, c := range cases {
		if got := IsSupportedExtension(c.filename); got != c.want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", c.filename, got, c.want)
		}
	}
}

func TestRect_Black(t *testing.T) {
	black := 0.0
	gray := 0.5

	cases := []struct {
		name string
		rect Rect
		want bool
	}{
		{"black fill", Rect{Fill: &black}, true},
		{"gray fill", Rect{Fill: &gray}, false},
		{"black stroke only", Rect{Stroke: &black}, true},
		{"gray fill hides black stroke", Rect{Fill: &gray, Stroke: &black}, false},
		{"unpainted", Rect{}, false},
	}
	for _, c := range cases {
		if got := c.rect.Black(); got != c.want {
			t.Errorf("%s: Black() = %v, want %v", c.name, got, c.want)
		}
	}
}
