package pagesource

import (
	"bufio"
	"io"
	"strings"
)

// FromText builds a Source from a plain-text manual rendition. The whole
// document is exposed as a single page with no geometry, so footnote
// separation is unavailable and the full text is used.
func FromText(r io.Reader) (Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return singlePageSource(strings.Join(lines, "\n")), nil
}

// singlePageSource exposes pre-extracted text as a one-page Source with
// no rectangle geometry. Shared by the non-PDF backends.
type singlePageSource string

func (s singlePageSource) NumPages() int { return 1 }

func (s singlePageSource) Page(i int) (Page, error) {
	return textPage{text: string(s)}, nil
}

func (s singlePageSource) Close() error { return nil }

type textPage struct {
	text string
}

func (p textPage) Number() int   { return 1 }
func (p textPage) Rects() []Rect { return nil }

func (p textPage) Text() (string, error) { return p.text, nil }

func (p textPage) TextAbove(y float64) (string, error) {
	// No geometry on synthetic pages; vertical cropping is meaningless.
	return p.text, nil
}
