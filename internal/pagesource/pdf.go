package pagesource

import (
	"fmt"
	"io"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// letterHeight is used when a page does not carry its own MediaBox
// (inherited boxes are not resolved by the text-layer library).
const letterHeight = 792.0

// pdfSource reads pages from a PDF via the text layer.
type pdfSource struct {
	file    *os.File
	tmpPath string
	reader  *pdflib.Reader
}

// OpenPDF builds a Source from PDF bytes. The library requires a
// ReadSeeker+size, so the bytes are spooled to a temp file that lives
// until Close.
func OpenPDF(r io.Reader) (Source, error) {
	tmp, err := os.CreateTemp("", "manualqa-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	return &pdfSource{file: f, tmpPath: tmpPath, reader: reader}, nil
}

func (s *pdfSource) NumPages() int {
	return s.reader.NumPage()
}

func (s *pdfSource) Page(i int) (Page, error) {
	if i < 1 || i > s.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", i, s.reader.NumPage())
	}
	p := s.reader.Page(i)
	if p.V.IsNull() {
		// Null page object: expose an empty page so the caller skips it.
		return &pdfPage{num: i, height: letterHeight}, nil
	}
	return &pdfPage{num: i, page: p, height: pageHeight(p), ok: true}, nil
}

func (s *pdfSource) Close() error {
	err := s.file.Close()
	os.Remove(s.tmpPath)
	return err
}

// pdfPage adapts one library page to the Page contract, converting the
// PDF's bottom-up user space into top-down offsets.
type pdfPage struct {
	num    int
	page   pdflib.Page
	height float64
	ok     bool
}

func (p *pdfPage) Number() int { return p.num }

func (p *pdfPage) Rects() []Rect {
	if !p.ok {
		return nil
	}
	content := p.page.Content()
	if len(content.Rect) == 0 {
		return nil
	}
	// The text layer does not expose paint color, so filled rectangles
	// are reported as black. Width and thinness do the discriminating.
	black := 0.0
	rects := make([]Rect, 0, len(content.Rect))
	for _, r := range content.Rect {
		rects = append(rects, Rect{
			Height: r.Max.Y - r.Min.Y,
			Width:  r.Max.X - r.Min.X,
			Top:    p.height - r.Max.Y,
			Fill:   &black,
		})
	}
	return rects
}

func (p *pdfPage) Text() (string, error) {
	return p.textAboveFloor(-1)
}

func (p *pdfPage) TextAbove(y float64) (string, error) {
	// Convert the top-down crop offset into a bottom-up Y floor.
	return p.textAboveFloor(p.height - y)
}

// textAboveFloor extracts newline-joined lines whose baseline sits strictly
// above minY in PDF user space. A negative minY means the whole page.
func (p *pdfPage) textAboveFloor(minY float64) (string, error) {
	if !p.ok {
		return "", nil
	}
	rows, err := p.page.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var sb strings.Builder
	for _, row := range rows {
		if minY >= 0 && float64(row.Position) <= minY {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(joinRow(row.Content))
	}
	return sb.String(), nil
}

// joinRow concatenates the text runs of one row, inserting a space where
// consecutive runs are horizontally separated.
func joinRow(runs pdflib.TextHorizontal) string {
	var sb strings.Builder
	prevEnd := 0.0
	for i, t := range runs {
		if i > 0 && t.X-prevEnd > 1 {
			sb.WriteString(" ")
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return sb.String()
}

// pageHeight reads the page's MediaBox height. Pages that inherit their
// MediaBox from the page tree fall back to US Letter.
func pageHeight(p pdflib.Page) float64 {
	mb := p.V.Key("MediaBox")
	if mb.IsNull() || mb.Len() < 4 {
		return letterHeight
	}
	h := mb.Index(3).Float64() - mb.Index(1).Float64()
	if h <= 0 {
		return letterHeight
	}
	return h
}
