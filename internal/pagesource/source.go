package pagesource

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Rect is a rectangle primitive on a page, in top-down page coordinates.
// Fill and Stroke are grayscale paint values where 0 means pure black;
// nil means the value is unknown or the rectangle is unpainted.
type Rect struct {
	Height float64
	Width  float64
	Top    float64
	Fill   *float64
	Stroke *float64
}

// Black reports whether the rectangle is painted pure black, preferring
// the fill color and falling back to the stroke color.
func (r Rect) Black() bool {
	if r.Fill != nil {
		return *r.Fill == 0
	}
	if r.Stroke != nil {
		return *r.Stroke == 0
	}
	return false
}

// Page exposes one page of a document: its rectangle primitives and its
// text, either whole or restricted to the region above a vertical offset.
// Extracted text is newline-delimited.
type Page interface {
	Number() int
	Rects() []Rect
	Text() (string, error)
	TextAbove(y float64) (string, error)
}

// Source is a paginated document. Page indexes are 1-based.
type Source interface {
	NumPages() int
	Page(i int) (Page, error)
	Close() error
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".docx": true,
}

// ForReader returns a Source for the given document bytes, chosen by file
// extension. Only the PDF backend carries page geometry; the others expose
// a single page with no rectangles.
func ForReader(r io.Reader, filename string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return OpenPDF(r)
	case ".txt":
		return FromText(r)
	case ".md", ".markdown":
		return FromMarkdown(r)
	case ".html", ".htm":
		return FromHTML(r)
	case ".docx":
		return FromDOCX(r)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
