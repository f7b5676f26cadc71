package pagesource

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromMarkdown builds a Source from a markdown manual rendition using
// goldmark. Heading text carries the dotted section number in this
// document family ("## 5.5.1 Persons, Objects ..."), so headings and
// block text are flattened into plain lines and classified downstream.
func FromMarkdown(r io.Reader) (Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var lines []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			lines = append(lines, string(node.Text(src)))
		default:
			if t := blockText(n, src); t != "" {
				lines = append(lines, strings.Split(t, "\n")...)
			}
		}
	}

	return singlePageSource(strings.Join(lines, "\n")), nil
}

// blockText gets the text content of a goldmark AST node. Block nodes
// with source segments yield their raw lines; container nodes (lists,
// quotes) recurse.
func blockText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
