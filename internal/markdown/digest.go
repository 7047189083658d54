// Package markdown reduces README markdown to compact plain text for
// summarization.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Digester turns markdown into an outline followed by plain text.
type Digester struct {
	parser goldmark.Markdown
}

// NewDigester creates a new digester configured with goldmark parser.
func NewDigester() *Digester {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Digester{
		parser: md,
	}
}

// Digest returns the heading outline (H1-H3) followed by the document's
// text blocks, truncated to maxChars bytes on a rune boundary. maxChars <= 0
// disables truncation. HTML blocks and images are dropped.
func (d *Digester) Digest(source []byte, maxChars int) (string, error) {
	doc := d.parser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(3),
		toc.Compact(true),
	)
	if err != nil {
		return "", fmt.Errorf("inspect TOC: %w", err)
	}

	var b strings.Builder
	if len(tree.Items) > 0 {
		b.WriteString("Outline:\n")
		writeOutline(&b, tree.Items, 0)
		b.WriteString("\n")
	}

	body := plainText(doc, source)
	if body == "" {
		body = strings.TrimSpace(string(source))
	}
	b.WriteString(body)

	return truncate(strings.TrimSpace(b.String()), maxChars), nil
}

func writeOutline(b *strings.Builder, items toc.Items, depth int) {
	for _, item := range items {
		if len(item.Title) > 0 {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("- ")
			b.Write(item.Title)
			b.WriteString("\n")
		}
		writeOutline(b, item.Items, depth+1)
	}
}

// plainText collects one string per text block, separated by blank lines.
func plainText(doc ast.Node, source []byte) string {
	var blocks []string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			if t := strings.TrimSpace(inlineText(n, source)); t != "" {
				blocks = append(blocks, t)
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			var code strings.Builder
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				code.Write(seg.Value(source))
			}
			if t := strings.TrimRight(code.String(), "\n"); strings.TrimSpace(t) != "" {
				blocks = append(blocks, t)
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	return strings.Join(blocks, "\n\n")
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.URL(source))
		case *ast.Image, *ast.RawHTML:
			// badges and inline markup carry no prose
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return b.String()
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return strings.ToValidUTF8(s[:maxChars], "")
}
