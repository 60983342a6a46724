package loader

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// markdownToText strips Markdown formatting by walking the parsed AST
// and keeping only the text content, with block boundaries preserved as
// blank lines. Formatting noise would otherwise pollute embeddings.
func markdownToText(src []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var buf strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
		case *ast.FencedCodeBlock:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			for i := 0; i < node.Lines().Len(); i++ {
				line := node.Lines().At(i)
				buf.Write(line.Value(src))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
