// Package parser holds the goldmark configuration used to render fixed
// markdown.
package parser

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/riverfjs/mdstream/internal/converter"
)

// StandardOptions enables GitHub Flavored Markdown plus definition lists
// and footnotes.
var StandardOptions = []goldmark.Option{
	goldmark.WithExtensions(
		extension.GFM,
		extension.DefinitionList,
		extension.Footnote,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
}

// goldmark.Markdown is safe for concurrent use once built.
var md = goldmark.New(StandardOptions...)

// Parse renders markdown into a flat Document.
func Parse(markdown string) converter.Document {
	source := []byte(markdown)
	node := md.Parser().Parse(text.NewReader(source))

	walker := converter.NewWalker(source)
	_ = ast.Walk(node, walker.Walk)
	return walker.Result()
}

// HTML renders markdown to HTML. Raw HTML in the input, including pending
// component placeholders, is omitted.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
