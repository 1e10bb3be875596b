package extractor

import (
	"regexp"

	"github.com/riverfjs/mdstream/internal/types"
)

// Placeholders are delimited by private-use runes, which markdown never
// produces and parsers pass through as text.
const (
	placeholderOpen  = "\uE000"
	placeholderClose = "\uE001"
)

var placeholderRe = regexp.MustCompile(`\x{E000}component:([^:\x{E001}]+):([^\x{E001}]*)\x{E001}`)

// Placeholder returns the token that stands in for invocation id of
// component name.
func Placeholder(id, name string) string {
	return placeholderOpen + "component:" + id + ":" + name + placeholderClose
}

// Ref is a placeholder found in markdown.
type Ref struct {
	ID   string
	Name string
	Span types.Span
}

// ParsePlaceholders returns the placeholders in markdown in order.
func ParsePlaceholders(markdown string) []Ref {
	var refs []Ref
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(markdown, -1) {
		refs = append(refs, Ref{
			ID:   markdown[m[2]:m[3]],
			Name: markdown[m[4]:m[5]],
			Span: types.Span{Start: m[0], End: m[1]},
		})
	}
	return refs
}
