// Package mdstream renders markdown while it is still being streamed.
//
// An LLM emits markdown a few bytes at a time. Handing every prefix to a
// markdown renderer shows stray "**", half-drawn links and raw code fences.
// mdstream keeps an incremental record of the constructs left open by the
// text so far, closes them synthetically for display, and pulls inline
// component invocations of the form
//
//	{{c:"Badge",p:{"text":"new"}}}
//
// out of the text so a UI can render them as widgets, including while the
// invocation's JSON is still arriving.
//
// Main API:
//   - Update(): fold new text into the tracker State
//   - Fix(): close what State reports open and hide undisplayable fragments
//   - Extract() / ExtractPartial(): replace invocations with placeholders
//   - Session: the three stages wired together over a growing buffer
//
// Example:
//
//	s := mdstream.NewSession(mdstream.WithRegistry(reg))
//	for delta := range tokens {
//	    frame := s.Write(delta)
//	    for _, c := range mdstream.Split(frame.Markdown, frame.Components) {
//	        switch c := c.(type) {
//	        case *mdstream.Text:
//	            // render c.Markdown
//	        case *mdstream.Component:
//	            // render c.Invocation
//	        }
//	    }
//	}
package mdstream

import (
	"html"
	"strings"

	"github.com/riverfjs/mdstream/internal/completer"
	"github.com/riverfjs/mdstream/internal/converter"
	"github.com/riverfjs/mdstream/internal/extractor"
	"github.com/riverfjs/mdstream/internal/parser"
	"github.com/riverfjs/mdstream/internal/tracker"
	"github.com/riverfjs/mdstream/internal/types"
)

// Exported type aliases
type (
	State            = tracker.State
	Marker           = types.Marker
	MarkerKind       = types.MarkerKind
	Span             = types.Span
	Invocation       = types.Invocation
	Definition       = types.Definition
	PropSpec         = types.PropSpec
	ValidationResult = types.ValidationResult
	Registry         = types.Registry
	ComponentError   = types.ComponentError
	ErrorHandler     = types.ErrorHandler
	Result           = extractor.Result
	PlaceholderRef   = extractor.Ref
	Document         = converter.Document
	DocumentSpan     = converter.Span
)

// Marker kinds
const (
	MarkerBold       = types.Bold
	MarkerItalic     = types.Italic
	MarkerInlineCode = types.InlineCode
	MarkerFencedCode = types.FencedCode
	MarkerLink       = types.Link
	MarkerComponent  = types.Component
)

var (
	ErrInvalidJSON      = types.ErrInvalidJSON
	ErrNotObject        = types.ErrNotObject
	ErrUnknownComponent = types.ErrUnknownComponent
	ErrValidation       = types.ErrValidation
)

// Update folds text[state.PreviousLength:] into state. text must extend the
// text state was built from; if it is shorter, the state is rebuilt.
func Update(state State, text string) State {
	return tracker.New(Logger).Update(state, text)
}

// Fix returns text completed for display under the default Config. state
// may be nil; one that does not describe text is ignored.
func Fix(text string, state *State) string {
	return completer.New(DefaultConfig(), Logger).Fix(text, state)
}

// Extract replaces every valid component invocation in text with a
// placeholder. Invalid ones stay in the text and are reported to onError.
func Extract(text string, reg Registry, onError ErrorHandler) Result {
	return extractor.New(reg, onError, Logger).Extract(text)
}

// ExtractPartial replaces a trailing unterminated invocation whose JSON can
// be repaired with a placeholder.
func ExtractPartial(text string, reg Registry) Result {
	return extractor.New(reg, nil, Logger).ExtractPartial(text)
}

// Placeholder returns the token Extract substitutes for an invocation.
func Placeholder(id, name string) string {
	return extractor.Placeholder(id, name)
}

// ParsePlaceholders lists the placeholders in markdown in order.
func ParsePlaceholders(markdown string) []PlaceholderRef {
	return extractor.ParsePlaceholders(markdown)
}

// Render flattens markdown into a Document. Placeholders become component
// spans.
func Render(markdown string) Document {
	return parser.Parse(markdown)
}

// HTML renders markdown with goldmark. Each placeholder becomes an empty
// element for the UI to mount the component on:
//
//	<span data-component="c1" data-name="Badge"></span>
func HTML(markdown string) (string, error) {
	out, err := parser.HTML(markdown)
	if err != nil {
		return "", err
	}
	refs := extractor.ParsePlaceholders(out)
	if len(refs) == 0 {
		return out, nil
	}
	var b strings.Builder
	last := 0
	for _, ref := range refs {
		b.WriteString(out[last:ref.Span.Start])
		b.WriteString(`<span data-component="` + html.EscapeString(ref.ID) +
			`" data-name="` + html.EscapeString(ref.Name) + `"></span>`)
		last = ref.Span.End
	}
	b.WriteString(out[last:])
	return b.String(), nil
}
