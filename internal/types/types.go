package types

import (
	"errors"
	"fmt"
)

// MarkerKind identifies the markdown construct a Marker opened.
type MarkerKind uint8

const (
	Bold MarkerKind = iota
	Italic
	InlineCode
	FencedCode
	Link
	Component

	// KindCount is the number of marker kinds.
	KindCount
)

var kindNames = [KindCount]string{
	Bold:       "bold",
	Italic:     "italic",
	InlineCode: "inlineCode",
	FencedCode: "fencedCode",
	Link:       "link",
	Component:  "component",
}

func (k MarkerKind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("MarkerKind(%d)", uint8(k))
}

// Marker is an open tag on the tracker stack.
type Marker struct {
	Kind    MarkerKind
	Offset  int    // absolute byte offset of the first marker byte
	Text    string // the marker as written, e.g. "**" or "```"
	Snippet string // text leading up to the marker, for debugging
}

func (m Marker) String() string {
	return fmt.Sprintf("%s@%d", m.Kind, m.Offset)
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Invocation is a component invocation found in markdown.
type Invocation struct {
	ID         string
	Name       string
	Properties map[string]any
	Span       Span
	Partial    bool
}

// Definition describes a component known to a Registry.
type Definition struct {
	Name        string
	Description string
	Props       map[string]PropSpec
	Strict      bool
}

// PropSpec constrains a single component property.
type PropSpec struct {
	Type     string
	Required bool
	Enum     []any
}

// ValidationResult is the outcome of Registry.Validate.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Registry resolves component names. Implementations must be safe for
// concurrent readers.
type Registry interface {
	Get(name string) (Definition, bool)
	Has(name string) bool
	Validate(name string, props map[string]any) ValidationResult
}

var (
	ErrInvalidJSON      = errors.New("invalid component properties")
	ErrNotObject        = errors.New("component properties are not an object")
	ErrUnknownComponent = errors.New("unknown component")
	ErrValidation       = errors.New("component validation failed")
)

// ComponentError reports a single invocation that was dropped.
type ComponentError struct {
	Name  string
	Err   error
	Props map[string]any
}

func (e ComponentError) Error() string {
	return fmt.Sprintf("component %q: %v", e.Name, e.Err)
}

func (e ComponentError) Unwrap() error { return e.Err }

// ErrorHandler observes per-invocation failures. It never alters extraction.
type ErrorHandler func(ComponentError)

// Config holds engine-wide settings.
type Config struct {
	// HideIncompleteComponents replaces an unterminated invocation with
	// PendingPlaceholder in Fix output.
	HideIncompleteComponents bool
	// EmptyFiller is written between an opener and its synthesized closer
	// when no content has arrived yet.
	EmptyFiller string
	// RenderHTML and BuildDocument make a Session run the goldmark stage.
	RenderHTML    bool
	BuildDocument bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		HideIncompleteComponents: true,
		EmptyFiller:              "\u200b",
	}
}
