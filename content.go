package mdstream

// ContentType represents the type of content.
type ContentType int

const (
	// ContentTypeText is a run of markdown.
	ContentTypeText ContentType = iota
	// ContentTypeComponent is a component invocation.
	ContentTypeComponent
)

// String returns the string representation of ContentType.
func (ct ContentType) String() string {
	switch ct {
	case ContentTypeText:
		return "text"
	case ContentTypeComponent:
		return "component"
	default:
		return "unknown"
	}
}

// Content is one piece of a frame, in display order.
type Content interface {
	GetContentType() ContentType
}

// Text is markdown between components.
type Text struct {
	Markdown string
}

// GetContentType returns ContentTypeText.
func (t *Text) GetContentType() ContentType {
	return ContentTypeText
}

// Component is an extracted invocation.
type Component struct {
	Invocation
}

// GetContentType returns ContentTypeComponent.
func (c *Component) GetContentType() ContentType {
	return ContentTypeComponent
}

// Split cuts markdown at its placeholders into Text and Component pieces.
// A placeholder whose id is not among components is dropped.
func Split(markdown string, components []Invocation) []Content {
	byID := make(map[string]Invocation, len(components))
	for _, inv := range components {
		byID[inv.ID] = inv
	}
	var out []Content
	last := 0
	for _, ref := range ParsePlaceholders(markdown) {
		if ref.Span.Start > last {
			out = append(out, &Text{Markdown: markdown[last:ref.Span.Start]})
		}
		last = ref.Span.End
		inv, ok := byID[ref.ID]
		if !ok {
			Logger.Debugf("split: no component for placeholder %s", ref.ID)
			continue
		}
		out = append(out, &Component{Invocation: inv})
	}
	if last < len(markdown) {
		out = append(out, &Text{Markdown: markdown[last:]})
	}
	return out
}
