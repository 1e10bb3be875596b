package converter

// Style kinds recorded on a Document span.
const (
	StyleBold          = "bold"
	StyleItalic        = "italic"
	StyleStrikethrough = "strikethrough"
	StyleCode          = "code"
	StylePre           = "pre"
	StyleLink          = "link"
	StyleHeading       = "heading"
	StyleBlockquote    = "blockquote"
	StyleComponent     = "component"
)

// Document is rendered markdown flattened to plain text plus styled byte
// ranges, for renderers that do not consume HTML.
type Document struct {
	Text  string
	Spans []Span
}

// Span styles Text[Start:End]. Component spans are empty and mark where the
// component with ID is rendered.
type Span struct {
	Kind     string
	Start    int
	End      int
	URL      string // link target
	Language string // code block info string
	Filename string // suggested download name for a code block
	Level    int    // heading level
	ID       string // component id
	Name     string // component name
}

// Components returns the component slots in text order.
func (d Document) Components() []Span {
	var out []Span
	for _, s := range d.Spans {
		if s.Kind == StyleComponent {
			out = append(out, s)
		}
	}
	return out
}

// scope is a span that has been opened but not finalized.
type scope struct {
	kind  string
	start int
	url   string
	level int
}
