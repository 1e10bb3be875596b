package mdstream

import (
	"strings"
	"testing"
)

// findSpan returns the first span of kind.
func findSpan(doc Document, kind string) *DocumentSpan {
	for i := range doc.Spans {
		if doc.Spans[i].Kind == kind {
			return &doc.Spans[i]
		}
	}
	return nil
}

func spanText(doc Document, s *DocumentSpan) string {
	return doc.Text[s.Start:s.End]
}

func TestRenderBold(t *testing.T) {
	doc := Render("foo **bar** baz")
	bold := findSpan(doc, "bold")
	if bold == nil {
		t.Fatal("Render() should have bold span")
	}
	if got := spanText(doc, bold); got != "bar" {
		t.Errorf("bold span text = %q, want 'bar'", got)
	}
}

func TestRenderNested(t *testing.T) {
	doc := Render("**bold *italic* bold**")
	bold := findSpan(doc, "bold")
	italic := findSpan(doc, "italic")
	if bold == nil || italic == nil {
		t.Fatalf("Render() spans = %+v, want bold and italic", doc.Spans)
	}
	if italic.Start < bold.Start || italic.End > bold.End {
		t.Errorf("italic %d-%d not inside bold %d-%d", italic.Start, italic.End, bold.Start, bold.End)
	}
	if got := spanText(doc, italic); got != "italic" {
		t.Errorf("italic span text = %q, want 'italic'", got)
	}
}

func TestRenderStrikethrough(t *testing.T) {
	doc := Render("~~gone~~")
	s := findSpan(doc, "strikethrough")
	if s == nil {
		t.Fatal("Render() should have strikethrough span")
	}
	if got := spanText(doc, s); got != "gone" {
		t.Errorf("strikethrough span text = %q, want 'gone'", got)
	}
}

func TestRenderInlineCode(t *testing.T) {
	doc := Render("use `print()` here")
	code := findSpan(doc, "code")
	if code == nil {
		t.Fatal("Render() should have code span")
	}
	if got := spanText(doc, code); got != "print()" {
		t.Errorf("code span text = %q, want 'print()'", got)
	}
}

func TestRenderCodeBlock(t *testing.T) {
	doc := Render("```python\nprint('hello')\n```")
	pre := findSpan(doc, "pre")
	if pre == nil {
		t.Fatal("Render() should have pre span")
	}
	if pre.Language != "python" || pre.Filename != "snippet.py" {
		t.Errorf("pre language = %q, filename %q", pre.Language, pre.Filename)
	}
	if got := spanText(doc, pre); got != "print('hello')" {
		t.Errorf("pre span text = %q", got)
	}
}

func TestRenderHeading(t *testing.T) {
	doc := Render("## Title")
	h := findSpan(doc, "heading")
	if h == nil {
		t.Fatal("Render() should have heading span")
	}
	if h.Level != 2 || spanText(doc, h) != "Title" {
		t.Errorf("heading = level %d %q, want level 2 'Title'", h.Level, spanText(doc, h))
	}
}

func TestRenderLink(t *testing.T) {
	doc := Render("see [docs](https://example.com) now")
	link := findSpan(doc, "link")
	if link == nil {
		t.Fatal("Render() should have link span")
	}
	if link.URL != "https://example.com" || spanText(doc, link) != "docs" {
		t.Errorf("link = %q -> %q", spanText(doc, link), link.URL)
	}
}

func TestRenderLists(t *testing.T) {
	doc := Render("- a\n- b\n\n1. one\n2. two\n\n- [x] done\n- [ ] todo")
	for _, want := range []string{"• a", "• b", "1. one", "2. two", "[x] done", "[ ] todo"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("Render() text = %q, missing %q", doc.Text, want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	doc := Render("| a | bb |\n|---|----|\n| ccc | d |")
	pre := findSpan(doc, "pre")
	if pre == nil {
		t.Fatal("Render() should render the table as pre")
	}
	want := "a   | bb\n----+---\nccc | d "
	if got := spanText(doc, pre); got != want {
		t.Errorf("table = %q, want %q", got, want)
	}
}

func TestRenderRule(t *testing.T) {
	doc := Render("above\n\n---\n\nbelow")
	if !strings.Contains(doc.Text, "————————") {
		t.Errorf("Render() text = %q, want a rule", doc.Text)
	}
}

func TestRenderComponentSlots(t *testing.T) {
	md := "**hi " + Placeholder("c1", "Badge") + " there**"
	doc := Render(md)
	if strings.Contains(doc.Text, "component:") {
		t.Fatalf("placeholder left in text %q", doc.Text)
	}
	if doc.Text != "hi  there" {
		t.Errorf("text = %q, want 'hi  there'", doc.Text)
	}
	comps := doc.Components()
	if len(comps) != 1 {
		t.Fatalf("Components() = %+v, want one slot", comps)
	}
	if comps[0].ID != "c1" || comps[0].Name != "Badge" || comps[0].Start != 3 || comps[0].End != 3 {
		t.Errorf("slot = %+v, want c1/Badge at 3", comps[0])
	}
	bold := findSpan(doc, "bold")
	if bold == nil || spanText(doc, bold) != "hi  there" {
		t.Errorf("bold span not shifted: %+v", bold)
	}
}

func TestRenderPendingComponentHidden(t *testing.T) {
	doc := Render("text\n\n<!--pending-component    -->")
	if strings.Contains(doc.Text, "pending") {
		t.Errorf("Render() text = %q, want pending comment hidden", doc.Text)
	}
}

func TestHTMLComponentElement(t *testing.T) {
	out, err := HTML("a " + Placeholder("c2", "Chart") + " b")
	if err != nil {
		t.Fatal(err)
	}
	want := `<p>a <span data-component="c2" data-name="Chart"></span> b</p>` + "\n"
	if out != want {
		t.Errorf("HTML() = %q, want %q", out, want)
	}
}

func TestComplexDocument(t *testing.T) {
	md := `# Hello World

This is **bold** and *italic* text.

- item 1
- item 2

> A quote

` + "```python\nprint(\"hello\")\n```"

	doc := Render(md)
	kinds := make(map[string]bool)
	for _, s := range doc.Spans {
		kinds[s.Kind] = true
	}
	for _, k := range []string{"heading", "bold", "italic", "blockquote", "pre"} {
		if !kinds[k] {
			t.Errorf("Render() should have %s span", k)
		}
	}
	for _, want := range []string{"Hello World", "item 1", "A quote", `print("hello")`} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("Render() text should contain %q", want)
		}
	}
}
