// Package converter flattens a goldmark AST into a Document. Component
// placeholders in the text become empty component spans.
package converter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/riverfjs/mdstream/internal/buffer"
	"github.com/riverfjs/mdstream/internal/extractor"
)

const rule = "————————"

// Walker walks a goldmark AST and accumulates a Document.
type Walker struct {
	buf    *buffer.TextBuffer
	source []byte
	stack  []scope
	spans  []Span

	// Block-level state
	blockCount int
	listStack  []*int // nil = unordered, otherwise the next ordinal
	itemStart  int
	itemIndent string

	// Table state
	tableRows   [][]string
	currentRow  []string
	cellParts   []string
	inTableCell bool
}

// NewWalker creates a Walker over source, the bytes the AST was parsed from.
func NewWalker(source []byte) *Walker {
	return &Walker{
		buf:    buffer.New(),
		source: source,
	}
}

// Walk is an ast.Walker.
func (w *Walker) Walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	// --- Inline elements ---
	case *ast.Text:
		if entering {
			w.onText(n.Segment, n.SoftLineBreak(), n.HardLineBreak())
		}

	case *ast.String:
		if entering {
			w.write(string(n.Value))
		}

	case *ast.CodeSpan:
		if entering {
			w.onInlineCode(n)
			return ast.WalkSkipChildren, nil
		}

	case *ast.Emphasis:
		kind := StyleItalic
		if n.Level == 2 {
			kind = StyleBold
		}
		if entering {
			w.push(scope{kind: kind})
		} else {
			w.pop(kind)
		}

	case *east.Strikethrough:
		if entering {
			w.push(scope{kind: StyleStrikethrough})
		} else {
			w.pop(StyleStrikethrough)
		}

	// --- Links & Images ---
	case *ast.Link:
		if entering {
			w.push(scope{kind: StyleLink, url: string(n.Destination)})
		} else {
			w.pop(StyleLink)
		}

	case *ast.Image:
		if entering {
			w.push(scope{kind: StyleLink, url: string(n.Destination)})
		} else {
			w.pop(StyleLink)
		}

	case *ast.AutoLink:
		if entering {
			url := string(n.URL(w.source))
			w.push(scope{kind: StyleLink, url: url})
			w.write(url)
			w.pop(StyleLink)
			return ast.WalkSkipChildren, nil
		}

	// --- Block elements ---
	case *ast.Paragraph:
		if entering {
			if len(w.listStack) == 0 {
				w.ensureBlockSpacing()
			}
		} else {
			w.onEndParagraph()
		}

	case *ast.Heading:
		if entering {
			w.ensureBlockSpacing()
			w.push(scope{kind: StyleHeading, level: n.Level})
		} else {
			w.pop(StyleHeading)
			w.blockCount++
		}

	case *ast.Blockquote:
		if entering {
			w.ensureBlockSpacing()
			w.push(scope{kind: StyleBlockquote})
		} else {
			w.pop(StyleBlockquote)
			w.blockCount++
		}

	case *ast.List:
		if entering {
			w.onStartList(n)
		} else {
			w.onEndList()
		}

	case *ast.ListItem:
		if entering {
			w.onStartItem()
		} else if w.buf.TrailingNewlineCount() == 0 {
			w.buf.Write("\n")
		}

	case *east.TaskCheckBox:
		if entering {
			w.onTaskCheckBox(n.IsChecked)
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			w.onCodeBlock(n)
			return ast.WalkSkipChildren, nil
		}

	case *ast.ThematicBreak:
		if entering {
			w.ensureBlockSpacing()
			w.buf.Write(rule)
			w.blockCount++
		}

	case *ast.HTMLBlock, *ast.RawHTML:
		// pending-component comments and other raw HTML carry no text
		return ast.WalkSkipChildren, nil

	// --- Table ---
	case *east.Table:
		if entering {
			w.ensureBlockSpacing()
			w.tableRows = nil
		} else {
			w.onEndTable()
		}

	case *east.TableHeader, *east.TableRow:
		if entering {
			w.currentRow = nil
		} else {
			w.tableRows = append(w.tableRows, w.currentRow)
			w.currentRow = nil
		}

	case *east.TableCell:
		if entering {
			w.cellParts = nil
			w.inTableCell = true
		} else {
			w.currentRow = append(w.currentRow, strings.Join(w.cellParts, ""))
			w.cellParts = nil
			w.inTableCell = false
		}
	}

	return ast.WalkContinue, nil
}

// --- Text handling ---

func (w *Walker) onText(seg text.Segment, softBreak, hardBreak bool) {
	s := string(seg.Value(w.source))
	if w.inTableCell {
		if softBreak {
			s += " "
		}
		w.cellParts = append(w.cellParts, s)
		return
	}
	if softBreak || hardBreak {
		s += "\n"
	}
	w.buf.Write(s)
}

func (w *Walker) write(s string) {
	if w.inTableCell {
		w.cellParts = append(w.cellParts, s)
		return
	}
	w.buf.Write(s)
}

func (w *Walker) onInlineCode(n *ast.CodeSpan) {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(w.source))
		case *ast.String:
			b.Write(t.Value)
		}
	}
	if w.inTableCell {
		w.cellParts = append(w.cellParts, b.String())
		return
	}
	start := w.buf.Len()
	w.buf.Write(b.String())
	w.addSpan(Span{Kind: StyleCode, Start: start, End: w.buf.Len()})
}

func (w *Walker) onEndParagraph() {
	if len(w.listStack) == 0 {
		w.blockCount++
	} else if w.buf.TrailingNewlineCount() == 0 {
		// loose list items hold several paragraphs
		w.buf.Write("\n")
	}
}

// --- Code block ---

func (w *Walker) onCodeBlock(n ast.Node) {
	lang := ""
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		lang = string(fenced.Language(w.source))
	}
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(w.source))
	}
	code := strings.TrimSuffix(b.String(), "\n")

	w.ensureBlockSpacing()
	start := w.buf.Len()
	w.buf.Write(code)
	w.addSpan(Span{Kind: StylePre, Start: start, End: w.buf.Len(), Language: lang, Filename: Filename(code, lang)})
	w.blockCount++
}

// --- Lists ---

func (w *Walker) onStartList(n *ast.List) {
	if len(w.listStack) == 0 {
		w.ensureBlockSpacing()
	}
	if n.IsOrdered() {
		next := n.Start
		w.listStack = append(w.listStack, &next)
	} else {
		w.listStack = append(w.listStack, nil)
	}
}

func (w *Walker) onStartItem() {
	depth := len(w.listStack)
	if depth == 0 {
		return
	}
	indent := strings.Repeat("  ", depth-1)

	// a nested list starts on its own line
	if w.buf.Len() > 0 && w.buf.TrailingNewlineCount() == 0 {
		w.buf.Write("\n")
	}
	w.itemStart = w.buf.Len()
	w.itemIndent = indent

	if next := w.listStack[depth-1]; next != nil {
		w.buf.Write(fmt.Sprintf("%s%d. ", indent, *next))
		*next++
	} else {
		w.buf.Write(indent + "• ")
	}
}

// onTaskCheckBox replaces the bullet just written by onStartItem.
func (w *Walker) onTaskCheckBox(checked bool) {
	w.buf.Truncate(w.itemStart)
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	w.buf.Write(w.itemIndent + box + " ")
}

func (w *Walker) onEndList() {
	if len(w.listStack) > 0 {
		w.listStack = w.listStack[:len(w.listStack)-1]
	}
	if len(w.listStack) == 0 {
		w.blockCount++
	}
}

// --- Tables ---

func (w *Walker) onEndTable() {
	table := formatTable(w.tableRows)
	start := w.buf.Len()
	w.buf.Write(table)
	w.addSpan(Span{Kind: StylePre, Start: start, End: w.buf.Len()})
	w.tableRows = nil
	w.blockCount++
}

// formatTable lays rows out in display-width aligned columns with a rule
// under the header row.
func formatTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	numCols := 0
	for _, row := range rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}
	widths := make([]int, numCols)
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	for r, row := range rows {
		cells := make([]string, numCols)
		for i := range cells {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		lines = append(lines, strings.Join(cells, " | "))
		if r == 0 && len(rows) > 1 {
			sep := make([]string, numCols)
			for i := range sep {
				sep[i] = strings.Repeat("-", widths[i])
			}
			lines = append(lines, strings.Join(sep, "-+-"))
		}
	}
	return strings.Join(lines, "\n")
}

// --- Span helpers ---

func (w *Walker) push(s scope) {
	s.start = w.buf.Len()
	w.stack = append(w.stack, s)
}

// pop finalizes the innermost open scope of kind.
func (w *Walker) pop(kind string) {
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].kind != kind {
			continue
		}
		s := w.stack[i]
		w.stack = append(w.stack[:i], w.stack[i+1:]...)
		w.addSpan(Span{Kind: s.kind, Start: s.start, End: w.buf.Len(), URL: s.url, Level: s.level})
		return
	}
}

func (w *Walker) addSpan(s Span) {
	if s.End > s.Start {
		w.spans = append(w.spans, s)
	}
}

func (w *Walker) ensureBlockSpacing() {
	if w.blockCount == 0 {
		return
	}
	if needed := 2 - w.buf.TrailingNewlineCount(); needed > 0 {
		w.buf.Write(strings.Repeat("\n", needed))
	}
}

// Result returns the Document. Placeholders are cut out of the text and
// recorded as component spans; every other span is shifted to match.
func (w *Walker) Result() Document {
	text := w.buf.String()
	spans := append([]Span(nil), w.spans...)
	refs := extractor.ParsePlaceholders(text)
	if len(refs) > 0 {
		var b strings.Builder
		last := 0
		for _, ref := range refs {
			b.WriteString(text[last:ref.Span.Start])
			last = ref.Span.End
		}
		b.WriteString(text[last:])
		kept := spans[:0]
		for _, s := range spans {
			s.Start, s.End = remap(refs, s.Start), remap(refs, s.End)
			if s.End > s.Start {
				kept = append(kept, s)
			}
		}
		spans = kept
		for _, ref := range refs {
			at := remap(refs, ref.Span.Start)
			spans = append(spans, Span{Kind: StyleComponent, Start: at, End: at, ID: ref.ID, Name: ref.Name})
		}
		text = b.String()
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
	return Document{Text: text, Spans: spans}
}

// remap translates an offset in text with placeholders into one in text
// without them.
func remap(refs []extractor.Ref, p int) int {
	removed := 0
	for _, ref := range refs {
		switch {
		case ref.Span.End <= p:
			removed += ref.Span.End - ref.Span.Start
		case ref.Span.Start < p:
			removed += p - ref.Span.Start
		}
	}
	return p - removed
}
