package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/riverfjs/mdstream"
)

// painter turns a frame's Document into styled terminal text.
type painter struct {
	out   *termenv.Output
	style string // chroma style for fenced code
	width int    // wrap width, 0 disables wrapping
}

func (p *painter) paint(f mdstream.Frame) string {
	if f.Document == nil {
		return f.Markdown
	}
	comps := make(map[string]mdstream.Invocation, len(f.Components))
	for _, inv := range f.Components {
		comps[inv.ID] = inv
	}
	s := p.render(*f.Document, comps)
	if p.width > 0 {
		s = wordwrap.String(s, p.width)
	}
	return s
}

func (p *painter) render(doc mdstream.Document, comps map[string]mdstream.Invocation) string {
	var slots, spans []mdstream.DocumentSpan
	cuts := map[int]bool{0: true, len(doc.Text): true}
	for _, s := range doc.Spans {
		if s.Kind == "component" {
			slots = append(slots, s)
			continue
		}
		spans = append(spans, s)
		cuts[s.Start] = true
		cuts[s.End] = true
	}
	for _, s := range slots {
		cuts[s.Start] = true
	}
	points := make([]int, 0, len(cuts))
	for c := range cuts {
		points = append(points, c)
	}
	sort.Ints(points)

	var b strings.Builder
	next := 0 // first slot not yet written
	writeSlots := func(at int) {
		for next < len(slots) && slots[next].Start <= at {
			b.WriteString(p.slot(slots[next], comps))
			next++
		}
	}
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		writeSlots(from)
		if from < to {
			b.WriteString(p.segment(doc.Text[from:to], covering(spans, from, to)))
		}
	}
	writeSlots(len(doc.Text))
	return b.String()
}

func covering(spans []mdstream.DocumentSpan, from, to int) []mdstream.DocumentSpan {
	var out []mdstream.DocumentSpan
	for _, s := range spans {
		if s.Start <= from && to <= s.End {
			out = append(out, s)
		}
	}
	return out
}

func (p *painter) segment(text string, active []mdstream.DocumentSpan) string {
	if len(active) == 0 {
		return text
	}
	for _, s := range active {
		if s.Kind == "pre" && s.Language != "" {
			if hl, ok := p.highlight(text, s.Language); ok {
				return hl
			}
		}
	}
	st := p.out.String(text)
	for _, s := range active {
		switch s.Kind {
		case "bold":
			st = st.Bold()
		case "italic":
			st = st.Italic()
		case "strikethrough":
			st = st.CrossOut()
		case "code", "pre":
			st = st.Foreground(p.out.Color("6"))
		case "link":
			st = st.Underline().Foreground(p.out.Color("4"))
		case "heading":
			st = st.Bold()
			if s.Level <= 2 {
				st = st.Underline()
			}
		case "blockquote":
			st = st.Faint()
		}
	}
	return st.String()
}

// highlight colors code with chroma. It declines on a colorless profile.
func (p *painter) highlight(code, lang string) (string, bool) {
	var formatter string
	switch p.out.Profile {
	case termenv.TrueColor:
		formatter = "terminal16m"
	case termenv.ANSI256:
		formatter = "terminal256"
	case termenv.ANSI:
		formatter = "terminal16"
	default:
		return "", false
	}
	var b strings.Builder
	if err := quick.Highlight(&b, code, lang, formatter, p.style); err != nil {
		return "", false
	}
	return strings.TrimSuffix(b.String(), "\n"), true
}

// slot renders a component as a bracketed label, e.g. [Badge text=new].
func (p *painter) slot(s mdstream.DocumentSpan, comps map[string]mdstream.Invocation) string {
	inv, ok := comps[s.ID]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString("[" + inv.Name)
	keys := make([]string, 0, len(inv.Properties))
	for k := range inv.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, inv.Properties[k])
	}
	if inv.Partial {
		b.WriteString(" …")
	}
	b.WriteString("]")
	return p.out.String(b.String()).Reverse().String()
}
