// Package completer turns a partially received markdown document into one a
// standard markdown parser renders without stray syntax.
//
// Fix closes every construct the tracker reports open and hides fragments
// that cannot be displayed yet. Hidden fragments are overwritten rather than
// removed, so the output is never shorter than the input, and Fix applied to
// its own output is a no-op.
package completer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pion/logging"

	"github.com/riverfjs/mdstream/internal/tracker"
	"github.com/riverfjs/mdstream/internal/types"
)

const (
	pendingOpen  = "<!--pending-component"
	pendingClose = "-->"
)

var (
	bareBlockRe = regexp.MustCompile(`^(?:-{1,2}|\+|#{1,6}|=+|\d{1,9}[.)])$`)
	pendingRe   = regexp.MustCompile(`<!--pending-component *-->`)
)

// Completer fixes documents according to a Config.
type Completer struct {
	cfg     *types.Config
	log     logging.LeveledLogger
	tracker *tracker.Tracker
}

// New returns a Completer. A nil cfg selects types.DefaultConfig; a nil log
// is silent.
func New(cfg *types.Config, log logging.LeveledLogger) *Completer {
	if cfg == nil {
		cfg = types.DefaultConfig()
	}
	return &Completer{cfg: cfg, log: log, tracker: tracker.New(log)}
}

var std = New(nil, nil)

// Fix is shorthand for a Completer with the default configuration.
func Fix(text string, state *tracker.State) string {
	return std.Fix(text, state)
}

// Fix returns text with open constructs closed and undisplayable fragments
// hidden. state, when non-nil, must be the tracker state for exactly text;
// it lets Fix skip the scan and bound its work to the unclosed suffix. A
// state built for another text is ignored.
func (c *Completer) Fix(text string, state *tracker.State) string {
	if state != nil && state.PreviousLength != len(text) {
		c.debugf("state covers %d bytes but text has %d, rescanning", state.PreviousLength, len(text))
		state = nil
	}
	var st tracker.State
	if state != nil {
		st = *state
	} else {
		st = c.tracker.Update(tracker.State{}, text)
	}

	out := hideDanglingFence(text)
	if c.cfg.HideIncompleteComponents {
		out = c.hideIncompleteComponent(out, st)
	}

	if st.Empty() {
		return out
	}
	if out != text {
		st = c.tracker.Update(tracker.State{}, out)
		if st.Empty() {
			return out
		}
	}

	if st.InFencedCode {
		return c.settle(closeFence(out))
	}
	if st.Count(types.Component) > 0 {
		// closers would land inside the unfinished invocation
		return out
	}
	return c.settle(normalizeTrailingBlock(c.closeMarkers(out, st)))
}

const maxSettleRounds = 8

// settle makes sure fixing out again changes nothing. A closer that does not
// close what it was written for, because of the bytes around it, leaves its
// opener open; such openers are escaped and display literally.
func (c *Completer) settle(out string) string {
	for round := 0; round < maxSettleRounds; round++ {
		st := c.tracker.Update(tracker.State{}, out)
		open := unclosed(out, st)
		if len(open) == 0 {
			return hideDanglingFence(out)
		}
		c.debugf("closers left %s open, escaping", st.String())
		out = escapeOpen(out, open)
	}
	return out
}

// unclosed returns the open markers Fix would write a closer for. A link
// whose destination has not started gets none.
func unclosed(text string, st tracker.State) []types.Marker {
	var open []types.Marker
	for _, m := range st.Stack {
		if m.Kind == types.Link && !strings.Contains(text[m.Offset:], "](") {
			continue
		}
		open = append(open, m)
	}
	return open
}

// escapeOpen puts a backslash before the delimiter bytes of each marker.
func escapeOpen(text string, open []types.Marker) string {
	var at []int
	for _, m := range open {
		switch m.Kind {
		case types.Component:
			// "{{" only opens when the second brace is unescaped
			at = append(at, m.Offset+1)
		default:
			for j := 0; j < len(m.Text); j++ {
				at = append(at, m.Offset+j)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(at)))
	parts := make([]string, 0, 2*len(at)+1)
	end := len(text)
	for _, i := range at {
		if i < 0 || i >= end {
			continue
		}
		parts = append(parts, text[i:end], `\`)
		end = i
	}
	parts = append(parts, text[:end])

	var b strings.Builder
	b.Grow(len(text) + len(at))
	for k := len(parts) - 1; k >= 0; k-- {
		b.WriteString(parts[k])
	}
	return b.String()
}

// Incomplete returns the offset of the unterminated component invocation
// at the end of text, if any. state may be nil.
func Incomplete(text string, state *tracker.State) (int, bool) {
	var st tracker.State
	if state != nil && state.PreviousLength == len(text) {
		st = *state
	} else {
		st = tracker.Update(tracker.State{}, text)
	}
	m, ok := st.Last(types.Component)
	if !ok {
		return 0, false
	}
	return m.Offset, true
}

// PendingPlaceholder returns the inert stand-in for a hidden invocation
// fragment of n bytes. It is never shorter than n.
func PendingPlaceholder(n int) string {
	pad := n - len(pendingOpen) - len(pendingClose)
	if pad < 0 {
		pad = 0
	}
	return pendingOpen + strings.Repeat(" ", pad) + pendingClose
}

// FindPending locates the last pending placeholder in markdown.
func FindPending(markdown string) (types.Span, bool) {
	locs := pendingRe.FindAllStringIndex(markdown, -1)
	if len(locs) == 0 {
		return types.Span{}, false
	}
	loc := locs[len(locs)-1]
	return types.Span{Start: loc[0], End: loc[1]}, true
}

func (c *Completer) hideIncompleteComponent(text string, st tracker.State) string {
	m, ok := st.Last(types.Component)
	if !ok || m.Offset >= len(text) {
		return text
	}
	c.debugf("hiding incomplete component at %d (%d bytes)", m.Offset, len(text)-m.Offset)
	return text[:m.Offset] + PendingPlaceholder(len(text)-m.Offset)
}

// closeMarkers appends a closer for every open marker, innermost first,
// ahead of any trailing whitespace.
func (c *Completer) closeMarkers(text string, st tracker.State) string {
	cut := len(strings.TrimRight(text, " \t\r\n"))
	var b strings.Builder
	for i := len(st.Stack) - 1; i >= 0; i-- {
		m := st.Stack[i]
		body := ""
		if end := m.Offset + len(m.Text); end <= cut {
			body = text[end:cut]
		}
		switch m.Kind {
		case types.Bold:
			if b.Len() == 0 && cut > 0 && st.HalfClose() == cut-1 {
				b.WriteString("*")
				continue
			}
			c.writeClose(&b, body, "**", true)
		case types.Italic:
			c.writeClose(&b, body, "*", true)
		case types.InlineCode:
			c.writeClose(&b, body, "`", false)
		case types.Link:
			if m.Offset < cut && strings.Contains(text[m.Offset:cut], "](") {
				b.WriteString(")")
			}
		}
	}
	if b.Len() == 0 {
		return text
	}
	return text[:cut] + b.String() + text[cut:]
}

// writeClose writes closer. The filler goes first when the construct has
// no content yet, or when the content ends in a backslash that would
// escape the closer.
func (c *Completer) writeClose(b *strings.Builder, body, closer string, escapable bool) {
	if b.Len() == 0 && (body == "" || escapable && trailingBackslashes(body)%2 == 1) {
		b.WriteString(c.cfg.EmptyFiller)
	}
	b.WriteString(closer)
}

func trailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

// hideDanglingFence blanks a last line holding only one or two backticks,
// which cannot be told apart from a fence in progress.
func hideDanglingFence(text string) string {
	start := strings.LastIndexByte(text, '\n') + 1
	line := text[start:]
	body := strings.TrimLeft(line, " ")
	if len(line)-len(body) > 3 || len(body) == 0 || len(body) > 2 {
		return text
	}
	if strings.Trim(body, "`") != "" {
		return text
	}
	return text[:start] + strings.Repeat(" ", len(line))
}

func closeFence(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text + "```"
	}
	return text + "\n```"
}

// normalizeTrailingBlock blanks a last line that is only a block marker.
// Left alone, a lone "-" or "=" under a paragraph turns it into a setext
// heading, and a bare "1." opens an empty list.
func normalizeTrailingBlock(text string) string {
	start := strings.LastIndexByte(text, '\n') + 1
	line := text[start:]
	body := strings.TrimLeft(line, " ")
	if len(line)-len(body) > 3 {
		return text
	}
	if !bareBlockRe.MatchString(strings.TrimRight(body, " \t")) {
		return text
	}
	return text[:start] + strings.Repeat(" ", len(line))
}

func (c *Completer) debugf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Debugf(format, args...)
	}
}
