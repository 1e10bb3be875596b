// Package tracker maintains the set of markdown constructs left open by a
// growing document.
//
// The tracker is a byte-at-a-time automaton that only ever looks backwards.
// Decisions that depend on the next byte (a '*' that may turn into "**", a
// line-start backtick run that may grow into a fence, a '[' whose ']' is not
// followed by '(') are revisited when that byte arrives. Because of this,
// folding Update over any split of a text yields the same State as a single
// call on the whole text.
package tracker

import (
	"fmt"
	"strings"

	"github.com/pion/logging"

	"github.com/riverfjs/mdstream/internal/types"
)

const snippetContext = 16

type starAction uint8

const (
	starNone starAction = iota
	starOpened
	starClosed
	starAbsorbed
	starPairOpened
	starPairClosed
)

// single reports whether the action came from a lone '*' that a following
// '*' turns into half of a "**".
func (a starAction) single() bool {
	return a == starOpened || a == starClosed || a == starAbsorbed
}

type starEvent struct {
	offset int
	action starAction
	marker types.Marker
	index  int

	// reclose is set on a pair that undid a single '*' closing marker; if
	// the pair is withdrawn, the close stands after all.
	reclose bool
}

// State is the tracker's view of a text prefix. The zero value is the state
// of the empty string.
type State struct {
	Stack              []types.Marker
	EarliestOpenOffset int
	PreviousLength     int
	Counts             [types.KindCount]int
	InFencedCode       bool
	InInlineCode       bool

	star starEvent

	// open component invocation
	depth    int
	header   bool
	inString bool
	escaped  bool
}

// At returns an empty state positioned at offset, for scanning a suffix of a
// text while keeping absolute offsets.
func At(offset int) State {
	return State{EarliestOpenOffset: offset, PreviousLength: offset}
}

// Empty reports whether no marker is open.
func (s State) Empty() bool { return len(s.Stack) == 0 }

// Count returns the number of open markers of kind k.
func (s State) Count(k types.MarkerKind) int {
	if k >= types.KindCount {
		return 0
	}
	return s.Counts[k]
}

// Last returns the most recent open marker of kind k.
func (s State) Last(k types.MarkerKind) (types.Marker, bool) {
	if i := s.lastIndex(k); i >= 0 {
		return s.Stack[i], true
	}
	return types.Marker{}, false
}

// HalfClose returns the offset of a trailing '*' that was taken as the
// first half of a closing "**", or -1.
func (s State) HalfClose() int {
	if s.star.action == starAbsorbed {
		return s.star.offset
	}
	return -1
}

func (s State) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, m := range s.Stack {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(m.String())
	}
	fmt.Fprintf(&b, "] len=%d earliest=%d", s.PreviousLength, s.EarliestOpenOffset)
	if s.InFencedCode {
		b.WriteString(" fenced")
	}
	if s.InInlineCode {
		b.WriteString(" inline")
	}
	return b.String()
}

func (s State) clone() State {
	c := s
	c.Stack = append([]types.Marker(nil), s.Stack...)
	return c
}

func (s *State) lastIndex(k types.MarkerKind) int {
	if s.Counts[k] == 0 {
		return -1
	}
	for i := len(s.Stack) - 1; i >= 0; i-- {
		if s.Stack[i].Kind == k {
			return i
		}
	}
	return -1
}

func (s *State) push(m types.Marker) {
	s.Stack = append(s.Stack, m)
	s.Counts[m.Kind]++
}

func (s *State) insert(i int, m types.Marker) {
	if i < 0 || i > len(s.Stack) {
		i = len(s.Stack)
	}
	s.Stack = append(s.Stack, types.Marker{})
	copy(s.Stack[i+1:], s.Stack[i:])
	s.Stack[i] = m
	s.Counts[m.Kind]++
}

func (s *State) remove(i int) types.Marker {
	m := s.Stack[i]
	s.Stack = append(s.Stack[:i], s.Stack[i+1:]...)
	s.Counts[m.Kind]--
	return m
}

// removeLast pops the most recent marker of kind k (LIFO by kind).
func (s *State) removeLast(k types.MarkerKind) (int, types.Marker, bool) {
	i := s.lastIndex(k)
	if i < 0 {
		return -1, types.Marker{}, false
	}
	return i, s.remove(i), true
}

func (s *State) inComponent() bool {
	return s.depth > 0 && s.Counts[types.Component] > 0
}

// Tracker updates States. A nil logger is silent.
type Tracker struct {
	log logging.LeveledLogger
}

// New returns a Tracker that reports rebuilds and fence transitions to log.
func New(log logging.LeveledLogger) *Tracker {
	return &Tracker{log: log}
}

var std = New(nil)

// Update is shorthand for a Tracker without logging.
func Update(state State, text string) State {
	return std.Update(state, text)
}

// Scan returns the state of text[from:] scanned from an empty stack, with
// offsets relative to the whole text.
func Scan(text string, from int) State {
	if from < 0 || from > len(text) {
		from = 0
	}
	return std.Update(At(from), text)
}

// Update folds the bytes of text past state.PreviousLength into state and
// returns the result. The input state is never modified. If text is shorter
// than the text state was built from, the state is rebuilt from scratch.
func (t *Tracker) Update(state State, text string) State {
	if len(text) < state.PreviousLength {
		t.debugf("text shrank from %d to %d bytes, rebuilding", state.PreviousLength, len(text))
		state = State{}
	}
	if len(text) == state.PreviousLength {
		return state
	}
	s := state.clone()
	w := walker{s: &s, text: text, t: t}
	for i := state.PreviousLength; i < len(text); i++ {
		w.step(i)
	}
	s.PreviousLength = len(text)
	if len(s.Stack) > 0 {
		s.EarliestOpenOffset = s.Stack[0].Offset
	} else {
		s.EarliestOpenOffset = s.PreviousLength
	}
	return s
}

func (t *Tracker) debugf(format string, args ...interface{}) {
	if t != nil && t.log != nil {
		t.log.Debugf(format, args...)
	}
}

type walker struct {
	s    *State
	text string
	t    *Tracker
}

func (w *walker) marker(k types.MarkerKind, offset int, mark string) types.Marker {
	from := offset - snippetContext
	if from < 0 {
		from = 0
	}
	to := offset + len(mark)
	if to > len(w.text) {
		to = len(w.text)
	}
	return types.Marker{
		Kind:    k,
		Offset:  offset,
		Text:    mark,
		Snippet: strings.Clone(w.text[from:to]),
	}
}

func (w *walker) step(i int) {
	s := w.s
	c := w.text[i]

	if s.InFencedCode {
		w.fenced(i)
		return
	}
	if s.inComponent() {
		if s.header || w.headerViable(i) {
			w.component(i)
			return
		}
		w.withdrawComponent()
	}

	if c != '`' {
		w.settleBackticks(i)
	}
	if s.InFencedCode {
		return
	}
	if c == '`' {
		w.backtick(i)
		return
	}
	if s.InInlineCode {
		return
	}

	w.settleStar(i)
	w.settleLink(i)

	if escapedAt(w.text, i) {
		return
	}
	switch c {
	case '*':
		w.star(i)
	case '[':
		s.push(w.marker(types.Link, i, "["))
	case ')':
		w.closeLink(i)
	case '{':
		if i > 0 && w.text[i-1] == '{' {
			s.push(w.marker(types.Component, i-1, "{{"))
			s.depth = 2
			s.header, s.inString, s.escaped = false, false, false
		}
	}
}

// fenced handles a byte inside a fenced code block, where only the closing
// fence is recognized.
func (w *walker) fenced(i int) {
	if w.text[i] != '`' {
		return
	}
	r := runStart(w.text, i)
	if i-r+1 != 3 || !lineStart(w.text, r) {
		return
	}
	open, ok := w.s.Last(types.FencedCode)
	if ok && r <= open.Offset {
		return
	}
	w.s.removeLast(types.FencedCode)
	w.s.InFencedCode = false
	w.s.star = starEvent{}
	w.t.debugf("fenced code closed at %d", r)
}

func (w *walker) backtick(i int) {
	r := runStart(w.text, i)
	if lineStart(w.text, r) {
		// 1-2 backticks at line start wait for the next byte; the third
		// opens a fence; longer runs are inert.
		if i-r+1 == 3 {
			w.openFence(r)
		}
		return
	}
	if !w.s.InInlineCode && escapedAt(w.text, i) {
		return
	}
	w.toggleInline(i)
}

// settleBackticks resolves a deferred line-start run of one or two
// backticks once a different byte follows it.
func (w *walker) settleBackticks(i int) {
	if i == 0 || w.text[i-1] != '`' {
		return
	}
	r := runStart(w.text, i-1)
	n := i - r
	if n > 2 || !lineStart(w.text, r) {
		return
	}
	for j := r; j < i; j++ {
		w.toggleInline(j)
	}
}

func (w *walker) toggleInline(i int) {
	s := w.s
	if s.InInlineCode {
		s.removeLast(types.InlineCode)
		s.InInlineCode = false
		return
	}
	s.push(w.marker(types.InlineCode, i, "`"))
	s.InInlineCode = true
}

func (w *walker) openFence(r int) {
	s := w.s
	if len(s.Stack) > 0 {
		w.t.debugf("fenced code at %d discards %d open markers", r, len(s.Stack))
	}
	s.Stack = s.Stack[:0]
	s.Counts = [types.KindCount]int{}
	s.InInlineCode = false
	s.star = starEvent{}
	s.depth, s.header, s.inString, s.escaped = 0, false, false, false
	s.push(w.marker(types.FencedCode, r, "```"))
	s.InFencedCode = true
}

func (w *walker) star(i int) {
	s := w.s
	if s.star.offset == i-1 && s.star.action.single() {
		prev := s.star
		w.undoStar()
		w.pair(i - 1)
		s.star.offset = i
		if prev.action == starClosed && s.star.action == starPairOpened {
			s.star.marker, s.star.index, s.star.reclose = prev.marker, prev.index, true
		}
		return
	}
	w.single(i)
}

func (w *walker) pair(start int) {
	s := w.s
	if _, _, ok := s.removeLast(types.Bold); ok {
		s.star = starEvent{action: starPairClosed}
		return
	}
	s.push(w.marker(types.Bold, start, "**"))
	s.star = starEvent{action: starPairOpened}
}

func (w *walker) single(i int) {
	s := w.s
	var prev byte
	if i > 0 {
		prev = w.text[i-1]
	}
	switch {
	case s.Counts[types.Italic] > 0:
		idx, m, _ := s.removeLast(types.Italic)
		s.star = starEvent{offset: i, action: starClosed, marker: m, index: idx}
	case s.Counts[types.Bold] > 0 && i > 0 && !isSpace(prev) && prev != '*':
		s.star = starEvent{offset: i, action: starAbsorbed}
	default:
		s.push(w.marker(types.Italic, i, "*"))
		s.star = starEvent{offset: i, action: starOpened}
	}
}

func (w *walker) undoStar() {
	s := w.s
	switch s.star.action {
	case starOpened:
		if n := len(s.Stack); n > 0 && s.Stack[n-1].Kind == types.Italic {
			s.remove(n - 1)
		}
	case starClosed:
		s.insert(s.star.index, s.star.marker)
	}
	s.star = starEvent{}
}

// settleStar withdraws an opener that turned out to be followed by
// whitespace: a list bullet or a free-standing asterisk.
func (w *walker) settleStar(i int) {
	s := w.s
	if s.star.offset != i-1 || !isSpace(w.text[i]) {
		return
	}
	n := len(s.Stack)
	switch s.star.action {
	case starOpened:
		if n > 0 && s.Stack[n-1].Kind == types.Italic {
			s.remove(n - 1)
		}
	case starPairOpened:
		if n > 0 && s.Stack[n-1].Kind == types.Bold {
			s.remove(n - 1)
		}
		if s.star.reclose {
			w.reclose(s.star.marker, s.star.index)
		}
	default:
		return
	}
	s.star = starEvent{}
}

// reclose removes the italic marker m again, preferably at index i where
// undoStar put it back.
func (w *walker) reclose(m types.Marker, i int) {
	s := w.s
	if i >= 0 && i < len(s.Stack) && s.Stack[i].Kind == types.Italic && s.Stack[i].Offset == m.Offset {
		s.remove(i)
		return
	}
	for j := len(s.Stack) - 1; j >= 0; j-- {
		if s.Stack[j].Kind == types.Italic && s.Stack[j].Offset == m.Offset {
			s.remove(j)
			return
		}
	}
}

// settleLink withdraws a link opener whose text was closed by ']' without
// a following '('.
func (w *walker) settleLink(i int) {
	s := w.s
	if i == 0 || w.text[i-1] != ']' || w.text[i] == '(' {
		return
	}
	idx := s.lastIndex(types.Link)
	if idx < 0 {
		return
	}
	if !strings.Contains(w.text[s.Stack[idx].Offset:i-1], "](") {
		s.remove(idx)
	}
}

// closeLink closes the most recent link whose destination has started.
// Markers opened after it end with it.
func (w *walker) closeLink(i int) {
	s := w.s
	if s.Counts[types.Link] == 0 {
		return
	}
	for idx := len(s.Stack) - 1; idx >= 0; idx-- {
		m := s.Stack[idx]
		if m.Kind != types.Link || !strings.Contains(w.text[m.Offset:i], "](") {
			continue
		}
		for j := len(s.Stack) - 1; j >= idx; j-- {
			s.remove(j)
		}
		return
	}
}

const maxHeader = 32

// headerViable reports whether the bytes after an open "{{" can still
// become the `c:` header of an invocation.
func (w *walker) headerViable(i int) bool {
	m, ok := w.s.Last(types.Component)
	if !ok {
		return false
	}
	rest := w.text[m.Offset+2 : i+1]
	if len(rest) > maxHeader {
		return false
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	if rest == "" {
		return true
	}
	if rest[0] != 'c' {
		return false
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	return rest == "" || rest[0] == ':'
}

func (w *walker) withdrawComponent() {
	s := w.s
	s.removeLast(types.Component)
	s.depth, s.header, s.inString, s.escaped = 0, false, false, false
}

// component tracks JSON nesting inside an open invocation. Markdown is not
// recognized until the braces balance.
func (w *walker) component(i int) {
	s := w.s
	c := w.text[i]
	if !s.header && c == ':' {
		s.header = true
	}
	switch {
	case s.inString:
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == '"':
			s.inString = false
		}
	case c == '"':
		s.inString = true
	case c == '{':
		s.depth++
	case c == '}':
		s.depth--
		if s.depth == 0 {
			s.removeLast(types.Component)
			s.header = false
		}
	}
}

func runStart(text string, i int) int {
	for i > 0 && text[i-1] == '`' {
		i--
	}
	return i
}

// lineStart reports whether offset r is preceded on its line by at most
// three spaces.
func lineStart(text string, r int) bool {
	for spaces := 0; ; spaces++ {
		if r == 0 || text[r-1] == '\n' {
			return true
		}
		if text[r-1] != ' ' || spaces == 3 {
			return false
		}
		r--
	}
}

// escapedAt reports whether text[i] follows an odd run of backslashes.
func escapedAt(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
