package mdstream

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/riverfjs/mdstream/internal/buffer"
	"github.com/riverfjs/mdstream/internal/completer"
	"github.com/riverfjs/mdstream/internal/extractor"
	"github.com/riverfjs/mdstream/internal/parser"
	"github.com/riverfjs/mdstream/internal/tracker"
)

// Frame is what a Session produces for one version of the text.
type Frame struct {
	// Text is the raw text received so far.
	Text string
	// State is the tracker state for Text.
	State State
	// Display is Text completed for rendering.
	Display string
	// Markdown is Display with component invocations replaced by
	// placeholders.
	Markdown string
	// Components are the invocations behind the placeholders, complete ones
	// first. A trailing invocation still streaming has Partial set.
	Components []Invocation
	// Document is Markdown flattened, when Config.BuildDocument is set.
	Document *Document
	// HTML is Markdown rendered, when Config.RenderHTML is set.
	HTML string
}

// Session threads tracker state through a growing text and runs the
// update, fix, extract stages on every change. A Session is not safe for
// concurrent use.
type Session struct {
	opts      *Options
	buf       *buffer.TextBuffer
	state     State
	tracker   *tracker.Tracker
	completer *completer.Completer
}

// NewSession creates a Session.
func NewSession(opts ...Option) *Session {
	o := applyOptions(opts...)
	return &Session{
		opts:      o,
		buf:       buffer.New(),
		tracker:   tracker.New(o.Logger),
		completer: completer.New(o.Config, o.Logger),
	}
}

// Write appends delta and returns the new frame.
func (s *Session) Write(delta string) Frame {
	s.buf.Write(delta)
	return s.frame()
}

// Set replaces the whole text. Text that does not extend the previous one
// makes the tracker rebuild its state.
func (s *Session) Set(full string) Frame {
	if !strings.HasPrefix(full, s.buf.String()) {
		s.state = State{}
	}
	s.buf.Set(full)
	return s.frame()
}

// Reset discards the text and state.
func (s *Session) Reset() {
	s.buf.Reset()
	s.state = State{}
}

// State returns the tracker state for Text.
func (s *Session) State() State {
	return s.state
}

// Text returns the text received so far.
func (s *Session) Text() string {
	return s.buf.String()
}

func (s *Session) frame() Frame {
	text := s.buf.String()
	s.state = s.tracker.Update(s.state, text)
	st := s.state

	display := s.completer.Fix(text, &st)
	ex := extractor.New(s.opts.Registry, s.opts.OnError, s.opts.Logger)
	res := ex.Extract(display)
	res = s.spliceIncomplete(ex, res, text, display, &st)

	f := Frame{
		Text:       text,
		State:      st,
		Display:    display,
		Markdown:   res.Markdown,
		Components: res.Components,
	}
	if s.opts.Config.BuildDocument {
		doc := parser.Parse(res.Markdown)
		f.Document = &doc
	}
	if s.opts.Config.RenderHTML {
		out, err := HTML(res.Markdown)
		if err != nil {
			s.warnf("render html: %v", err)
		}
		f.HTML = out
	}
	return f
}

// spliceIncomplete runs partial extraction on a trailing unterminated
// invocation and puts its placeholder where the invocation, or its pending
// stand-in, sits in res.Markdown. The partial's span is an offset into
// Text.
func (s *Session) spliceIncomplete(ex *extractor.Extractor, res Result, text, display string, st *State) Result {
	off, ok := completer.Incomplete(text, st)
	if !ok {
		return res
	}
	var at Span
	if s.opts.Config.HideIncompleteComponents {
		if at, ok = completer.FindPending(res.Markdown); !ok {
			return res
		}
	} else {
		frag := display[min(off, len(display)):]
		if frag == "" || !strings.HasSuffix(res.Markdown, frag) {
			return res
		}
		at = Span{Start: len(res.Markdown) - len(frag), End: len(res.Markdown)}
	}

	p := ex.ExtractPartial(text[off:])
	if len(p.Components) == 0 {
		return res
	}
	inv := p.Components[0]
	inv.Span.Start += off
	inv.Span.End += off
	return Result{
		Markdown:   res.Markdown[:at.Start] + p.Markdown + res.Markdown[at.End:],
		Components: append(res.Components, inv),
	}
}

func (s *Session) warnf(format string, args ...interface{}) {
	if s.opts.Logger != nil {
		s.opts.Logger.Warnf(format, args...)
	}
}

// Replay feeds text to the Session in chunks of about chunkSize bytes,
// never splitting a UTF-8 sequence, and calls fn with every frame. It
// stops at the first error from fn or when ctx is done.
func (s *Session) Replay(ctx context.Context, text string, chunkSize int, fn func(Frame) error) error {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	for len(text) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := chunkEnd(text, chunkSize)
		if err := fn(s.Write(text[:n])); err != nil {
			return err
		}
		text = text[n:]
	}
	return nil
}

// chunkEnd returns a cut point near size that falls on a rune boundary.
func chunkEnd(text string, size int) int {
	if size >= len(text) {
		return len(text)
	}
	n := size
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	if n == 0 {
		_, w := utf8.DecodeRuneInString(text)
		return w
	}
	return n
}
