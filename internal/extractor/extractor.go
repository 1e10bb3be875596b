// Package extractor finds component invocations of the form
//
//	{{c:"Name",p:{...json...}}}
//
// in markdown, replaces each with an opaque placeholder and returns the
// parsed invocations. Extract handles complete invocations; ExtractPartial
// repairs the JSON of a trailing, still-streaming invocation so it can be
// shown field by field.
package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pion/logging"

	"github.com/riverfjs/mdstream/internal/types"
)

const closeToken = "}}"

var headerRe = regexp.MustCompile(`\{\{\s*c\s*:\s*"((?:[^"\\]|\\.)*)"\s*,\s*p\s*:\s*`)

// Result is the outcome of one extraction pass.
type Result struct {
	Markdown   string
	Components []types.Invocation
}

// Extractor extracts invocations known to a registry. Ids are allocated
// from a per-Extractor sequence.
type Extractor struct {
	reg     types.Registry
	onError types.ErrorHandler
	log     logging.LeveledLogger
	seq     uint64
}

// New returns an Extractor. onError and log may be nil.
func New(reg types.Registry, onError types.ErrorHandler, log logging.LeveledLogger) *Extractor {
	return &Extractor{reg: reg, onError: onError, log: log}
}

// Extract runs a complete extraction with a fresh id sequence.
func Extract(text string, reg types.Registry, onError types.ErrorHandler) Result {
	return New(reg, onError, nil).Extract(text)
}

// ExtractPartial runs a partial extraction with a fresh id sequence.
func ExtractPartial(text string, reg types.Registry) Result {
	return New(reg, nil, nil).ExtractPartial(text)
}

type header struct {
	start int // the first '{' of "{{"
	props int // the '{' of the property object
	name  string
}

// nextHeader finds the next invocation header at or after pos whose
// property object has started.
func nextHeader(text string, pos int) (header, bool) {
	for pos < len(text) {
		loc := headerRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return header{}, false
		}
		h := header{
			start: pos + loc[0],
			props: pos + loc[1],
			name:  unquote(text[pos+loc[2] : pos+loc[3]]),
		}
		if h.props < len(text) && text[h.props] == '{' {
			return h, true
		}
		pos = h.start + 2
	}
	return header{}, false
}

// Extract replaces every well-formed invocation of a known component with
// a placeholder. Malformed syntax is left in place silently; bad JSON,
// unknown names and failed validation are reported and left in place. An
// invocation whose property object never closes swallows the rest of text.
func (e *Extractor) Extract(text string) Result {
	var (
		b     strings.Builder
		comps []types.Invocation
		last  int
	)
	for pos := 0; pos < len(text); {
		h, ok := nextHeader(text, pos)
		if !ok {
			break
		}
		span, end, ok := Scan(text, h.props)
		if !ok {
			// the property object runs to the end of text
			break
		}
		if !strings.HasPrefix(text[end:], closeToken) {
			pos = end
			continue
		}
		stop := end + len(closeToken)
		pos = stop
		inv, ok := e.complete(h.name, span, types.Span{Start: h.start, End: stop})
		if !ok {
			continue
		}
		b.WriteString(text[last:h.start])
		b.WriteString(Placeholder(inv.ID, inv.Name))
		last = stop
		comps = append(comps, inv)
	}
	if last == 0 {
		return Result{Markdown: text, Components: comps}
	}
	b.WriteString(text[last:])
	return Result{Markdown: b.String(), Components: comps}
}

func (e *Extractor) complete(name, span string, at types.Span) (types.Invocation, bool) {
	var raw any
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		e.report(name, fmt.Errorf("%w: %v", types.ErrInvalidJSON, err), nil)
		return types.Invocation{}, false
	}
	props, ok := raw.(map[string]any)
	if !ok {
		e.report(name, types.ErrNotObject, nil)
		return types.Invocation{}, false
	}
	if e.reg == nil || !e.reg.Has(name) {
		e.report(name, types.ErrUnknownComponent, props)
		return types.Invocation{}, false
	}
	if res := e.reg.Validate(name, props); !res.Valid {
		e.report(name, fmt.Errorf("%w: %s", types.ErrValidation, strings.Join(res.Errors, "; ")), props)
		return types.Invocation{}, false
	}
	return types.Invocation{
		ID:         e.nextID(),
		Name:       name,
		Properties: props,
		Span:       at,
	}, true
}

// ExtractPartial looks for an invocation whose property object runs to the
// end of text, repairs the JSON and replaces the invocation with a
// placeholder. Complete invocations are left alone; at most one partial
// invocation is returned. Nothing is reported: an unrepairable fragment is
// simply not extractable yet.
func (e *Extractor) ExtractPartial(text string) Result {
	for pos := 0; pos < len(text); {
		h, ok := nextHeader(text, pos)
		if !ok {
			break
		}
		var candidate string
		span, end, ok := Scan(text, h.props)
		switch {
		case ok && strings.HasPrefix(text[end:], closeToken):
			pos = end + len(closeToken)
			continue
		case ok && strings.HasPrefix(closeToken, text[end:]):
			// object closed, close token still arriving
			candidate = span
		case ok:
			pos = end
			continue
		default:
			candidate, ok = Repair(text[h.props:])
			if !ok {
				e.debugf("partial %s: fragment not repairable yet", h.name)
				return Result{Markdown: text}
			}
		}
		if e.reg == nil || !e.reg.Has(h.name) {
			e.debugf("partial %s: unknown component", h.name)
			return Result{Markdown: text}
		}
		var props map[string]any
		if err := json.Unmarshal([]byte(candidate), &props); err != nil {
			return Result{Markdown: text}
		}
		inv := types.Invocation{
			ID:         e.nextID(),
			Name:       h.name,
			Properties: props,
			Span:       types.Span{Start: h.start, End: len(text)},
			Partial:    true,
		}
		return Result{
			Markdown:   text[:h.start] + Placeholder(inv.ID, inv.Name),
			Components: []types.Invocation{inv},
		}
	}
	return Result{Markdown: text}
}

func (e *Extractor) nextID() string {
	e.seq++
	return "c" + strconv.FormatUint(e.seq, 10)
}

func (e *Extractor) report(name string, err error, props map[string]any) {
	if e.log != nil {
		e.log.Warnf("dropping component %q: %v", name, err)
	}
	if e.onError != nil {
		e.onError(types.ComponentError{Name: name, Err: err, Props: props})
	}
}

func (e *Extractor) debugf(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Debugf(format, args...)
	}
}

func unquote(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
