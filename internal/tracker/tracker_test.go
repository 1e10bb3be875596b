package tracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/riverfjs/mdstream/internal/types"
)

var stateOpts = cmp.Options{
	cmp.AllowUnexported(State{}, starEvent{}),
	cmpopts.EquateEmpty(),
}

type open struct {
	Kind   types.MarkerKind
	Offset int
}

func opened(s State) []open {
	var out []open
	for _, m := range s.Stack {
		out = append(out, open{m.Kind, m.Offset})
	}
	return out
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   []open
		fenced bool
		inline bool
	}{
		{"empty", "", nil, false, false},
		{"plain", "just text", nil, false, false},
		{"open bold", "This is **", []open{{types.Bold, 8}}, false, false},
		{"closed bold", "This is **bold**", nil, false, false},
		{"open italic", "an *idea", []open{{types.Italic, 3}}, false, false},
		{"closed italic", "an *idea*", nil, false, false},
		{"bold then italic", "**a *b", []open{{types.Bold, 0}, {types.Italic, 4}}, false, false},
		{"four asterisks", "****", nil, false, false},
		{"half close", "**a*", []open{{types.Bold, 0}}, false, false},
		{"list bullet", "* item", nil, false, false},
		{"bold followed by space", "a ** b", nil, false, false},
		{"escaped star", `\*a`, nil, false, false},
		{"pair withdrawn keeps close", "*0** ", nil, false, false},
		{"open inline code", "a `code", []open{{types.InlineCode, 2}}, false, true},
		{"closed inline code", "a `code` b", nil, false, false},
		{"star in inline code", "`a*b", []open{{types.InlineCode, 0}}, false, true},
		{"fence", "```", []open{{types.FencedCode, 0}}, true, false},
		{"fence with language", "```go\nfmt", []open{{types.FencedCode, 0}}, true, false},
		{"closed fence", "```go\nx\n```", nil, false, false},
		{"fence purges", "**a [b\n```\n*", []open{{types.FencedCode, 7}}, true, false},
		{"open link text", "see [docs", []open{{types.Link, 4}}, false, false},
		{"open link url", "see [docs](http://x", []open{{types.Link, 4}}, false, false},
		{"closed link", "[a](b)", nil, false, false},
		{"bracket without url", "[a] b", nil, false, false},
		{"outer link closes", "[]([)", nil, false, false},
		{"star in link url", "[a](u*v)", nil, false, false},
		{"nested link text", "[a](b [c", []open{{types.Link, 0}, {types.Link, 6}}, false, false},
		{"open component", `x {{c:"A",p:{"k":"}"`, []open{{types.Component, 2}}, false, false},
		{"closed component", `x {{c:"A",p:{"k":"}"}}}`, nil, false, false},
		{"no markdown inside component", `{{c:"A",p:{"k":"**[`, []open{{types.Component, 0}}, false, false},
		{"not a component header", "{{ x", nil, false, false},
		{"component in inline code", "`{{c:", []open{{types.InlineCode, 0}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Update(State{}, tt.text)
			if diff := cmp.Diff(tt.want, opened(s), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Update(%q) stack mismatch (-want +got):\n%s", tt.text, diff)
			}
			if s.InFencedCode != tt.fenced {
				t.Errorf("Update(%q).InFencedCode = %v, want %v", tt.text, s.InFencedCode, tt.fenced)
			}
			if s.InInlineCode != tt.inline {
				t.Errorf("Update(%q).InInlineCode = %v, want %v", tt.text, s.InInlineCode, tt.inline)
			}
			checkInvariants(t, s, tt.text)
		})
	}
}

func checkInvariants(t *testing.T, s State, text string) {
	t.Helper()
	var counts [types.KindCount]int
	for _, m := range s.Stack {
		counts[m.Kind]++
	}
	if counts != s.Counts {
		t.Errorf("Counts = %v, stack holds %v", s.Counts, counts)
	}
	if s.PreviousLength != len(text) {
		t.Errorf("PreviousLength = %d, want %d", s.PreviousLength, len(text))
	}
	want := s.PreviousLength
	if len(s.Stack) > 0 {
		want = s.Stack[0].Offset
	}
	if s.EarliestOpenOffset != want {
		t.Errorf("EarliestOpenOffset = %d, want %d", s.EarliestOpenOffset, want)
	}
}

func TestUpdateIncremental(t *testing.T) {
	s := Update(State{}, "This is **")
	if got := opened(s); len(got) != 1 || got[0] != (open{types.Bold, 8}) {
		t.Fatalf("stack = %v, want bold at 8", got)
	}
	if s.Stack[0].Text != "**" {
		t.Errorf("marker text = %q, want **", s.Stack[0].Text)
	}
	s = Update(s, "This is **bold**")
	if !s.Empty() {
		t.Errorf("stack = %v, want empty", s.Stack)
	}
}

func TestUpdateDoesNotModifyInput(t *testing.T) {
	before := Update(State{}, "**a *b")
	snapshot := before.clone()
	_ = Update(before, "**a *b* c**")
	if diff := cmp.Diff(snapshot, before, stateOpts); diff != "" {
		t.Errorf("input state modified (-want +got):\n%s", diff)
	}
}

func TestUpdateNoNewText(t *testing.T) {
	s := Update(State{}, "**a")
	if diff := cmp.Diff(s, Update(s, "**a"), stateOpts); diff != "" {
		t.Errorf("Update with no delta changed state:\n%s", diff)
	}
}

func TestUpdateShrinkRebuilds(t *testing.T) {
	s := Update(State{}, "**bold and `code")
	got := Update(s, "*it")
	want := Update(State{}, "*it")
	if diff := cmp.Diff(want, got, stateOpts); diff != "" {
		t.Errorf("shrunk update mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSuffix(t *testing.T) {
	text := "closed **a** then *open"
	s := Scan(text, 12)
	if got := opened(s); len(got) != 1 || got[0] != (open{types.Italic, 18}) {
		t.Errorf("Scan stack = %v, want italic at 18", got)
	}
	if s.PreviousLength != len(text) {
		t.Errorf("PreviousLength = %d, want %d", s.PreviousLength, len(text))
	}
}

func TestHalfClose(t *testing.T) {
	if got := Update(State{}, "**a*").HalfClose(); got != 3 {
		t.Errorf("HalfClose() = %d, want 3", got)
	}
	if got := Update(State{}, "**a**").HalfClose(); got != -1 {
		t.Errorf("HalfClose() on closed bold = %d, want -1", got)
	}
	if got := Update(State{}, "*a").HalfClose(); got != -1 {
		t.Errorf("HalfClose() on italic = %d, want -1", got)
	}
}

var chunkSeeds = []string{
	"This is **bold** and *italic* and `code`",
	"**a*",
	"****",
	"* item\n* **b",
	"```go\nfmt.Println(\"*\")\n```\nafter **x",
	"see [docs](http://example.com) and [open",
	`Hi {{c:"Badge",p:{"text":"a}b","n":[1,{"x":2}]}}} **t`,
	"``\n`x` ```",
	`\*no\* \` + "`" + `x`,
	"{{ x {{c",
	"*0** ",
	"[]([)",
	"0000000000000000[](00*) ",
}

func TestChunkIndependence(t *testing.T) {
	for _, text := range chunkSeeds {
		whole := Update(State{}, text)
		for size := 1; size <= 4; size++ {
			var s State
			for end := size; ; end += size {
				if end > len(text) {
					end = len(text)
				}
				s = Update(s, text[:end])
				if end == len(text) {
					break
				}
			}
			if diff := cmp.Diff(whole, s, stateOpts); diff != "" {
				t.Errorf("%q in chunks of %d (-whole +chunked):\n%s", text, size, diff)
			}
		}
	}
}

func FuzzChunkIndependence(f *testing.F) {
	for _, s := range chunkSeeds {
		f.Add(s, uint(3), uint(7))
	}
	f.Fuzz(func(t *testing.T, text string, a, b uint) {
		whole := Update(State{}, text)
		checkInvariants(t, whole, text)
		if len(text) == 0 {
			return
		}
		i := int(a % uint(len(text)+1))
		j := int(b % uint(len(text)+1))
		if i > j {
			i, j = j, i
		}
		s := Update(State{}, text[:i])
		s = Update(s, text[:j])
		s = Update(s, text)
		if diff := cmp.Diff(whole, s, stateOpts); diff != "" {
			t.Errorf("%q split at %d,%d (-whole +chunked):\n%s", text, i, j, diff)
		}
	})
}
