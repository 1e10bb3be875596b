package buffer

import "testing"

func TestTextBuffer(t *testing.T) {
	tb := New()
	tb.Write("Hello ")
	tb.Write("**wor")
	if got := tb.String(); got != "Hello **wor" {
		t.Errorf("String() = %q", got)
	}
	if tb.Len() != 11 {
		t.Errorf("Len() = %d, want 11", tb.Len())
	}

	tb.Truncate(5)
	if got := tb.String(); got != "Hello" {
		t.Errorf("after Truncate(5) = %q", got)
	}
	tb.Truncate(99)
	tb.Truncate(-1)
	if got := tb.String(); got != "Hello" {
		t.Errorf("out of range Truncate changed buffer to %q", got)
	}

	tb.Set("x\n\n")
	if got := tb.TrailingNewlineCount(); got != 2 {
		t.Errorf("TrailingNewlineCount() = %d, want 2", got)
	}

	tb.Reset()
	if tb.Len() != 0 || tb.String() != "" {
		t.Errorf("Reset left %q", tb.String())
	}
	if got := tb.TrailingNewlineCount(); got != 0 {
		t.Errorf("TrailingNewlineCount() on empty = %d", got)
	}
}

func TestSetDoesNotAlias(t *testing.T) {
	tb := New()
	tb.Set("abc")
	s := tb.String()
	tb.Set("xyz")
	if s != "abc" {
		t.Errorf("earlier String() result changed to %q", s)
	}
}
