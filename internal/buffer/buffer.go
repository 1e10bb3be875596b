// Package buffer provides the append-mostly text buffer shared by the
// session and the document walker.
package buffer

// TextBuffer accumulates text and tracks its byte length.
type TextBuffer struct {
	b []byte
}

// New creates an empty TextBuffer.
func New() *TextBuffer {
	return &TextBuffer{b: make([]byte, 0, 256)}
}

// Write appends text to the buffer.
func (tb *TextBuffer) Write(text string) {
	tb.b = append(tb.b, text...)
}

// Set replaces the whole content.
func (tb *TextBuffer) Set(text string) {
	tb.b = append(tb.b[:0], text...)
}

// Len returns the length in bytes.
func (tb *TextBuffer) Len() int {
	return len(tb.b)
}

// TrailingNewlineCount counts trailing newline characters in the buffer.
func (tb *TextBuffer) TrailingNewlineCount() int {
	count := 0
	for i := len(tb.b) - 1; i >= 0 && tb.b[i] == '\n'; i-- {
		count++
	}
	return count
}

// Truncate discards all but the first n bytes. It is a no-op when n is out
// of range.
func (tb *TextBuffer) Truncate(n int) {
	if n < 0 || n > len(tb.b) {
		return
	}
	tb.b = tb.b[:n]
}

// String returns the accumulated text.
func (tb *TextBuffer) String() string {
	return string(tb.b)
}

// Reset clears the buffer.
func (tb *TextBuffer) Reset() {
	tb.b = tb.b[:0]
}
