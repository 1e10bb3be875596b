package extractor

// Scan finds the brace group that opens at the first '{' at or after start.
// Quoted strings, including escaped quotes, are skipped. It returns the
// group from its '{' to the matching '}' and the index just past it, or
// ok=false if the text ends before the braces balance.
func Scan(text string, start int) (span string, end int, ok bool) {
	if start < 0 {
		start = 0
	}
	first := -1
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if first >= 0 {
				inString = true
			}
		case '{':
			if first < 0 {
				first = i
			}
			depth++
		case '}':
			if first < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[first : i+1], i + 1, true
			}
		}
	}
	return "", len(text), false
}

// nesting is the scanner state at the end of a JSON fragment.
type nesting struct {
	stack    []byte
	inString bool
	escaped  bool
}

// scanNesting walks a JSON fragment and reports which containers and
// string are still open at its end. Unmatched closers are ignored.
func scanNesting(s string) nesting {
	var n nesting
	for i := 0; i < len(s); i++ {
		c := s[i]
		if n.inString {
			switch {
			case n.escaped:
				n.escaped = false
			case c == '\\':
				n.escaped = true
			case c == '"':
				n.inString = false
			}
			continue
		}
		switch c {
		case '"':
			n.inString = true
		case '{', '[':
			n.stack = append(n.stack, c)
		case '}', ']':
			if k := len(n.stack); k > 0 {
				n.stack = n.stack[:k-1]
			}
		}
	}
	return n
}

// closers returns the brackets that close every open container, innermost
// first.
func (n nesting) closers() string {
	out := make([]byte, 0, len(n.stack))
	for i := len(n.stack) - 1; i >= 0; i-- {
		if n.stack[i] == '[' {
			out = append(out, ']')
		} else {
			out = append(out, '}')
		}
	}
	return string(out)
}

func (n nesting) top() byte {
	if len(n.stack) == 0 {
		return 0
	}
	return n.stack[len(n.stack)-1]
}
