package extractor

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	partialEscapeRe = regexp.MustCompile(`\\u[0-9a-fA-F]{0,3}$`)
	danglingFieldRe = regexp.MustCompile(`([,{])\s*"(?:[^"\\]|\\.)*"\s*(?::\s*(?:t|tr|tru|f|fa|fal|fals|n|nu|nul|-)?\s*)?$`)
	decimalPointRe  = regexp.MustCompile(`(\d)\.\s*$`)
	trailingCommaRe = regexp.MustCompile(`,\s*$`)
)

// repairSteps run in order; after each one the fragment is closed and
// tried as JSON.
var repairSteps = []func(string) string{
	closeString,
	stripDanglingField,
	stripDecimalPoint,
	stripTrailingComma,
}

// Repair turns a truncated JSON object into valid JSON by closing an open
// string, dropping a half-written field, dropping a dangling decimal point
// or comma, and finally closing every open container. It gives up if no
// step yields valid JSON.
func Repair(fragment string) (string, bool) {
	s := fragment
	for _, step := range repairSteps {
		s = step(s)
		candidate := s + scanNesting(s).closers()
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

func closeString(s string) string {
	n := scanNesting(s)
	if !n.inString {
		return s
	}
	if n.escaped {
		s = s[:len(s)-1]
	}
	s = partialEscapeRe.ReplaceAllString(s, "")
	return trimPartialRune(s) + `"`
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of s.
func trimPartialRune(s string) string {
	for i := len(s) - 1; i >= 0 && i >= len(s)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if !utf8.FullRuneInString(s[i:]) {
			return s[:i]
		}
		break
	}
	return s
}

// stripDanglingField removes a trailing object key that has no complete
// value yet, keeping the ',' or '{' before it.
func stripDanglingField(s string) string {
	loc := danglingFieldRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	// the separator must belong to an object, not an array of strings
	if n := scanNesting(s[:loc[2]+1]); n.inString || n.top() != '{' {
		return s
	}
	return s[:loc[3]]
}

func stripDecimalPoint(s string) string {
	return decimalPointRe.ReplaceAllString(s, "$1")
}

func stripTrailingComma(s string) string {
	return strings.TrimRightFunc(trailingCommaRe.ReplaceAllString(s, ""), isJSONSpace)
}

func isJSONSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
