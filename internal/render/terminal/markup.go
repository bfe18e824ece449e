package terminal

import (
	"regexp"
)

var keySpanPattern = regexp.MustCompile(`<span class="key-highlight">([A-Z])</span>`)

// segment is a run of text drawn with one style.
type segment struct {
	text string
	key  bool
}

// splitMarkup splits templated text into plain runs and highlighted keys.
// Any other markup is drawn verbatim.
func splitMarkup(s string) []segment {
	var out []segment
	last := 0
	for _, m := range keySpanPattern.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, segment{text: s[last:m[0]]})
		}
		out = append(out, segment{text: "[" + s[m[2]:m[3]] + "]", key: true})
		last = m[1]
	}
	if last < len(s) {
		out = append(out, segment{text: s[last:]})
	}
	return out
}
