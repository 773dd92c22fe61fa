package templates

import (
	"sort"
	"strings"
)

// segment is either literal text or a slot reference, never both.
type segment struct {
	literal string
	slot    string
}

// scan splits content into literal text and {identifier} slots. Doubled
// braces are literal braces. Braces that do not enclose an identifier are
// kept as text.
func scan(content string) []segment {
	var (
		segments []segment
		text     strings.Builder
	)

	flush := func() {
		if text.Len() > 0 {
			segments = append(segments, segment{literal: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(content); {
		c := content[i]

		switch {
		case c == '{' && i+1 < len(content) && content[i+1] == '{':
			text.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(content) && content[i+1] == '}':
			text.WriteByte('}')
			i += 2
		case c == '{':
			end := identEnd(content, i+1)
			if end > i+1 && end < len(content) && content[end] == '}' {
				flush()
				segments = append(segments, segment{slot: content[i+1 : end]})
				i = end + 1
				continue
			}
			text.WriteByte(c)
			i++
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()

	return segments
}

func identEnd(s string, start int) int {
	i := start
	for i < len(s) {
		c := s[i]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && i > start) {
			break
		}
		i++
	}
	return i
}

func slotNames(segments []segment) []string {
	var names []string
	for _, seg := range segments {
		if seg.slot != "" {
			names = append(names, seg.slot)
		}
	}
	return uniqueSorted(names)
}

func uniqueSorted(names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	out := sorted[:1]
	for _, name := range sorted[1:] {
		if name != out[len(out)-1] {
			out = append(out, name)
		}
	}
	return out
}

func substitute(segments []segment, values map[string]string) (string, []string) {
	var (
		out     strings.Builder
		missing []string
	)
	for _, seg := range segments {
		if seg.slot == "" {
			out.WriteString(seg.literal)
			continue
		}
		value, ok := values[seg.slot]
		if !ok {
			missing = append(missing, seg.slot)
			continue
		}
		out.WriteString(value)
	}
	if len(missing) > 0 {
		return "", uniqueSorted(missing)
	}
	return out.String(), nil
}
