package bibtex

import (
	"strings"
	"unicode"
)

// Name is a personal name split the BibTeX way.
type Name struct {
	First string
	Last  string
}

// Common name suffixes that should not be treated as the last name.
var nameSuffixes = map[string]bool{
	"jr": true, "jr.": true, "sr": true, "sr.": true,
	"ii": true, "iii": true, "iv": true,
}

// SplitAuthors splits an author field on top-level " and ".
func SplitAuthors(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	var names []string
	depth, start := 0, 0
	lower := strings.ToLower(field)
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ' ', '\t', '\n':
			if depth == 0 && strings.HasPrefix(lower[i+1:], "and") && i+4 < len(field) && isSpace(field[i+4]) {
				names = appendName(names, field[start:i])
				start = i + 4
				i += 3
			}
		}
	}
	return appendName(names, field[start:])
}

func appendName(names []string, s string) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return names
	}
	return append(names, s)
}

// ParseName splits one author name. Both "Last, First" and
// "First von Last" orders are understood; a fully braced name is a
// corporate author and becomes the last name as is.
func ParseName(s string) Name {
	s = strings.TrimSpace(s)
	if s == "" {
		return Name{}
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && balancedInner(s[1:len(s)-1]) {
		return Name{Last: s[1 : len(s)-1]}
	}

	if parts := splitTopLevel(s, ','); len(parts) > 1 {
		n := Name{Last: strings.TrimSpace(parts[0])}
		// "Last, Jr, First"
		n.First = strings.TrimSpace(parts[len(parts)-1])
		return n
	}

	tokens := splitTopLevel(s, ' ')
	for len(tokens) > 1 && nameSuffixes[strings.ToLower(tokens[len(tokens)-1])] {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 1 {
		return Name{Last: tokens[0]}
	}
	// the last name starts at the first lowercase "von" particle, if any
	lastStart := len(tokens) - 1
	for i := 1; i < len(tokens)-1; i++ {
		if startsLower(tokens[i]) {
			lastStart = i
			break
		}
	}
	return Name{
		First: strings.Join(tokens[:lastStart], " "),
		Last:  strings.Join(tokens[lastStart:], " "),
	}
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case sep:
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

func startsLower(tok string) bool {
	for _, r := range tok {
		if r == '{' || r == '\\' {
			return false
		}
		return unicode.IsLower(r)
	}
	return false
}

// FormatName renders a name as "Last, First".
func FormatName(n Name) string {
	if n.First == "" {
		return n.Last
	}
	return n.Last + ", " + n.First
}
