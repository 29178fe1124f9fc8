package bibtex

import (
	"fmt"
	"strings"
)

// ParseError describes malformed BibTeX input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bibtex: line %d: %s", e.Line, e.Msg)
	}
	return "bibtex: " + e.Msg
}

// ParseOne parses text that must contain exactly one entry. Comments and
// other text around the entry are ignored.
func ParseOne(text string) (Entry, error) {
	entries, err := Parse(text)
	if err != nil {
		return Entry{}, err
	}
	switch len(entries) {
	case 0:
		return Entry{}, &ParseError{Msg: "no entry found (expected @type{key, ...})"}
	case 1:
		return entries[0], nil
	default:
		return Entry{}, &ParseError{Msg: fmt.Sprintf("expected one entry, found %d", len(entries))}
	}
}

// Parse parses every entry in text. @comment, @preamble and @string blocks
// are skipped.
func Parse(text string) ([]Entry, error) {
	p := &parser{src: text}
	var entries []Entry
	for {
		start := p.nextAt()
		if start < 0 {
			return entries, nil
		}
		entry, skip, err := p.entry()
		if err != nil {
			return nil, err
		}
		if !skip {
			entries = append(entries, entry)
		}
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(at int, format string, args ...any) *ParseError {
	return &ParseError{Line: lineAt(p.src, at), Msg: fmt.Sprintf(format, args...)}
}

// nextAt advances to the next '@' and returns its offset, or -1.
func (p *parser) nextAt() int {
	i := strings.IndexByte(p.src[p.pos:], '@')
	if i < 0 {
		p.pos = len(p.src)
		return -1
	}
	p.pos += i
	return p.pos
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

// entry parses one block starting at '@'. skip is true for blocks that are
// not bibliographic entries.
func (p *parser) entry() (Entry, bool, error) {
	at := p.pos
	p.pos++ // '@'
	p.skipSpace()
	typ := p.ident()
	if typ == "" {
		return Entry{}, false, p.errorf(at, "missing entry type after '@'")
	}
	p.skipSpace()
	if p.eof() || (p.peek() != '{' && p.peek() != '(') {
		return Entry{}, false, p.errorf(at, "expected '{' after @%s", typ)
	}
	closer := byte('}')
	if p.peek() == '(' {
		closer = ')'
	}
	open := p.pos
	p.pos++

	switch strings.ToLower(typ) {
	case "comment", "preamble", "string":
		end, err := matchClose(p.src, open)
		if err != nil {
			return Entry{}, false, p.errorf(open, "%s", err)
		}
		p.pos = end + 1
		return Entry{}, true, nil
	}

	p.skipSpace()
	keyStart := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer && p.peek() != '\n' {
		p.pos++
	}
	key := strings.TrimSpace(p.src[keyStart:p.pos])
	if key == "" {
		return Entry{}, false, p.errorf(keyStart, "missing citation key in @%s entry", typ)
	}
	if strings.ContainsAny(key, " \t{}\"=") {
		return Entry{}, false, p.errorf(keyStart, "invalid citation key %q", key)
	}
	p.skipSpace()
	if p.eof() {
		return Entry{}, false, p.errorf(at, "unbalanced braces: entry %s is not closed", key)
	}
	if p.peek() != ',' {
		return Entry{}, false, p.errorf(p.pos, "entry %s has no fields", key)
	}
	p.pos++

	e := Entry{Type: typ, Key: key}
	for {
		p.skipSpace()
		for !p.eof() && p.peek() == ',' {
			p.pos++
			p.skipSpace()
		}
		if p.eof() {
			return Entry{}, false, p.errorf(at, "unbalanced braces: entry %s is not closed", key)
		}
		if p.peek() == closer {
			p.pos++
			break
		}
		f, err := p.field(closer)
		if err != nil {
			return Entry{}, false, err
		}
		e.Fields = append(e.Fields, f)
	}
	if len(e.Fields) == 0 {
		return Entry{}, false, p.errorf(at, "entry %s has no fields", key)
	}
	return e, false, nil
}

func (p *parser) field(closer byte) (Field, error) {
	nameAt := p.pos
	name := p.ident()
	if name == "" {
		return Field{}, p.errorf(nameAt, "expected field name, found %q", p.peek())
	}
	p.skipSpace()
	if p.eof() || p.peek() != '=' {
		return Field{}, p.errorf(nameAt, "expected '=' after field %s", name)
	}
	p.pos++
	p.skipSpace()

	valueStart := p.pos
	for {
		if p.eof() {
			return Field{}, p.errorf(valueStart, "unbalanced braces in field %s", name)
		}
		switch c := p.peek(); {
		case c == '{':
			end, err := matchClose(p.src, p.pos)
			if err != nil {
				return Field{}, p.errorf(p.pos, "unbalanced braces in field %s", name)
			}
			p.pos = end + 1
		case c == '"':
			end, err := matchQuote(p.src, p.pos)
			if err != nil {
				return Field{}, p.errorf(p.pos, "unterminated quote in field %s", name)
			}
			p.pos = end + 1
		case isBare(c):
			for !p.eof() && isBare(p.peek()) {
				p.pos++
			}
		default:
			return Field{}, p.errorf(p.pos, "missing value for field %s", name)
		}
		p.skipSpace()
		if !p.eof() && p.peek() == '#' {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}
	raw := strings.TrimSpace(p.src[valueStart:p.pos])
	if !p.eof() && p.peek() != ',' && p.peek() != closer {
		return Field{}, p.errorf(p.pos, "expected ',' after field %s", name)
	}
	return Field{Name: name, Raw: raw}, nil
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() && isIdent(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// matchClose returns the offset of the brace closing the one at open.
// open may point at '{' or '('.
func matchClose(src string, open int) (int, error) {
	if src[open] == '(' {
		depth := 0
		for i := open; i < len(src); i++ {
			switch src[i] {
			case '{':
				depth++
			case '}':
				depth--
			case ')':
				if depth == 0 {
					return i, nil
				}
			}
		}
		return -1, fmt.Errorf("unbalanced parentheses")
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("unbalanced braces")
}

func matchQuote(src string, open int) (int, error) {
	depth := 0
	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("unterminated quote")
}

func lineAt(src string, off int) int {
	if off > len(src) {
		off = len(src)
	}
	return strings.Count(src[:off], "\n") + 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdent(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == ':' || c == '.' || c == '+' || c == '/'
}

func isBare(c byte) bool {
	return !isSpace(c) && c != ',' && c != '#' && c != '{' && c != '}' && c != '"' && c != '(' && c != ')' && c != '='
}
