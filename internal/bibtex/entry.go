// Package bibtex parses, formats and rewrites BibTeX entries.
package bibtex

import (
	"fmt"
	"strings"
)

// Field is one "name = value" pair of an entry.
// Raw holds the value expression exactly as written, including its
// delimiters ({...}, "..." or a bare token), so provider output survives
// a parse/format cycle unchanged.
type Field struct {
	Name string
	Raw  string
}

// Value returns the field value with one level of outer delimiters removed.
func (f Field) Value() string {
	return unwrap(f.Raw)
}

// Entry is a single BibTeX entry.
type Entry struct {
	Type   string
	Key    string
	Fields []Field
}

// Braced wraps a plain value in braces for use as Field.Raw.
func Braced(v string) string {
	return "{" + v + "}"
}

// Get returns the unwrapped value of the named field (case-insensitive),
// or "" when the field is absent.
func (e *Entry) Get(name string) string {
	if i := e.index(name); i >= 0 {
		return e.Fields[i].Value()
	}
	return ""
}

// Has reports whether the entry carries the named field.
func (e *Entry) Has(name string) bool {
	return e.index(name) >= 0
}

// Set stores value in braces under name, replacing an existing field in
// place or appending a new one.
func (e *Entry) Set(name, value string) {
	e.SetRaw(name, Braced(value))
}

// SetRaw is Set without adding delimiters.
func (e *Entry) SetRaw(name, raw string) {
	if i := e.index(name); i >= 0 {
		e.Fields[i].Raw = raw
		return
	}
	e.Fields = append(e.Fields, Field{Name: name, Raw: raw})
}

// Delete removes the named field if present.
func (e *Entry) Delete(name string) {
	if i := e.index(name); i >= 0 {
		e.Fields = append(e.Fields[:i], e.Fields[i+1:]...)
	}
}

func (e *Entry) index(name string) int {
	for i, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	c := e
	c.Fields = append([]Field(nil), e.Fields...)
	return c
}

// Format renders the entry in the canonical layout:
//
//	@article{Key,
//	  author = {...},
//	  year = 2018,
//	}
func (e Entry) Format() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", e.Type, e.Key))
	for _, f := range e.Fields {
		b.WriteString(fmt.Sprintf("  %s = %s,\n", f.Name, f.Raw))
	}
	b.WriteString("}\n")
	return b.String()
}

// String implements fmt.Stringer.
func (e Entry) String() string {
	return e.Format()
}

// Authors returns the individual names of the author field.
func (e *Entry) Authors() []string {
	return SplitAuthors(e.Get("author"))
}

// unwrap strips a single pair of matching outer braces or quotes.
func unwrap(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 {
		if raw[0] == '{' && raw[len(raw)-1] == '}' && balancedInner(raw[1:len(raw)-1]) {
			return raw[1 : len(raw)-1]
		}
		if raw[0] == '"' && raw[len(raw)-1] == '"' {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

// balancedInner reports whether s never closes more braces than it opens,
// which tells "{a} # {b}" apart from "{a # b}".
func balancedInner(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
