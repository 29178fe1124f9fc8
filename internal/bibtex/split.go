package bibtex

import (
	"strings"
)

// Chunk is a verbatim slice of a bibliography file. Entry chunks carry the
// citation key; text between entries (comments, blank lines) has Key "".
type Chunk struct {
	Key  string
	Text string
}

// Split cuts a bibliography file into chunks without reformatting anything,
// so entries the caller does not touch are written back byte for byte.
// A block whose braces never close is kept as one trailing text chunk.
func Split(text string) []Chunk {
	var chunks []Chunk
	pos := 0
	for pos < len(text) {
		at := strings.IndexByte(text[pos:], '@')
		if at < 0 {
			chunks = append(chunks, Chunk{Text: text[pos:]})
			break
		}
		at += pos
		open := strings.IndexAny(text[at:], "{(")
		if open < 0 {
			chunks = append(chunks, Chunk{Text: text[pos:]})
			break
		}
		open += at
		typ := strings.TrimSpace(text[at+1 : open])
		if typ == "" || strings.IndexFunc(typ, func(r rune) bool { return !isIdent(byte(r)) || r > 127 }) >= 0 {
			// a stray '@' in free text
			chunks = appendText(chunks, text[pos:at+1])
			pos = at + 1
			continue
		}
		end, err := matchClose(text, open)
		if err != nil {
			chunks = append(chunks, Chunk{Text: text[pos:]})
			break
		}
		if at > pos {
			chunks = appendText(chunks, text[pos:at])
		}
		chunks = append(chunks, Chunk{Key: chunkKey(typ, text[open+1:end]), Text: text[at : end+1]})
		pos = end + 1
	}
	return chunks
}

func appendText(chunks []Chunk, s string) []Chunk {
	if n := len(chunks); n > 0 && chunks[n-1].Key == "" {
		chunks[n-1].Text += s
		return chunks
	}
	return append(chunks, Chunk{Text: s})
}

func chunkKey(typ, body string) string {
	switch strings.ToLower(typ) {
	case "comment", "preamble", "string":
		return ""
	}
	comma := strings.IndexByte(body, ',')
	if comma < 0 {
		return ""
	}
	return strings.TrimSpace(body[:comma])
}

// Join is the inverse of Split.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

// ReplaceKey rewrites the citation key of the single entry in text,
// leaving every other byte untouched.
func ReplaceKey(text, newKey string) (string, error) {
	at := strings.IndexByte(text, '@')
	if at < 0 {
		return "", &ParseError{Msg: "no entry found (expected @type{key, ...})"}
	}
	open := strings.IndexAny(text[at:], "{(")
	if open < 0 {
		return "", &ParseError{Line: lineAt(text, at), Msg: "expected '{' after entry type"}
	}
	open += at
	comma := strings.IndexByte(text[open:], ',')
	if comma < 0 {
		return "", &ParseError{Line: lineAt(text, open), Msg: "missing citation key"}
	}
	comma += open
	segment := text[open+1 : comma]
	lead := len(segment) - len(strings.TrimLeft(segment, " \t\r\n"))
	trail := len(segment) - len(strings.TrimRight(segment, " \t\r\n"))
	if lead == len(segment) {
		return "", &ParseError{Line: lineAt(text, open), Msg: "missing citation key"}
	}
	return text[:open+1+lead] + newKey + text[comma-trail:], nil
}
