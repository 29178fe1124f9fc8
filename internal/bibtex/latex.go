package bibtex

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// accentCommand matches \"o, \'{e}, {\v c}, \c{c} and similar. Letter
// accents need a brace group or a space so \url and \cite are left alone.
var accentCommand = regexp.MustCompile(`\\(?:([` + "`" + `'^"~=.])\s*(?:\{\s*([A-Za-z])\s*\}|([A-Za-z]))|([uvHckrbd])(?:\{\s*([A-Za-z])\s*\}|\s+([A-Za-z])\b))`)

var combiningMarks = map[string]string{
	"`":  "̀",
	"'":  "́",
	"^":  "̂",
	"~":  "̃",
	"=":  "̄",
	"u":  "̆",
	".":  "̇",
	"\"": "̈",
	"r":  "̊",
	"H":  "̋",
	"v":  "̌",
	"d":  "̣",
	"c":  "̧",
	"k":  "̨",
	"b":  "̱",
}

// letterCommand matches control words that stand for a single letter.
var letterCommand = regexp.MustCompile(`\\(ss|ae|AE|oe|OE|aa|AA|o|O|l|L|i|j)\b\s*`)

var letters = map[string]string{
	"ss": "ß", "ae": "æ", "AE": "Æ", "oe": "œ", "OE": "Œ",
	"aa": "å", "AA": "Å", "o": "ø", "O": "Ø", "l": "ł", "L": "Ł",
	"i": "i", "j": "j",
}

var escapes = strings.NewReplacer(
	`\&`, "&",
	`\%`, "%",
	`\$`, "$",
	`\#`, "#",
	`\_`, "_",
	"~", " ",
	"{", "",
	"}", "",
)

// PlainText converts a LaTeX-flavoured field value to plain Unicode text:
// accent commands become composed characters, braces disappear and runs of
// whitespace collapse to one space.
func PlainText(s string) string {
	s = letterCommand.ReplaceAllStringFunc(s, func(m string) string {
		return letters[letterCommand.FindStringSubmatch(m)[1]]
	})
	s = accentCommand.ReplaceAllStringFunc(s, func(m string) string {
		sub := accentCommand.FindStringSubmatch(m)
		var mark, letter string
		for i, g := range sub[1:] {
			switch {
			case g == "":
			case i == 0 || i == 3:
				mark = g
			default:
				letter = g
			}
		}
		return letter + combiningMarks[mark]
	})
	s = escapes.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// Escape escapes characters that are special in BibTeX field text.
// Math ($) and braces are left alone so titles keep their markup.
func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"#", `\#`,
	)
	return replacer.Replace(s)
}
