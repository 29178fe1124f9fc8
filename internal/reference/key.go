package reference

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/refman/internal/bibtex"
)

// Placeholder replaces a surname or year that cannot be derived.
const Placeholder = "unknown"

// hashLen is the number of hex digits of the content hash kept in a key.
const hashLen = 7

// volatileFields do not contribute to the content hash.
var volatileFields = map[string]bool{
	"file":      true,
	"timestamp": true,
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// Letters that do not decompose into a base letter plus a mark.
var foldLetters = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "ł", "l", "Ł", "L", "ı", "i", "đ", "d", "Đ", "D",
	"þ", "th", "Þ", "Th",
)

// ErrInvalidKey is returned for keys that are not safe as file names or
// citation keys.
var ErrInvalidKey = errors.New("invalid key")

// DeriveKey returns the key for an entry: override if given, otherwise
// <Surname>_<Year>_<hash> built from the entry content.
func DeriveKey(e bibtex.Entry, override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		if err := ValidateKey(override); err != nil {
			return "", err
		}
		return override, nil
	}
	return GenerateKey(e), nil
}

// GenerateKey derives a key from the entry alone. The entry's own citation
// key is ignored, so the result is the same before and after the key is
// applied.
func GenerateKey(e bibtex.Entry) string {
	return fmt.Sprintf("%s_%s_%s", surname(e), year(e), ContentHash(e)[:hashLen])
}

// ContentHash returns the hex BLAKE2b-256 digest of the normalized entry.
func ContentHash(e bibtex.Entry) string {
	sum := blake2b.Sum256([]byte(normalize(e)))
	return hex.EncodeToString(sum[:])
}

// normalize renders an entry as lower-cased type followed by its fields
// sorted by lower-cased name, whitespace collapsed, one per line.
func normalize(e bibtex.Entry) string {
	lines := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		name := strings.ToLower(f.Name)
		if volatileFields[name] {
			continue
		}
		lines = append(lines, name+"="+strings.Join(strings.Fields(f.Value()), " "))
	}
	sort.Strings(lines)
	return strings.ToLower(strings.TrimSpace(e.Type)) + "\n" + strings.Join(lines, "\n")
}

func surname(e bibtex.Entry) string {
	names := bibtex.SplitAuthors(e.Get("author"))
	if len(names) == 0 {
		names = bibtex.SplitAuthors(e.Get("editor"))
	}
	if len(names) == 0 {
		return Placeholder
	}
	last := bibtex.ParseName(names[0]).Last
	if s := FoldASCII(bibtex.PlainText(last)); s != "" {
		return s
	}
	return Placeholder
}

func year(e bibtex.Entry) string {
	if y := extractYear(e.Get("year")); y != "" {
		return y
	}
	if y := extractYear(e.Get("date")); y != "" {
		return y
	}
	return Placeholder
}

func extractYear(s string) string {
	if m := yearPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// FoldASCII strips diacritics and drops everything that is not an ASCII
// letter or digit: "Veličković" becomes "Velickovic".
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = foldLetters.Replace(folded)
	var b strings.Builder
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateKey rejects keys that cannot serve as both a citation key and a
// file name.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`/\{}(),"#%=@'~`, r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidKey, key, r)
		}
	}
	return nil
}
