// Package ident classifies and normalizes paper identifiers.
package ident

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Kind is the type of a paper identifier.
type Kind string

const (
	KindDOI    Kind = "doi"
	KindArXiv  Kind = "arxiv"
	KindPMID   Kind = "pmid"
	KindURL    Kind = "url"
	KindBibTeX Kind = "bibtex"
)

// Kinds lists the kinds accepted by ParseKind, in display order.
var Kinds = []Kind{KindDOI, KindArXiv, KindPMID, KindURL, KindBibTeX}

// ErrUnrecognized is returned when a string matches no identifier format.
var ErrUnrecognized = errors.New("unrecognized identifier")

// Identifier is a classified, normalized paper identifier.
type Identifier struct {
	Kind  Kind
	Value string // normalized value (bare DOI, bare arXiv ID without version, digits, URL, entry text)
	Raw   string // input as given
}

// String returns a prefixed form such as "doi:10.1103/x".
func (id Identifier) String() string {
	if id.Kind == KindBibTeX {
		return "bibtex entry"
	}
	return string(id.Kind) + ":" + id.Value
}

var (
	doiPattern      = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)
	arxivNewPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5})(v\d+)?$`)
	arxivOldPattern = regexp.MustCompile(`^([a-z-]+(?:\.[A-Z]{2})?/\d{7})(v\d+)?$`)
	pmidPattern     = regexp.MustCompile(`^[1-9]\d{0,8}$`)
)

// explicit prefixes, checked case-insensitively.
var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{"doi:", KindDOI},
	{"arxiv:", KindArXiv},
	{"pmid:", KindPMID},
	{"url:", KindURL},
}

// ParseKind parses a --type flag value.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Kinds {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid identifier type %q (valid: %v)", s, Kinds)
}

// Classify infers the kind of s and normalizes it.
func Classify(s string) (Identifier, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Identifier{}, fmt.Errorf("%w: empty string", ErrUnrecognized)
	}

	if strings.HasPrefix(s, "@") {
		return Identifier{Kind: KindBibTeX, Value: s, Raw: raw}, nil
	}

	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p.prefix) {
			id, err := As(p.kind, s[len(p.prefix):])
			id.Raw = raw
			return id, err
		}
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		id := FromURL(s)
		id.Raw = raw
		return id, nil
	}
	if strings.HasPrefix(lower, "doi.org/") || strings.HasPrefix(lower, "dx.doi.org/") {
		return As(KindDOI, s)
	}

	if doi := NormalizeDOI(s); doiPattern.MatchString(doi) {
		return Identifier{Kind: KindDOI, Value: doi, Raw: raw}, nil
	}
	if arxiv, ok := normalizeArXiv(s); ok {
		return Identifier{Kind: KindArXiv, Value: arxiv, Raw: raw}, nil
	}
	if pmidPattern.MatchString(s) {
		return Identifier{Kind: KindPMID, Value: s, Raw: raw}, nil
	}

	return Identifier{}, fmt.Errorf("%w: %q", ErrUnrecognized, raw)
}

// As validates s as the given kind and normalizes it.
func As(kind Kind, s string) (Identifier, error) {
	raw := s
	s = strings.TrimSpace(s)
	switch kind {
	case KindDOI:
		doi := NormalizeDOI(s)
		if !doiPattern.MatchString(doi) {
			return Identifier{}, fmt.Errorf("%w: %q is not a valid DOI", ErrUnrecognized, raw)
		}
		return Identifier{Kind: KindDOI, Value: doi, Raw: raw}, nil
	case KindArXiv:
		if strings.Contains(strings.ToLower(s), "arxiv.org/") {
			if id := FromURL(s); id.Kind == KindArXiv {
				id.Raw = raw
				return id, nil
			}
		}
		arxiv, ok := normalizeArXiv(s)
		if !ok {
			return Identifier{}, fmt.Errorf("%w: %q is not a valid arXiv ID", ErrUnrecognized, raw)
		}
		return Identifier{Kind: KindArXiv, Value: arxiv, Raw: raw}, nil
	case KindPMID:
		if !pmidPattern.MatchString(s) {
			return Identifier{}, fmt.Errorf("%w: %q is not a valid PMID", ErrUnrecognized, raw)
		}
		return Identifier{Kind: KindPMID, Value: s, Raw: raw}, nil
	case KindURL:
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Identifier{}, fmt.Errorf("%w: %q is not an http(s) URL", ErrUnrecognized, raw)
		}
		return Identifier{Kind: KindURL, Value: s, Raw: raw}, nil
	case KindBibTeX:
		if !strings.HasPrefix(s, "@") {
			return Identifier{}, fmt.Errorf("%w: bibtex entry must start with '@'", ErrUnrecognized)
		}
		return Identifier{Kind: KindBibTeX, Value: s, Raw: raw}, nil
	default:
		return Identifier{}, fmt.Errorf("unknown identifier kind %q", kind)
	}
}

// FromURL extracts a DOI, arXiv ID or PMID embedded in a well-known URL.
// Any other URL is returned as KindURL.
func FromURL(s string) Identifier {
	u, err := url.Parse(s)
	if err != nil {
		return Identifier{Kind: KindURL, Value: s}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.Trim(u.Path, "/")

	switch {
	case host == "doi.org" || host == "dx.doi.org":
		if doi := NormalizeDOI(path); doiPattern.MatchString(doi) {
			return Identifier{Kind: KindDOI, Value: doi}
		}
	case host == "arxiv.org" || host == "export.arxiv.org":
		for _, p := range []string{"abs/", "pdf/"} {
			if strings.HasPrefix(path, p) {
				candidate := strings.TrimSuffix(strings.TrimPrefix(path, p), ".pdf")
				if arxiv, ok := normalizeArXiv(candidate); ok {
					return Identifier{Kind: KindArXiv, Value: arxiv}
				}
			}
		}
	case host == "pubmed.ncbi.nlm.nih.gov":
		if pmidPattern.MatchString(path) {
			return Identifier{Kind: KindPMID, Value: path}
		}
	}
	return Identifier{Kind: KindURL, Value: s}
}

// NormalizeDOI strips URL and "doi:" prefixes, URL escapes and trailing
// punctuation. Case is preserved; use DOIKey for comparisons.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "dx.doi.org/", "doi.org/", "doi:"} {
		if strings.HasPrefix(lower, p) {
			doi = doi[len(p):]
			break
		}
	}
	if unescaped, err := url.PathUnescape(doi); err == nil {
		doi = unescaped
	}
	return strings.TrimRight(strings.TrimSpace(doi), ".,;")
}

// DOIKey returns the comparison form of a DOI (normalized and lower-cased).
func DOIKey(doi string) string {
	return strings.ToLower(NormalizeDOI(doi))
}

// NormalizeArXiv returns the bare arXiv ID (no "arXiv:" prefix, no version),
// or the input unchanged if it is not an arXiv ID.
func NormalizeArXiv(s string) string {
	if id, ok := normalizeArXiv(s); ok {
		return id
	}
	return strings.TrimSpace(s)
}

func normalizeArXiv(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "arxiv:") {
		s = s[len("arxiv:"):]
	}
	if m := arxivNewPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := arxivOldPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}
