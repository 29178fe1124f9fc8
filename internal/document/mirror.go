package document

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// findPDFLink returns the first embed, iframe or anchor on a page that
// points at a PDF, resolved against base.
func findPDFLink(body []byte, base *url.URL) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return ""
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		var attr string
		switch tok.Data {
		case "embed", "iframe":
			attr = "src"
		case "a":
			attr = "href"
		default:
			continue
		}
		for _, a := range tok.Attr {
			if a.Key != attr {
				continue
			}
			if link := resolveLink(a.Val, base); link != "" && isPDFLink(link) {
				return link
			}
		}
	}
}

func resolveLink(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(strings.ToLower(raw), "javascript:") {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// isPDFLink reports whether a URL's path names a PDF, ignoring any
// fragment such as "#view=FitH".
func isPDFLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}
