package resolver

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/matsen/refman/internal/ident"
	"github.com/matsen/refman/internal/pdf"
)

// pageMeta is what a landing page reveals about the paper it describes.
type pageMeta struct {
	DOI   string
	ArXiv string
	PDF   string
}

// meta names carrying a DOI, most specific first
var doiMetaNames = []string{"citation_doi", "prism.doi", "bepress_citation_doi", "dc.identifier", "dc.identifier.doi"}

// scanPage reads the <meta> tags of an HTML page. When no tag names a DOI
// the first DOI-shaped string anywhere on the page is used.
func scanPage(body []byte, base *url.URL) pageMeta {
	metas := map[string]string{}
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.Data != "meta" {
			continue
		}
		var name, content string
		for _, a := range tok.Attr {
			switch strings.ToLower(a.Key) {
			case "name", "property":
				name = strings.ToLower(strings.TrimSpace(a.Val))
			case "content":
				content = strings.TrimSpace(a.Val)
			}
		}
		if name != "" && content != "" {
			if _, seen := metas[name]; !seen {
				metas[name] = content
			}
		}
	}

	var m pageMeta
	for _, n := range doiMetaNames {
		if id, err := ident.As(ident.KindDOI, metas[n]); err == nil {
			m.DOI = id.Value
			break
		}
	}
	if v := metas["citation_arxiv_id"]; v != "" {
		if id, err := ident.As(ident.KindArXiv, v); err == nil {
			m.ArXiv = id.Value
		}
	}
	if v := metas["citation_pdf_url"]; v != "" {
		if ref, err := url.Parse(v); err == nil {
			if base != nil {
				ref = base.ResolveReference(ref)
			}
			m.PDF = ref.String()
		}
	}
	if m.DOI == "" && m.ArXiv == "" {
		m.DOI = pdf.FindDOI(string(body))
	}
	return m
}
