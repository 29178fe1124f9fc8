// Package arxiv resolves arXiv identifiers through the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matsen/refman/internal/bibtex"
	"github.com/matsen/refman/internal/provider"
)

const (
	// BaseURL is the arXiv export API base URL.
	BaseURL = "https://export.arxiv.org/api"

	// PDFBaseURL serves article PDFs as <PDFBaseURL>/<id>.pdf.
	PDFBaseURL = "https://arxiv.org/pdf"

	// AbsBaseURL serves abstract pages as <AbsBaseURL>/<id>.
	AbsBaseURL = "https://arxiv.org/abs"

	name = "arxiv"
)

// Client queries the arXiv API.
type Client struct {
	req     *provider.Requester
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates an arXiv client on top of req.
func NewClient(req *provider.Requester, opts ...ClientOption) *Client {
	c := &Client{req: req, baseURL: BaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PDFURL returns the direct PDF location of an arXiv article.
func PDFURL(id string) string {
	return fmt.Sprintf("%s/%s.pdf", PDFBaseURL, id)
}

// Lookup fetches the metadata of one article.
func (c *Client) Lookup(ctx context.Context, id string) (*Article, error) {
	u := fmt.Sprintf("%s/query?id_list=%s&max_results=1", c.baseURL, url.QueryEscape(id))
	body, err := c.req.Get(ctx, name, u, "application/atom+xml")
	if err != nil {
		return nil, fmt.Errorf("arxiv %s: %w", id, err)
	}

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("arxiv %s: %w: %v", id, provider.ErrInvalidResponse, err)
	}
	for _, e := range f.Entries {
		// the API reports bad ids as an entry whose id points at its error docs
		if strings.Contains(e.ID, "/api/errors") || strings.TrimSpace(e.Title) == "Error" {
			continue
		}
		a := e.article(id)
		return &a, nil
	}
	return nil, fmt.Errorf("arxiv %s: %w", id, provider.ErrNotFound)
}

// Article is the metadata of one arXiv submission.
type Article struct {
	ID              string
	Title           string
	Authors         []string
	Abstract        string
	Published       time.Time
	DOI             string
	JournalRef      string
	PrimaryCategory string
	PDFLink         string
}

// Entry builds a BibTeX entry for the article. The citation key is the
// arXiv id; callers replace it.
func (a *Article) Entry() bibtex.Entry {
	e := bibtex.Entry{Type: "article", Key: a.ID}
	if len(a.Authors) > 0 {
		e.Set("author", strings.Join(a.Authors, " and "))
	}
	e.Set("title", bibtex.Escape(a.Title))
	e.Set("journal", "arXiv preprint arXiv:"+a.ID)
	e.Set("eprint", a.ID)
	e.Set("archiveprefix", "arXiv")
	if a.PrimaryCategory != "" {
		e.Set("primaryclass", a.PrimaryCategory)
	}
	if !a.Published.IsZero() {
		e.Set("year", fmt.Sprintf("%d", a.Published.Year()))
		e.SetRaw("month", strings.ToLower(a.Published.Month().String()[:3]))
	}
	if a.DOI != "" {
		e.Set("doi", a.DOI)
	}
	e.Set("url", fmt.Sprintf("%s/%s", AbsBaseURL, a.ID))
	if a.Abstract != "" {
		e.Set("abstract", bibtex.Escape(a.Abstract))
	}
	return e
}

type feed struct {
	Entries []entry `xml:"http://www.w3.org/2005/Atom entry"`
}

type entry struct {
	ID              string        `xml:"http://www.w3.org/2005/Atom id"`
	Title           string        `xml:"http://www.w3.org/2005/Atom title"`
	Summary         string        `xml:"http://www.w3.org/2005/Atom summary"`
	Published       string        `xml:"http://www.w3.org/2005/Atom published"`
	Authors         []entryAuthor `xml:"http://www.w3.org/2005/Atom author"`
	Links           []entryLink   `xml:"http://www.w3.org/2005/Atom link"`
	DOI             string        `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef      string        `xml:"http://arxiv.org/schemas/atom journal_ref"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"http://arxiv.org/schemas/atom primary_category"`
}

type entryAuthor struct {
	Name string `xml:"http://www.w3.org/2005/Atom name"`
}

type entryLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (e entry) article(requested string) Article {
	a := Article{
		ID:              requested,
		Title:           collapse(e.Title),
		Abstract:        collapse(e.Summary),
		DOI:             strings.TrimSpace(e.DOI),
		JournalRef:      collapse(e.JournalRef),
		PrimaryCategory: strings.TrimSpace(e.PrimaryCategory.Term),
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		a.Published = t
	}
	for _, au := range e.Authors {
		if n := collapse(au.Name); n != "" {
			a.Authors = append(a.Authors, n)
		}
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			a.PDFLink = l.Href
			break
		}
	}
	return a
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
