// Package pubmed maps PubMed IDs to DOIs and, failing that, to a BibTeX
// entry built from the PubMed summary.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/matsen/refman/internal/bibtex"
	"github.com/matsen/refman/internal/provider"
)

const (
	// IDConvURL is the NCBI PMC ID converter endpoint.
	IDConvURL = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"

	// EUtilsURL is the NCBI E-utilities base URL.
	EUtilsURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// ArticleBaseURL serves article pages as <ArticleBaseURL>/<pmid>/.
	ArticleBaseURL = "https://pubmed.ncbi.nlm.nih.gov"

	name = "pubmed"
	tool = "refman"
)

// Client talks to the NCBI services.
type Client struct {
	req       *provider.Requester
	idconvURL string
	eutilsURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithIDConvURL sets a custom ID converter endpoint (for testing).
func WithIDConvURL(u string) ClientOption {
	return func(c *Client) {
		c.idconvURL = u
	}
}

// WithEUtilsURL sets a custom E-utilities base URL (for testing).
func WithEUtilsURL(u string) ClientOption {
	return func(c *Client) {
		c.eutilsURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates a PubMed client on top of req.
func NewClient(req *provider.Requester, opts ...ClientOption) *Client {
	c := &Client{req: req, idconvURL: IDConvURL, eutilsURL: EUtilsURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is what is known about a PMID. Summary is only fetched when the
// ID converter has no DOI.
type Result struct {
	PMID    string
	PMCID   string
	DOI     string
	Summary *Summary
}

// Lookup resolves a PMID to a DOI, falling back to the PubMed summary.
func (c *Client) Lookup(ctx context.Context, pmid string) (*Result, error) {
	res := &Result{PMID: pmid}

	rec, err := c.convert(ctx, pmid)
	switch {
	case err == nil:
		res.PMCID = rec.PMCID
		res.DOI = rec.DOI
	case provider.IsNotFound(err):
		// not every PubMed article is in PMC
	default:
		return nil, err
	}
	if res.DOI != "" {
		return res, nil
	}

	sum, err := c.Summary(ctx, pmid)
	if err != nil {
		return nil, err
	}
	res.Summary = sum
	res.DOI = sum.DOI()
	return res, nil
}

type idconvResponse struct {
	Status  string         `json:"status"`
	Records []idconvRecord `json:"records"`
}

type idconvRecord struct {
	PMID   string `json:"pmid"`
	PMCID  string `json:"pmcid"`
	DOI    string `json:"doi"`
	Status string `json:"status"`
	ErrMsg string `json:"errmsg"`
}

func (c *Client) convert(ctx context.Context, pmid string) (*idconvRecord, error) {
	q := url.Values{}
	q.Set("ids", pmid)
	q.Set("format", "json")
	q.Set("tool", tool)
	body, err := c.req.Get(ctx, name, c.idconvURL+"?"+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("pubmed idconv %s: %w", pmid, err)
	}

	var resp idconvResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("pubmed idconv %s: %w: %v", pmid, provider.ErrInvalidResponse, err)
	}
	for _, r := range resp.Records {
		if r.Status == "error" {
			continue
		}
		return &r, nil
	}
	return nil, fmt.Errorf("pubmed idconv %s: %w", pmid, provider.ErrNotFound)
}

// Summary fetches the PubMed document summary of pmid.
func (c *Client) Summary(ctx context.Context, pmid string) (*Summary, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", pmid)
	q.Set("retmode", "json")
	q.Set("tool", tool)
	body, err := c.req.Get(ctx, name, c.eutilsURL+"/esummary.fcgi?"+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("pubmed esummary %s: %w", pmid, err)
	}

	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("pubmed esummary %s: %w: %v", pmid, provider.ErrInvalidResponse, err)
	}
	raw, ok := resp.Result[pmid]
	if !ok {
		return nil, fmt.Errorf("pubmed esummary %s: %w", pmid, provider.ErrNotFound)
	}
	var sum Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return nil, fmt.Errorf("pubmed esummary %s: %w: %v", pmid, provider.ErrInvalidResponse, err)
	}
	if sum.Error != "" || sum.Title == "" {
		return nil, fmt.Errorf("pubmed esummary %s: %w", pmid, provider.ErrNotFound)
	}
	return &sum, nil
}

// Summary is the subset of an esummary document used here.
type Summary struct {
	UID             string      `json:"uid"`
	Title           string      `json:"title"`
	PubDate         string      `json:"pubdate"`
	Source          string      `json:"source"`
	FullJournalName string      `json:"fulljournalname"`
	Volume          string      `json:"volume"`
	Issue           string      `json:"issue"`
	Pages           string      `json:"pages"`
	Authors         []Author    `json:"authors"`
	ArticleIDs      []ArticleID `json:"articleids"`
	Error           string      `json:"error"`
}

// Author is a summary author, named "Surname Initials".
type Author struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

// ArticleID is one of the identifiers listed for an article.
type ArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

// DOI returns the article's DOI, or "".
func (s *Summary) DOI() string {
	for _, id := range s.ArticleIDs {
		if id.IDType == "doi" {
			return strings.TrimSpace(id.Value)
		}
	}
	return ""
}

// Entry builds a BibTeX entry from the summary. The citation key is the
// PMID; callers replace it.
func (s *Summary) Entry() bibtex.Entry {
	e := bibtex.Entry{Type: "article", Key: s.UID}
	var authors []string
	for _, a := range s.Authors {
		if a.AuthType != "" && a.AuthType != "Author" {
			continue
		}
		authors = append(authors, authorName(a.Name))
	}
	if len(authors) > 0 {
		e.Set("author", strings.Join(authors, " and "))
	}
	e.Set("title", bibtex.Escape(strings.TrimSuffix(strings.TrimSpace(s.Title), ".")))
	journal := s.FullJournalName
	if journal == "" {
		journal = s.Source
	}
	if journal != "" {
		e.Set("journal", bibtex.Escape(journal))
	}
	if y := leadingYear(s.PubDate); y != "" {
		e.Set("year", y)
	}
	if s.Volume != "" {
		e.Set("volume", s.Volume)
	}
	if s.Issue != "" {
		e.Set("number", s.Issue)
	}
	if s.Pages != "" {
		e.Set("pages", strings.ReplaceAll(s.Pages, "-", "--"))
	}
	if doi := s.DOI(); doi != "" {
		e.Set("doi", doi)
	}
	e.Set("pmid", s.UID)
	e.Set("url", fmt.Sprintf("%s/%s/", ArticleBaseURL, s.UID))
	return e
}

// authorName turns "Wasserman L" into "Wasserman, L.".
func authorName(n string) string {
	fields := strings.Fields(n)
	if len(fields) < 2 {
		return n
	}
	initials := fields[len(fields)-1]
	if strings.ToUpper(initials) != initials || len(initials) > 3 {
		return n
	}
	var first []string
	for _, r := range initials {
		first = append(first, string(r)+".")
	}
	return strings.Join(fields[:len(fields)-1], " ") + ", " + strings.Join(first, " ")
}

func leadingYear(date string) string {
	if len(date) >= 4 {
		y := date[:4]
		for _, r := range y {
			if r < '0' || r > '9' {
				return ""
			}
		}
		return y
	}
	return ""
}
