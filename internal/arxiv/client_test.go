package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.com/matsen/refman/internal/provider"
)

const bronsteinFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title type="html">ArXiv Query: id_list=2104.13478</title>
  <entry>
    <id>http://arxiv.org/abs/2104.13478v2</id>
    <updated>2021-05-02T16:12:10Z</updated>
    <published>2021-04-27T21:09:51Z</published>
    <title>Geometric Deep Learning: Grids, Groups, Graphs,
  Geodesics, and Gauges</title>
    <summary>  The last decade has witnessed an experimental revolution in data science
and machine learning.
</summary>
    <author><name>Michael M. Bronstein</name></author>
    <author><name>Joan Bruna</name></author>
    <author><name>Taco Cohen</name></author>
    <author><name>Petar Veličković</name></author>
    <link href="http://arxiv.org/abs/2104.13478v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2104.13478v2" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const errorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_9999.xxxxx</id>
    <title>Error</title>
    <summary>incorrect id format for 9999.xxxxx</summary>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>empty</title></feed>`

func newTestClient(t *testing.T, body string) (*Client, *string) {
	t.Helper()
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("id_list")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	req := provider.NewRequester(provider.WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	return NewClient(req, WithBaseURL(srv.URL)), &query
}

func TestLookup(t *testing.T) {
	c, query := newTestClient(t, bronsteinFeed)

	a, err := c.Lookup(context.Background(), "2104.13478")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if *query != "2104.13478" {
		t.Errorf("id_list = %q", *query)
	}
	if a.Title != "Geometric Deep Learning: Grids, Groups, Graphs, Geodesics, and Gauges" {
		t.Errorf("Title = %q", a.Title)
	}
	if len(a.Authors) != 4 || a.Authors[3] != "Petar Veličković" {
		t.Errorf("Authors = %q", a.Authors)
	}
	if a.Published.Year() != 2021 {
		t.Errorf("Published = %v", a.Published)
	}
	if a.PrimaryCategory != "cs.LG" {
		t.Errorf("PrimaryCategory = %q", a.PrimaryCategory)
	}
	if a.PDFLink != "http://arxiv.org/pdf/2104.13478v2" {
		t.Errorf("PDFLink = %q", a.PDFLink)
	}
	if !strings.HasPrefix(a.Abstract, "The last decade") {
		t.Errorf("Abstract = %q", a.Abstract)
	}
}

func TestLookup_NotFound(t *testing.T) {
	for name, body := range map[string]string{"error entry": errorFeed, "empty feed": emptyFeed} {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, body)
			_, err := c.Lookup(context.Background(), "9999.xxxxx")
			if !provider.IsNotFound(err) {
				t.Errorf("Lookup() error = %v, want not found", err)
			}
		})
	}
}

func TestArticleEntry(t *testing.T) {
	c, _ := newTestClient(t, bronsteinFeed)
	a, err := c.Lookup(context.Background(), "2104.13478")
	if err != nil {
		t.Fatal(err)
	}
	e := a.Entry()

	checks := map[string]string{
		"author":        "Michael M. Bronstein and Joan Bruna and Taco Cohen and Petar Veličković",
		"eprint":        "2104.13478",
		"archiveprefix": "arXiv",
		"primaryclass":  "cs.LG",
		"year":          "2021",
		"month":         "apr",
		"url":           "https://arxiv.org/abs/2104.13478",
		"journal":       "arXiv preprint arXiv:2104.13478",
	}
	for field, want := range checks {
		if got := e.Get(field); got != want {
			t.Errorf("Get(%s) = %q, want %q", field, got, want)
		}
	}
	if e.Type != "article" {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Has("doi") {
		t.Error("unexpected doi field")
	}
}

func TestPDFURL(t *testing.T) {
	if got := PDFURL("2104.13478"); got != "https://arxiv.org/pdf/2104.13478.pdf" {
		t.Errorf("PDFURL() = %q", got)
	}
	if got := PDFURL("math.GT/0309136"); got != "https://arxiv.org/pdf/math.GT/0309136.pdf" {
		t.Errorf("PDFURL() = %q", got)
	}
}
