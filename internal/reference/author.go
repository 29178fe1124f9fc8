package reference

import "github.com/matsen/refman/internal/bibtex"

// Author is one name from an entry's author field, in plain text.
type Author struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last"`
}

// String renders the author as "Last, First".
func (a Author) String() string {
	return bibtex.FormatName(bibtex.Name{First: a.First, Last: a.Last})
}

// ParseAuthors converts a BibTeX author field to plain-text authors.
func ParseAuthors(field string) []Author {
	names := bibtex.SplitAuthors(field)
	if len(names) == 0 {
		return nil
	}
	authors := make([]Author, 0, len(names))
	for _, n := range names {
		parsed := bibtex.ParseName(n)
		authors = append(authors, Author{
			First: bibtex.PlainText(parsed.First),
			Last:  bibtex.PlainText(parsed.Last),
		})
	}
	return authors
}
