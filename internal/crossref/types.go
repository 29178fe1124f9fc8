package crossref

import "strings"

type workResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is the subset of a Crossref citeproc record used here.
type Work struct {
	DOI            string    `json:"DOI"`
	Type           string    `json:"type"`
	Title          []string  `json:"title"`
	ContainerTitle []string  `json:"container-title"`
	Author         []Person  `json:"author"`
	Issued         DateParts `json:"issued"`
	URL            string    `json:"URL"`
	Link           []Link    `json:"link"`
	Publisher      string    `json:"publisher"`
}

// Person is a work contributor.
type Person struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"` // organisations
}

// DateParts is a citeproc date, e.g. {"date-parts": [[2018, 3, 7]]}.
type DateParts struct {
	Parts [][]int `json:"date-parts"`
}

// Year returns the first date part, or 0.
func (d DateParts) Year() int {
	if len(d.Parts) > 0 && len(d.Parts[0]) > 0 {
		return d.Parts[0][0]
	}
	return 0
}

// Link is a full-text link advertised by the publisher.
type Link struct {
	URL                 string `json:"URL"`
	ContentType         string `json:"content-type"`
	ContentVersion      string `json:"content-version"`
	IntendedApplication string `json:"intended-application"`
}

// PDFLinks returns the advertised links whose content type is PDF, with
// links meant for similarity checking last.
func (w *Work) PDFLinks() []string {
	var primary, other []string
	for _, l := range w.Link {
		if l.URL == "" || !strings.EqualFold(l.ContentType, "application/pdf") {
			continue
		}
		if l.IntendedApplication == "similarity-checking" {
			other = append(other, l.URL)
		} else {
			primary = append(primary, l.URL)
		}
	}
	return append(primary, other...)
}
