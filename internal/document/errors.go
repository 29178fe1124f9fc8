package document

import (
	"fmt"
	"strings"
)

// Attempt records one failed document source.
type Attempt struct {
	Source   string `json:"source"`
	Location string `json:"location"`
	Err      string `json:"error"`
}

// FetchFailure reports that no source produced a valid document. It is a
// warning: the Record is stored without a document.
type FetchFailure struct {
	Key      string
	Attempts []Attempt
}

func (e *FetchFailure) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no document source available for %s", e.Key)
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s (%s): %s", a.Source, a.Location, a.Err)
	}
	return fmt.Sprintf("no document for %s: %s", e.Key, strings.Join(parts, "; "))
}
