package duplicates

import "time"

type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchSimilar MatchType = "similar"
)

const (
	MessageExact        = "A file with this exact name already exists in this location."
	MessageSimilar      = "A file with a similar name already exists in this location."
	MessageMissingInput = "fileName and clientId are required to check for duplicates."
	MessageCheckFailed  = "Duplicate check could not be completed; continuing without it."
)

// Candidate is an existing document that matched the proposed file name.
type Candidate struct {
	DocumentID string     `json:"documentId"`
	FileName   string     `json:"fileName"`
	MatchType  MatchType  `json:"matchType"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
	Folder     string     `json:"folder,omitempty"`
}

// Report is the advisory outcome of a duplicate check. Duplicates keep the
// order in which the store returned the scope.
type Report struct {
	IsDuplicate     bool        `json:"isDuplicate"`
	HasExactMatch   bool        `json:"hasExactMatch"`
	HasSimilarMatch bool        `json:"hasSimilarMatch"`
	Duplicates      []Candidate `json:"duplicates"`
	Message         *string     `json:"message"`
	Error           string      `json:"error,omitempty"`
}

func emptyReport() Report {
	return Report{Duplicates: []Candidate{}}
}

func (r *Report) add(c Candidate) {
	r.Duplicates = append(r.Duplicates, c)
	r.IsDuplicate = true
	switch c.MatchType {
	case MatchExact:
		r.HasExactMatch = true
	case MatchSimilar:
		r.HasSimilarMatch = true
	}
}

func (r *Report) finish() {
	var msg string
	switch {
	case r.HasExactMatch:
		msg = MessageExact
	case r.HasSimilarMatch:
		msg = MessageSimilar
	default:
		r.Message = nil
		return
	}
	r.Message = &msg
}
