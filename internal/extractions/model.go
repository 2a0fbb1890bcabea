package extractions

import (
	"encoding/json"
	"time"
)

// Extraction is one versioned snapshot of structured data pulled from a
// document. Versions start at 1 and are assigned in creation order per
// document; the latest extraction is the one with the highest version.
type Extraction struct {
	ID             string
	DocumentID     string
	ProjectID      string
	ExtractedData  json.RawMessage
	ExtractedAt    time.Time
	Version        int
	SourceFileName string
}

// CreateInput carries the caller-supplied fields of a new extraction.
// Version and ExtractedAt are always assigned by the ledger.
type CreateInput struct {
	DocumentID     string
	ProjectID      string
	ExtractedData  json.RawMessage
	SourceFileName string
}

// Changes is a validated patch ready for the repository. Nil fields are
// left untouched.
type Changes struct {
	ExtractedData  *json.RawMessage
	SourceFileName *string
}

func (c Changes) empty() bool {
	return c.ExtractedData == nil && c.SourceFileName == nil
}
