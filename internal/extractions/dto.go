package extractions

import (
	"encoding/json"
	"time"
)

// ExtractionResponse is the outward-facing representation of an extraction.
type ExtractionResponse struct {
	ID             string          `json:"id"`
	DocumentID     string          `json:"documentId"`
	ProjectID      *string         `json:"projectId"`
	ExtractedData  json.RawMessage `json:"extractedData"`
	ExtractedAt    time.Time       `json:"extractedAt"`
	Version        int             `json:"version"`
	SourceFileName string          `json:"sourceFileName"`
}

type createExtractionRequest struct {
	ProjectID      string          `json:"projectId"`
	ExtractedData  json.RawMessage `json:"extractedData"`
	SourceFileName string          `json:"sourceFileName"`
}

func toResponse(ext Extraction) ExtractionResponse {
	resp := ExtractionResponse{
		ID:             ext.ID,
		DocumentID:     ext.DocumentID,
		ExtractedData:  ext.ExtractedData,
		ExtractedAt:    ext.ExtractedAt,
		Version:        ext.Version,
		SourceFileName: ext.SourceFileName,
	}
	if ext.ProjectID != "" {
		projectID := ext.ProjectID
		resp.ProjectID = &projectID
	}
	return resp
}

func toResponses(list []Extraction) []ExtractionResponse {
	out := make([]ExtractionResponse, 0, len(list))
	for _, ext := range list {
		out = append(out, toResponse(ext))
	}
	return out
}
