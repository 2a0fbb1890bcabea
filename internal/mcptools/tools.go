// Package mcptools exposes duplicate checks and extraction lookups as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"dealdocs-backend/internal/duplicates"
	"dealdocs-backend/internal/extractions"
)

// MetadataCheckDuplicates describes the check_duplicates tool.
var MetadataCheckDuplicates = &mcp.Tool{
	Name: "check_duplicates",
	Description: "Check whether proposed file names duplicate documents already filed for a client or project. " +
		"Matching is by file name only: an exact match is the same name ignoring case and surrounding space, " +
		"a similar match shares the name without its extension. The result is advisory.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"file_names", "client_id"},
		"properties": map[string]interface{}{
			"file_names": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "File names to check",
			},
			"client_id": map[string]interface{}{
				"type":        "string",
				"description": "Client that owns the documents",
			},
			"project_id": map[string]interface{}{
				"type":        "string",
				"description": "Project to check within. When omitted only client-level documents are compared.",
			},
		},
	},
}

// MetadataListExtractions describes the list_extractions tool.
var MetadataListExtractions = &mcp.Tool{
	Name:        "list_extractions",
	Description: "List the extraction versions of a document, highest version first, or of a project, newest first.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"document_id": map[string]interface{}{
				"type":        "string",
				"description": "Document whose versions to list",
			},
			"project_id": map[string]interface{}{
				"type":        "string",
				"description": "Project whose extractions to list; used when document_id is empty",
			},
		},
	},
}

// MetadataLatestExtraction describes the latest_extraction tool.
var MetadataLatestExtraction = &mcp.Tool{
	Name:        "latest_extraction",
	Description: "Return the highest-version extraction of a document, if any.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"document_id"},
		"properties": map[string]interface{}{
			"document_id": map[string]interface{}{
				"type":        "string",
				"description": "Document to look up",
			},
		},
	},
}

type InputCheckDuplicates struct {
	FileNames []string `json:"file_names"`
	ClientID  string   `json:"client_id"`
	ProjectID string   `json:"project_id"`
}

type OutputCheckDuplicates struct {
	Reports []Report `json:"reports"`
}

// Report mirrors duplicates.Report with plain strings for timestamps.
type Report struct {
	FileName        string      `json:"file_name"`
	IsDuplicate     bool        `json:"is_duplicate"`
	HasExactMatch   bool        `json:"has_exact_match"`
	HasSimilarMatch bool        `json:"has_similar_match"`
	Duplicates      []Candidate `json:"duplicates"`
	Message         string      `json:"message,omitempty"`
	Error           string      `json:"error,omitempty"`
}

type Candidate struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	MatchType  string `json:"match_type"`
	UploadedAt string `json:"uploaded_at,omitempty"`
	Folder     string `json:"folder,omitempty"`
}

type InputListExtractions struct {
	DocumentID string `json:"document_id"`
	ProjectID  string `json:"project_id"`
}

type OutputListExtractions struct {
	Extractions []Extraction `json:"extractions"`
}

type InputLatestExtraction struct {
	DocumentID string `json:"document_id"`
}

type OutputLatestExtraction struct {
	Found      bool        `json:"found"`
	Extraction *Extraction `json:"extraction,omitempty"`
}

type Extraction struct {
	ID             string `json:"id"`
	DocumentID     string `json:"document_id"`
	ProjectID      string `json:"project_id,omitempty"`
	Version        int    `json:"version"`
	ExtractedAt    string `json:"extracted_at"`
	SourceFileName string `json:"source_file_name,omitempty"`
	ExtractedData  any    `json:"extracted_data"`
}

// Toolset binds the tool handlers to the services they call.
type Toolset struct {
	Duplicates  *duplicates.Service
	Extractions *extractions.Service
}

// NewServer returns an MCP server with every tool registered.
func NewServer(version string, tools *Toolset) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "dealdocs", Version: version}, nil)
	mcp.AddTool(server, MetadataCheckDuplicates, tools.CheckDuplicates)
	mcp.AddTool(server, MetadataListExtractions, tools.ListExtractions)
	mcp.AddTool(server, MetadataLatestExtraction, tools.LatestExtraction)
	return server
}

// CheckDuplicates runs the advisory duplicate check for each file name.
func (t *Toolset) CheckDuplicates(ctx context.Context, _ *mcp.CallToolRequest, input InputCheckDuplicates) (*mcp.CallToolResult, OutputCheckDuplicates, error) {
	if len(input.FileNames) == 0 {
		return nil, OutputCheckDuplicates{}, fmt.Errorf("file_names is required")
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, OutputCheckDuplicates{}, fmt.Errorf("client_id is required")
	}

	reports := t.Duplicates.CheckBatch(ctx, input.FileNames, input.ClientID, input.ProjectID)
	out := OutputCheckDuplicates{Reports: make([]Report, 0, len(reports))}
	for i, r := range reports {
		out.Reports = append(out.Reports, toReport(input.FileNames[i], r))
	}
	return nil, out, nil
}

// ListExtractions lists by document when document_id is set, otherwise by project.
func (t *Toolset) ListExtractions(ctx context.Context, _ *mcp.CallToolRequest, input InputListExtractions) (*mcp.CallToolResult, OutputListExtractions, error) {
	var (
		list []extractions.Extraction
		err  error
	)
	switch {
	case strings.TrimSpace(input.DocumentID) != "":
		list, err = t.Extractions.ListByDocument(ctx, input.DocumentID)
	case strings.TrimSpace(input.ProjectID) != "":
		list, err = t.Extractions.ListByProject(ctx, input.ProjectID)
	default:
		return nil, OutputListExtractions{}, fmt.Errorf("document_id or project_id is required")
	}
	if err != nil {
		return nil, OutputListExtractions{}, err
	}

	out := OutputListExtractions{Extractions: make([]Extraction, 0, len(list))}
	for _, ext := range list {
		out.Extractions = append(out.Extractions, toExtraction(ext))
	}
	return nil, out, nil
}

// LatestExtraction returns the highest version for a document.
func (t *Toolset) LatestExtraction(ctx context.Context, _ *mcp.CallToolRequest, input InputLatestExtraction) (*mcp.CallToolResult, OutputLatestExtraction, error) {
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, OutputLatestExtraction{}, fmt.Errorf("document_id is required")
	}
	latest, err := t.Extractions.GetLatestByDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, OutputLatestExtraction{}, err
	}
	if latest == nil {
		return nil, OutputLatestExtraction{Found: false}, nil
	}
	ext := toExtraction(*latest)
	return nil, OutputLatestExtraction{Found: true, Extraction: &ext}, nil
}

func toReport(fileName string, r duplicates.Report) Report {
	out := Report{
		FileName:        fileName,
		IsDuplicate:     r.IsDuplicate,
		HasExactMatch:   r.HasExactMatch,
		HasSimilarMatch: r.HasSimilarMatch,
		Duplicates:      make([]Candidate, 0, len(r.Duplicates)),
		Error:           r.Error,
	}
	if r.Message != nil {
		out.Message = *r.Message
	}
	for _, c := range r.Duplicates {
		cand := Candidate{
			DocumentID: c.DocumentID,
			FileName:   c.FileName,
			MatchType:  string(c.MatchType),
			Folder:     c.Folder,
		}
		if c.UploadedAt != nil {
			cand.UploadedAt = c.UploadedAt.UTC().Format(time.RFC3339)
		}
		out.Duplicates = append(out.Duplicates, cand)
	}
	return out
}

func toExtraction(ext extractions.Extraction) Extraction {
	var data any
	if err := json.Unmarshal(ext.ExtractedData, &data); err != nil {
		data = string(ext.ExtractedData)
	}
	return Extraction{
		ID:             ext.ID,
		DocumentID:     ext.DocumentID,
		ProjectID:      ext.ProjectID,
		Version:        ext.Version,
		ExtractedAt:    ext.ExtractedAt.UTC().Format(time.RFC3339),
		SourceFileName: ext.SourceFileName,
		ExtractedData:  data,
	}
}
