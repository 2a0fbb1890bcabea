package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID       string    `json:"documentId"`
	ClientID         string    `json:"clientId"`
	ProjectID        *string   `json:"projectId"`
	OriginalFileName string    `json:"originalFileName"`
	Name             string    `json:"name,omitempty"`
	FolderType       string    `json:"folderType,omitempty"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

type createDocumentRequest struct {
	ClientID         string `json:"clientId"`
	ProjectID        string `json:"projectId"`
	OriginalFileName string `json:"originalFileName"`
	Name             string `json:"name"`
	FolderType       string `json:"folderType"`
}

func toResponse(doc Document) DocumentResponse {
	resp := DocumentResponse{
		DocumentID:       doc.ID,
		ClientID:         doc.ClientID,
		OriginalFileName: doc.OriginalFileName,
		Name:             doc.Name,
		FolderType:       doc.FolderType,
		UploadedAt:       doc.CreatedAt,
	}
	if doc.ProjectID != "" {
		projectID := doc.ProjectID
		resp.ProjectID = &projectID
	}
	return resp
}
