package documents

import "time"

// Document is the metadata of an uploaded file. ProjectID is empty for
// client-level documents.
type Document struct {
	ID               string
	ClientID         string
	ProjectID        string
	OriginalFileName string
	Name             string
	FolderType       string
	IsDeleted        bool
	CreatedAt        time.Time
	DeletedAt        *time.Time
}

// FileName is the name used for matching: the original upload name, or the
// display name when the original is missing.
func (d Document) FileName() string {
	if d.OriginalFileName != "" {
		return d.OriginalFileName
	}
	return d.Name
}
