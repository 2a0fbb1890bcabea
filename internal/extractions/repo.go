package extractions

import "context"

// ExtractionsRepo defines persistence operations for extractions.
type ExtractionsRepo interface {
	GetByID(ctx context.Context, id string) (Extraction, error)
	// ListByDocument orders by version, highest first.
	ListByDocument(ctx context.Context, documentID string) ([]Extraction, error)
	// GetLatestByDocument returns nil when the document has no extractions.
	GetLatestByDocument(ctx context.Context, documentID string) (*Extraction, error)
	// ListByProject orders by extractedAt, newest first.
	ListByProject(ctx context.Context, projectID string) ([]Extraction, error)
	// CreateNextVersion stores ext with version max+1 for its document. The
	// read of the current maximum and the insert happen under one
	// per-document lock. ext.Version is ignored.
	CreateNextVersion(ctx context.Context, ext Extraction) (Extraction, error)
	Update(ctx context.Context, id string, changes Changes) (Extraction, error)
	// Delete reports whether a row was removed. With renumber set, every
	// higher version of the same document shifts down by one.
	Delete(ctx context.Context, id string, renumber bool) (bool, error)
}
