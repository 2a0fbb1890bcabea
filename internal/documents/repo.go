package documents

import "context"

// DocumentsRepo defines persistence operations for documents. The list
// methods never return soft-deleted rows.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	SoftDelete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID string) ([]Document, error)
	ListClientLevel(ctx context.Context, clientID string) ([]Document, error)
}
