package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, client_id, project_id, original_file_name, name, folder_type, is_deleted, created_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    client_id,
    project_id,
    original_file_name,
    name,
    folder_type,
    is_deleted,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.ClientID,
		nullString(doc.ProjectID),
		doc.OriginalFileName,
		nullString(doc.Name),
		nullString(doc.FolderType),
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a live document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1 AND is_deleted = FALSE
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// SoftDelete flags a document as deleted. Deleting an already deleted
// document reports ErrNotFound.
func (r *PGRepo) SoftDelete(ctx context.Context, id string) error {
	const query = `
UPDATE documents
SET is_deleted = TRUE, deleted_at = $1
WHERE id = $2 AND is_deleted = FALSE`
	res, err := r.DB.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByProject returns every live document of a project, oldest first.
func (r *PGRepo) ListByProject(ctx context.Context, projectID string) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE project_id = $1 AND is_deleted = FALSE
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, projectID)
}

// ListClientLevel returns the client's live documents that belong to no project.
func (r *PGRepo) ListClientLevel(ctx context.Context, clientID string) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE client_id = $1 AND project_id IS NULL AND is_deleted = FALSE
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, clientID)
}

func (r *PGRepo) list(ctx context.Context, query string, arg string) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var projectID sql.NullString
	var name sql.NullString
	var folderType sql.NullString
	var deletedAt sql.NullTime
	if err := row.Scan(
		&doc.ID,
		&doc.ClientID,
		&projectID,
		&doc.OriginalFileName,
		&name,
		&folderType,
		&doc.IsDeleted,
		&doc.CreatedAt,
		&deletedAt,
	); err != nil {
		return Document{}, err
	}
	doc.ProjectID = projectID.String
	doc.Name = name.String
	doc.FolderType = folderType.String
	if deletedAt.Valid {
		doc.DeletedAt = &deletedAt.Time
	}
	return doc, nil
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

var _ DocumentsRepo = (*PGRepo)(nil)
