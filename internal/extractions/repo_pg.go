package extractions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dealdocs-backend/internal/shared/storage/db"
)

// PGRepo implements ExtractionsRepo using Postgres. Version allocation is
// serialized per document with a transaction-scoped advisory lock.
type PGRepo struct {
	DB *sql.DB
}

// primaryKeyConstraint is the Postgres default name of the id primary key.
const primaryKeyConstraint = "document_extractions_pkey"

const extractionColumns = `id, document_id, project_id, extracted_data, extracted_at, version, source_file_name`

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LockName is the per-document lock guarding version allocation.
func LockName(documentID string) string {
	return "extraction:" + documentID
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Extraction, error) {
	return getByID(ctx, r.DB, id)
}

func getByID(ctx context.Context, q queryer, id string) (Extraction, error) {
	query := `SELECT ` + extractionColumns + ` FROM document_extractions WHERE id = $1`
	ext, err := scanExtraction(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Extraction{}, ErrNotFound
		}
		return Extraction{}, classify(err)
	}
	return ext, nil
}

func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Extraction, error) {
	query := `
SELECT ` + extractionColumns + `
FROM document_extractions
WHERE document_id = $1
ORDER BY version DESC`
	return r.list(ctx, query, documentID)
}

func (r *PGRepo) GetLatestByDocument(ctx context.Context, documentID string) (*Extraction, error) {
	query := `
SELECT ` + extractionColumns + `
FROM document_extractions
WHERE document_id = $1
ORDER BY version DESC
LIMIT 1`
	ext, err := scanExtraction(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &ext, nil
}

func (r *PGRepo) ListByProject(ctx context.Context, projectID string) ([]Extraction, error) {
	query := `
SELECT ` + extractionColumns + `
FROM document_extractions
WHERE project_id = $1
ORDER BY extracted_at DESC, version DESC`
	return r.list(ctx, query, projectID)
}

// CreateNextVersion locks the document, reads its highest version and
// inserts the next one in a single transaction.
func (r *PGRepo) CreateNextVersion(ctx context.Context, ext Extraction) (Extraction, error) {
	err := db.InTx(ctx, r.DB, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, db.AdvisoryKey(LockName(ext.DocumentID))); err != nil {
			return err
		}

		var current int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version), 0) FROM document_extractions WHERE document_id = $1`,
			ext.DocumentID,
		).Scan(&current); err != nil {
			return err
		}
		ext.Version = current + 1

		const insert = `
INSERT INTO document_extractions (
    id,
    document_id,
    project_id,
    extracted_data,
    extracted_at,
    version,
    source_file_name
) VALUES ($1, $2, $3, $4, $5, $6, $7)`
		_, err := tx.ExecContext(ctx, insert,
			ext.ID,
			ext.DocumentID,
			nullString(ext.ProjectID),
			[]byte(ext.ExtractedData),
			ext.ExtractedAt,
			ext.Version,
			ext.SourceFileName,
		)
		return err
	})
	if err != nil {
		// A retry after a commit whose acknowledgement was lost collides with
		// its own row.
		if db.IsUniqueViolationOn(err, primaryKeyConstraint) {
			if stored, gerr := r.GetByID(ctx, ext.ID); gerr == nil && stored.DocumentID == ext.DocumentID {
				return stored, nil
			}
		}
		return Extraction{}, classify(err)
	}
	return ext, nil
}

func (r *PGRepo) Update(ctx context.Context, id string, changes Changes) (Extraction, error) {
	if changes.empty() {
		return r.GetByID(ctx, id)
	}

	var data sql.NullString
	if changes.ExtractedData != nil {
		data = sql.NullString{String: string(*changes.ExtractedData), Valid: true}
	}
	var sourceName sql.NullString
	if changes.SourceFileName != nil {
		sourceName = sql.NullString{String: *changes.SourceFileName, Valid: true}
	}

	query := `
UPDATE document_extractions
SET extracted_data = COALESCE($2::json, extracted_data),
    source_file_name = COALESCE($3, source_file_name)
WHERE id = $1
RETURNING ` + extractionColumns
	ext, err := scanExtraction(r.DB.QueryRowContext(ctx, query, id, data, sourceName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Extraction{}, ErrNotFound
		}
		return Extraction{}, classify(err)
	}
	return ext, nil
}

func (r *PGRepo) Delete(ctx context.Context, id string, renumber bool) (bool, error) {
	if !renumber {
		res, err := r.DB.ExecContext(ctx, `DELETE FROM document_extractions WHERE id = $1`, id)
		if err != nil {
			return false, classify(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return affected > 0, nil
	}

	deleted := false
	err := db.InTx(ctx, r.DB, nil, func(tx *sql.Tx) error {
		var documentID string
		err := tx.QueryRowContext(ctx, `SELECT document_id FROM document_extractions WHERE id = $1`, id).Scan(&documentID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		// Same lock as CreateNextVersion, so a create never observes a half-shifted sequence.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, db.AdvisoryKey(LockName(documentID))); err != nil {
			return err
		}

		var version int
		err = tx.QueryRowContext(ctx, `DELETE FROM document_extractions WHERE id = $1 RETURNING version`, id).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE document_extractions SET version = version - 1 WHERE document_id = $1 AND version > $2`,
			documentID, version,
		); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, classify(err)
	}
	return deleted, nil
}

func (r *PGRepo) list(ctx context.Context, query string, arg string) ([]Extraction, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []Extraction{}
	for rows.Next() {
		ext, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, rows.Err()
}

func scanExtraction(row rowScanner) (Extraction, error) {
	var ext Extraction
	var projectID sql.NullString
	var data []byte
	if err := row.Scan(
		&ext.ID,
		&ext.DocumentID,
		&projectID,
		&data,
		&ext.ExtractedAt,
		&ext.Version,
		&ext.SourceFileName,
	); err != nil {
		return Extraction{}, err
	}
	ext.ProjectID = projectID.String
	ext.ExtractedData = json.RawMessage(data)
	return ext, nil
}

// classify tags retryable store failures with ErrTransient.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	if db.IsRetryable(err) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

var _ ExtractionsRepo = (*PGRepo)(nil)
