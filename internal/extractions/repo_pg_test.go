package extractions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"dealdocs-backend/internal/shared/retry"
	"dealdocs-backend/internal/shared/storage/db"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &PGRepo{DB: conn}, mock
}

func extractionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "document_id", "project_id", "extracted_data", "extracted_at", "version", "source_file_name"})
}

func expectCreate(mock sqlmock.Sqlmock, documentID string, current int) {
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(db.AdvisoryKey(LockName(documentID))).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM document_extractions`).
		WithArgs(documentID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(current))
}

func TestPGRepoCreateNextVersionLocksAndIncrements(t *testing.T) {
	repo, mock := newMockRepo(t)
	ext := Extraction{
		ID:             "ext-1",
		DocumentID:     "doc-1",
		ProjectID:      "proj-1",
		ExtractedData:  json.RawMessage(`{"a":1}`),
		ExtractedAt:    time.Now().UTC(),
		SourceFileName: "Loan Agreement.pdf",
	}

	expectCreate(mock, "doc-1", 2)
	mock.ExpectExec("INSERT INTO document_extractions").
		WithArgs("ext-1", "doc-1", "proj-1", sqlmock.AnyArg(), sqlmock.AnyArg(), 3, "Loan Agreement.pdf").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := repo.CreateNextVersion(context.Background(), ext)
	if err != nil {
		t.Fatalf("CreateNextVersion: %v", err)
	}
	if created.Version != 3 {
		t.Fatalf("expected version 3, got %d", created.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateNextVersionRollsBackOnConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	expectCreate(mock, "doc-1", 0)
	mock.ExpectExec("INSERT INTO document_extractions").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	mock.ExpectRollback()

	_, err := repo.CreateNextVersion(context.Background(), Extraction{ID: "ext-1", DocumentID: "doc-1", ExtractedData: json.RawMessage(`{}`)})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestServiceRetriesSerializationFailureOnPostgres(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewService(repo)
	svc.Retry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	expectCreate(mock, "doc-1", 1)
	mock.ExpectExec("INSERT INTO document_extractions").
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	expectCreate(mock, "doc-1", 1)
	mock.ExpectExec("INSERT INTO document_extractions").
		WithArgs(sqlmock.AnyArg(), "doc-1", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), 2, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ext, err := svc.Create(context.Background(), CreateInput{DocumentID: "doc-1", ExtractedData: json.RawMessage(`{"k":"v"}`)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ext.Version != 2 {
		t.Fatalf("expected version 2, got %d", ext.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetLatestWithoutRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("ORDER BY version DESC").WithArgs("doc-1").WillReturnRows(extractionRows())

	latest, err := repo.GetLatestByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetLatestByDocument: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil, got %+v", latest)
	}
}

func TestPGRepoListByDocumentScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE document_id = \\$1").
		WithArgs("doc-1").
		WillReturnRows(extractionRows().
			AddRow("ext-2", "doc-1", nil, []byte(`{"b":2}`), at, 2, "b.pdf").
			AddRow("ext-1", "doc-1", "proj-1", []byte(`{"a":1}`), at, 1, "a.pdf"))

	list, err := repo.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(list) != 2 || list[0].Version != 2 || list[0].ProjectID != "" || list[1].ProjectID != "proj-1" {
		t.Fatalf("unexpected rows: %+v", list)
	}
	if string(list[0].ExtractedData) != `{"b":2}` {
		t.Fatalf("unexpected data: %s", list[0].ExtractedData)
	}
}

func TestPGRepoUpdateUnknownID(t *testing.T) {
	repo, mock := newMockRepo(t)
	name := "renamed.pdf"
	mock.ExpectQuery("UPDATE document_extractions").
		WithArgs("missing", nil, "renamed.pdf").
		WillReturnRows(extractionRows())

	if _, err := repo.Update(context.Background(), "missing", Changes{SourceFileName: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteRenumbersUnderLock(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT document_id FROM document_extractions").
		WithArgs("ext-2").
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow("doc-1"))
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(db.AdvisoryKey(LockName("doc-1"))).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("DELETE FROM document_extractions WHERE id = \\$1 RETURNING version").
		WithArgs("ext-2").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
	mock.ExpectExec("UPDATE document_extractions SET version = version - 1").
		WithArgs("doc-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), "ext-2", true)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatalf("expected a row to be deleted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteUnknownIDIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM document_extractions").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "missing", false)
	if err != nil || deleted {
		t.Fatalf("expected no-op delete, got deleted=%v err=%v", deleted, err)
	}
}

func TestPGRepoCreateNextVersionReturnsRowAfterLostCommit(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	expectCreate(mock, "doc-1", 1)
	mock.ExpectExec("INSERT INTO document_extractions").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "document_extractions_pkey"})
	mock.ExpectRollback()
	mock.ExpectQuery("WHERE id = \\$1").
		WithArgs("ext-1").
		WillReturnRows(extractionRows().AddRow("ext-1", "doc-1", nil, []byte(`{"k":"v"}`), at, 1, ""))

	got, err := repo.CreateNextVersion(context.Background(), Extraction{ID: "ext-1", DocumentID: "doc-1", ExtractedData: json.RawMessage(`{"k":"v"}`)})
	if err != nil {
		t.Fatalf("CreateNextVersion: %v", err)
	}
	if got.ID != "ext-1" || got.Version != 1 {
		t.Fatalf("expected stored row, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestServiceCreateSurvivesLostCommitAcknowledgement(t *testing.T) {
	repo, mock := newMockRepo(t)
	svc := NewService(repo)
	svc.Retry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	expectCreate(mock, "doc-1", 0)
	mock.ExpectExec("INSERT INTO document_extractions").
		WithArgs(sqlmock.AnyArg(), "doc-1", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), 1, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

	expectCreate(mock, "doc-1", 1)
	mock.ExpectExec("INSERT INTO document_extractions").
		WithArgs(sqlmock.AnyArg(), "doc-1", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), 2, "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "document_extractions_pkey"})
	mock.ExpectRollback()
	mock.ExpectQuery("WHERE id = \\$1").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(extractionRows().AddRow("ext-1", "doc-1", nil, []byte(`{"k":"v"}`), at, 1, ""))

	ext, err := svc.Create(context.Background(), CreateInput{DocumentID: "doc-1", ExtractedData: json.RawMessage(`{"k":"v"}`)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ext.Version != 1 {
		t.Fatalf("expected the committed version 1, got %d", ext.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoNonUUIDIDsAreOrdinaryMisses(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("WHERE id = \\$1").WithArgs("abc").WillReturnRows(extractionRows())
	mock.ExpectQuery("WHERE document_id = \\$1").WithArgs("abc").WillReturnRows(extractionRows())
	mock.ExpectExec("DELETE FROM document_extractions").WithArgs("abc").WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := repo.GetByID(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := repo.ListByDocument(ctx, "abc")
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v err=%v", list, err)
	}
	deleted, err := repo.Delete(ctx, "abc", false)
	if err != nil || deleted {
		t.Fatalf("expected no-op delete, got deleted=%v err=%v", deleted, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
