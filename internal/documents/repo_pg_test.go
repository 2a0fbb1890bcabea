package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "client_id", "project_id", "original_file_name", "name", "folder_type", "is_deleted", "created_at", "deleted_at"})
}

func TestPGRepoCreateStoresEmptyOptionalsAsNull(t *testing.T) {
	repo, mock := newMockRepo(t)
	doc := Document{
		ID:               "doc-1",
		ClientID:         "client-1",
		OriginalFileName: "Loan Agreement.pdf",
		CreatedAt:        time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "client-1", nil, "Loan Agreement.pdf", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDMapsNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM documents").WithArgs("missing").WillReturnRows(documentRows())

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByProjectScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("WHERE project_id = \\$1 AND is_deleted = FALSE").
		WithArgs("proj-1").
		WillReturnRows(documentRows().
			AddRow("doc-1", "client-1", "proj-1", "Loan Agreement.pdf", nil, "legal", false, created, nil).
			AddRow("doc-2", "client-1", "proj-1", "", "Term Sheet", nil, false, created, nil))

	docs, err := repo.ListByProject(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ProjectID != "proj-1" || docs[0].FolderType != "legal" || docs[0].Name != "" {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
	if docs[1].FileName() != "Term Sheet" {
		t.Fatalf("expected name fallback, got %q", docs[1].FileName())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListClientLevelExcludesProjects(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("WHERE client_id = \\$1 AND project_id IS NULL AND is_deleted = FALSE").
		WithArgs("client-1").
		WillReturnRows(documentRows())

	docs, err := repo.ListClientLevel(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("ListClientLevel: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSoftDeleteUnknownID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE documents").
		WithArgs(sqlmock.AnyArg(), "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SoftDelete(context.Background(), "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
