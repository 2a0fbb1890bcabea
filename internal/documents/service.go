package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for documents.
type Service struct {
	Repo DocumentsRepo
	Now  func() time.Time
}

// CreateInput is the metadata recorded for a new document.
type CreateInput struct {
	ClientID         string
	ProjectID        string
	OriginalFileName string
	Name             string
	FolderType       string
}

// Create records a document. Client id and original file name are required.
func (s *Service) Create(ctx context.Context, in CreateInput) (Document, error) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.OriginalFileName = strings.TrimSpace(in.OriginalFileName)
	if in.ClientID == "" {
		return Document{}, fmt.Errorf("%w: clientId is required", ErrInvalidInput)
	}
	if in.OriginalFileName == "" {
		return Document{}, fmt.Errorf("%w: originalFileName is required", ErrInvalidInput)
	}

	doc := Document{
		ID:               uuid.NewString(),
		ClientID:         in.ClientID,
		ProjectID:        in.ProjectID,
		OriginalFileName: in.OriginalFileName,
		Name:             strings.TrimSpace(in.Name),
		FolderType:       strings.TrimSpace(in.FolderType),
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// Delete soft-deletes a document; it disappears from every scope lookup.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return s.Repo.SoftDelete(ctx, id)
}

// ListByProject returns the live documents of a project.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]Document, error) {
	return s.Repo.ListByProject(ctx, projectID)
}

// ListClientLevel returns the live documents of a client outside any project.
func (s *Service) ListClientLevel(ctx context.Context, clientID string) ([]Document, error) {
	return s.Repo.ListClientLevel(ctx, clientID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
