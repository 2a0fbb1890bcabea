package extractions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dealdocs-backend/internal/shared/lock"
	"dealdocs-backend/internal/shared/metrics"
	"dealdocs-backend/internal/shared/retry"
	"dealdocs-backend/internal/shared/telemetry"
)

// Service is the extraction version ledger.
type Service struct {
	Repo ExtractionsRepo
	// Locker, when set, is held around version allocation in addition to
	// the repository's own per-document lock. Used when several instances
	// share one store.
	Locker           lock.Locker
	Schema           *SchemaValidator
	Retry            retry.Policy
	RenumberOnDelete bool
	Now              func() time.Time
}

// NewService constructs a Service with the default retry policy.
func NewService(repo ExtractionsRepo) *Service {
	return &Service{Repo: repo, Retry: retry.DefaultPolicy()}
}

func (s *Service) Get(ctx context.Context, id string) (Extraction, error) {
	if strings.TrimSpace(id) == "" {
		return Extraction{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// ListByDocument returns every extraction of a document, highest version
// first. A document without extractions yields an empty slice.
func (s *Service) ListByDocument(ctx context.Context, documentID string) ([]Extraction, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, &ValidationError{Field: "documentId", Reason: "documentId is required"}
	}
	return s.Repo.ListByDocument(ctx, documentID)
}

// GetLatestByDocument returns the highest-version extraction, or nil.
func (s *Service) GetLatestByDocument(ctx context.Context, documentID string) (*Extraction, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, &ValidationError{Field: "documentId", Reason: "documentId is required"}
	}
	return s.Repo.GetLatestByDocument(ctx, documentID)
}

func (s *Service) ListByProject(ctx context.Context, projectID string) ([]Extraction, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, &ValidationError{Field: "projectId", Reason: "projectId is required"}
	}
	return s.Repo.ListByProject(ctx, projectID)
}

// Create records a new extraction with the next version of its document.
// Transient store failures are retried; the version is reallocated on
// every attempt.
func (s *Service) Create(ctx context.Context, in CreateInput) (Extraction, error) {
	in.DocumentID = strings.TrimSpace(in.DocumentID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.DocumentID == "" {
		return Extraction{}, &ValidationError{Field: "documentId", Reason: "documentId is required"}
	}
	if len(in.ExtractedData) == 0 || !json.Valid(in.ExtractedData) || isJSONNull(in.ExtractedData) {
		return Extraction{}, &ValidationError{Field: "extractedData", Reason: "extractedData must be valid JSON"}
	}
	if err := s.Schema.Validate(in.ExtractedData); err != nil {
		return Extraction{}, err
	}

	start := time.Now()
	ext := Extraction{
		ID:             uuid.NewString(),
		DocumentID:     in.DocumentID,
		ProjectID:      in.ProjectID,
		ExtractedData:  append(json.RawMessage(nil), in.ExtractedData...),
		SourceFileName: in.SourceFileName,
	}

	var created Extraction
	onRetry := func(attempt int, err error) {
		metrics.IncExtractionCreateRetry()
		telemetry.Warn("extraction.create.retry", map[string]any{
			"document_id": in.DocumentID,
			"attempt":     attempt,
			"error":       err,
		})
	}
	err := retry.Do(ctx, s.Retry, isTransient, onRetry, func(ctx context.Context) error {
		return lock.With(ctx, s.Locker, LockName(in.DocumentID), func(ctx context.Context) error {
			ext.ExtractedAt = s.now()
			var err error
			created, err = s.Repo.CreateNextVersion(ctx, ext)
			return err
		})
	})
	if err != nil {
		metrics.IncExtractionCreateFailed()
		telemetry.Error("extraction.create.failed", map[string]any{
			"document_id": in.DocumentID,
			"error":       err,
		})
		return Extraction{}, fmt.Errorf("create extraction for document %s: %w", in.DocumentID, err)
	}

	metrics.IncExtractionCreated()
	metrics.ObserveExtractionCreateMs(metrics.SinceMillis(start))
	telemetry.Info("extraction.created", map[string]any{
		"document_id":   created.DocumentID,
		"extraction_id": created.ID,
		"version":       created.Version,
	})
	return created, nil
}

// Update applies a partial patch. Version and document id cannot change.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Extraction, error) {
	if strings.TrimSpace(id) == "" {
		return Extraction{}, ErrNotFound
	}
	changes, err := patch.changes()
	if err != nil {
		return Extraction{}, err
	}
	if changes.ExtractedData != nil {
		if err := s.Schema.Validate(*changes.ExtractedData); err != nil {
			return Extraction{}, err
		}
	}
	return s.Repo.Update(ctx, id, changes)
}

// Remove hard-deletes an extraction. Removing an unknown id is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}

	name := ""
	if s.RenumberOnDelete && s.Locker != nil {
		ext, err := s.Repo.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		name = LockName(ext.DocumentID)
	}

	var deleted bool
	remove := func(ctx context.Context) error {
		var err error
		deleted, err = s.Repo.Delete(ctx, id, s.RenumberOnDelete)
		return err
	}
	var err error
	if name != "" {
		err = lock.With(ctx, s.Locker, name, remove)
	} else {
		err = remove(ctx)
	}
	if err != nil {
		return fmt.Errorf("remove extraction %s: %w", id, err)
	}
	if deleted {
		metrics.IncExtractionRemoved()
		telemetry.Info("extraction.removed", map[string]any{
			"extraction_id": id,
			"renumbered":    s.RenumberOnDelete,
		})
	}
	return nil
}

func isJSONNull(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, lock.ErrNotAcquired)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
