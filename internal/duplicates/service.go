package duplicates

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"dealdocs-backend/internal/documents"
	"dealdocs-backend/internal/shared/metrics"
	"dealdocs-backend/internal/shared/telemetry"
)

// batchLimit caps concurrent store lookups in CheckBatch.
const batchLimit = 4

// DocumentSource lists the live documents of a scope.
type DocumentSource interface {
	ListByProject(ctx context.Context, projectID string) ([]documents.Document, error)
	ListClientLevel(ctx context.Context, clientID string) ([]documents.Document, error)
}

// Service classifies the documents of a scope against a proposed name.
type Service struct {
	Docs DocumentSource
}

// NewService constructs a Service.
func NewService(docs DocumentSource) *Service {
	return &Service{Docs: docs}
}

// Check reports which documents in scope look like duplicates of fileName.
// A non-empty projectID scopes the check to that project only; otherwise
// only the client's documents outside any project are considered. Check
// never fails: lookup errors and panics yield an empty report with Error
// set.
func (s *Service) Check(ctx context.Context, fileName, clientID, projectID string) (report Report) {
	fileName = strings.TrimSpace(fileName)
	clientID = strings.TrimSpace(clientID)
	projectID = strings.TrimSpace(projectID)

	report = emptyReport()
	if fileName == "" || clientID == "" {
		msg := MessageMissingInput
		report.Message = &msg
		return report
	}

	defer func() {
		if p := recover(); p != nil {
			report = s.failOpen(fmt.Errorf("panic: %v", p), clientID, projectID)
		}
	}()

	scope, err := s.lookup(ctx, clientID, projectID)
	if err != nil {
		return s.failOpen(err, clientID, projectID)
	}

	for _, doc := range scope {
		match, ok := Classify(fileName, doc.FileName())
		if !ok {
			continue
		}
		uploadedAt := doc.CreatedAt
		c := Candidate{
			DocumentID: doc.ID,
			FileName:   doc.FileName(),
			MatchType:  match,
			Folder:     doc.FolderType,
		}
		if !uploadedAt.IsZero() {
			c.UploadedAt = &uploadedAt
		}
		report.add(c)
	}
	report.finish()

	metrics.ObserveDuplicateCheck(report.HasExactMatch, report.HasSimilarMatch, false)
	if report.IsDuplicate {
		telemetry.Info("duplicates.found", map[string]any{
			"client_id":  clientID,
			"project_id": projectID,
			"exact":      report.HasExactMatch,
			"similar":    report.HasSimilarMatch,
			"count":      len(report.Duplicates),
		})
	}
	return report
}

// CheckBatch runs Check for every name concurrently. Reports are returned in
// input order.
func (s *Service) CheckBatch(ctx context.Context, fileNames []string, clientID, projectID string) []Report {
	reports := make([]Report, len(fileNames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit)
	for i, name := range fileNames {
		g.Go(func() error {
			reports[i] = s.Check(gctx, name, clientID, projectID)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (s *Service) lookup(ctx context.Context, clientID, projectID string) ([]documents.Document, error) {
	if s.Docs == nil {
		return nil, fmt.Errorf("document source not configured")
	}
	if projectID != "" {
		return s.Docs.ListByProject(ctx, projectID)
	}
	return s.Docs.ListClientLevel(ctx, clientID)
}

func (s *Service) failOpen(err error, clientID, projectID string) Report {
	metrics.ObserveDuplicateCheck(false, false, true)
	telemetry.Warn("duplicates.check_failed_open", map[string]any{
		"client_id":  clientID,
		"project_id": projectID,
		"error":      err,
	})
	report := emptyReport()
	report.Error = fmt.Sprintf("%s (%v)", MessageCheckFailed, err)
	return report
}
