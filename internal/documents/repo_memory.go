package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // id -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok || doc.IsDeleted {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok || doc.IsDeleted {
		return ErrNotFound
	}
	now := time.Now().UTC()
	doc.IsDeleted = true
	doc.DeletedAt = &now
	r.data[id] = doc
	return nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string) ([]Document, error) {
	return r.filter(ctx, func(d Document) bool {
		return d.ProjectID == projectID
	})
}

func (r *MemoryRepo) ListClientLevel(ctx context.Context, clientID string) ([]Document, error) {
	return r.filter(ctx, func(d Document) bool {
		return d.ClientID == clientID && d.ProjectID == ""
	})
}

func (r *MemoryRepo) filter(ctx context.Context, keep func(Document) bool) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Document{}
	for _, doc := range r.data {
		if !doc.IsDeleted && keep(doc) {
			out = append(out, doc)
		}
	}
	r.mu.RUnlock()

	// Same order as the Postgres queries.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
