package extractions

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"dealdocs-backend/internal/shared/lock"
)

// MemoryRepo is an in-memory implementation of ExtractionsRepo. The map is
// guarded by mu; version allocation is guarded by a per-document lock so
// unrelated documents never wait on each other.
type MemoryRepo struct {
	mu    sync.RWMutex
	data  map[string]Extraction // id -> extraction
	locks *lock.Keyed
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data:  make(map[string]Extraction),
		locks: lock.NewKeyed(),
	}
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.data[id]
	if !ok {
		return Extraction{}, ErrNotFound
	}
	return clone(ext), nil
}

func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Extraction, error) {
	out, err := r.filter(ctx, func(e Extraction) bool { return e.DocumentID == documentID })
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (r *MemoryRepo) GetLatestByDocument(ctx context.Context, documentID string) (*Extraction, error) {
	list, err := r.ListByDocument(ctx, documentID)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	latest := list[0]
	return &latest, nil
}

func (r *MemoryRepo) ListByProject(ctx context.Context, projectID string) ([]Extraction, error) {
	out, err := r.filter(ctx, func(e Extraction) bool { return e.ProjectID == projectID })
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExtractedAt.Equal(out[j].ExtractedAt) {
			return out[i].Version > out[j].Version
		}
		return out[i].ExtractedAt.After(out[j].ExtractedAt)
	})
	return out, nil
}

func (r *MemoryRepo) CreateNextVersion(ctx context.Context, ext Extraction) (Extraction, error) {
	err := lock.With(ctx, r.locks, LockName(ext.DocumentID), func(ctx context.Context) error {
		ext.Version = r.maxVersion(ext.DocumentID) + 1
		r.mu.Lock()
		r.data[ext.ID] = clone(ext)
		r.mu.Unlock()
		return nil
	})
	if err != nil {
		return Extraction{}, err
	}
	return ext, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, changes Changes) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ext, ok := r.data[id]
	if !ok {
		return Extraction{}, ErrNotFound
	}
	if changes.ExtractedData != nil {
		ext.ExtractedData = append(json.RawMessage(nil), (*changes.ExtractedData)...)
	}
	if changes.SourceFileName != nil {
		ext.SourceFileName = *changes.SourceFileName
	}
	r.data[id] = ext
	return clone(ext), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string, renumber bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	ext, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !renumber {
		r.mu.Lock()
		_, ok = r.data[id]
		delete(r.data, id)
		r.mu.Unlock()
		return ok, nil
	}

	deleted := false
	err := lock.With(ctx, r.locks, LockName(ext.DocumentID), func(ctx context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		current, ok := r.data[id]
		if !ok {
			return nil
		}
		delete(r.data, id)
		for key, other := range r.data {
			if other.DocumentID == current.DocumentID && other.Version > current.Version {
				other.Version--
				r.data[key] = other
			}
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (r *MemoryRepo) maxVersion(documentID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	highest := 0
	for _, e := range r.data {
		if e.DocumentID == documentID && e.Version > highest {
			highest = e.Version
		}
	}
	return highest
}

func (r *MemoryRepo) filter(ctx context.Context, keep func(Extraction) bool) ([]Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Extraction{}
	for _, e := range r.data {
		if keep(e) {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func clone(e Extraction) Extraction {
	e.ExtractedData = append(json.RawMessage(nil), e.ExtractedData...)
	return e
}

var _ ExtractionsRepo = (*MemoryRepo)(nil)
