package memory

import (
	"context"
	"iter"
	"sort"
	"sync"

	"docstore/internal/apperror"
	"docstore/internal/model"
	"docstore/internal/repository"
)

// DocumentMemory is an in-memory repository.DocumentRepository. Deleted ids
// are remembered so they can never be created again.
type DocumentMemory struct {
	mu      sync.RWMutex
	docs    map[string]model.Document
	retired map[string]struct{}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

// NewDocumentMemory creates an empty repository.
func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{
		docs:    make(map[string]model.Document),
		retired: make(map[string]struct{}),
	}
}

func (r *DocumentMemory) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const op = "metadata.create"
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[doc.ID]; ok {
		return nil, apperror.New(apperror.KindDuplicateID, op, "id "+doc.ID+" exists")
	}
	if _, ok := r.retired[doc.ID]; ok {
		return nil, apperror.New(apperror.KindDuplicateID, op, "id "+doc.ID+" is retired")
	}
	r.docs[doc.ID] = *doc
	out := *doc
	return &out, nil
}

func (r *DocumentMemory) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const op = "metadata.get"
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, op, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, op, id)
	}
	return &d, nil
}

func (r *DocumentMemory) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(apperror.KindStorageUnavailable, "metadata.list", err)
	}
	all := r.snapshot()
	// newest first, matching the SQL implementation
	sort.SliceStable(all, func(i, j int) bool { return less(all[j], all[i]) })

	items := make([]model.Document, 0)
	if pq.Offset < len(all) {
		end := len(all)
		if pq.Limit > 0 && pq.Offset+pq.Limit < end {
			end = pq.Offset + pq.Limit
		}
		items = append(items, all[pq.Offset:end]...)
	}
	return &repository.PageResult[model.Document]{Items: items, Total: len(all)}, nil
}

// All yields a snapshot taken when iteration starts, oldest first.
func (r *DocumentMemory) All(ctx context.Context) iter.Seq2[model.Document, error] {
	return func(yield func(model.Document, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(model.Document{}, apperror.Wrap(apperror.KindStorageUnavailable, "metadata.all", err))
			return
		}
		all := r.snapshot()
		sort.SliceStable(all, func(i, j int) bool { return less(all[i], all[j]) })
		for _, d := range all {
			if !yield(d, nil) {
				return
			}
		}
	}
}

func (r *DocumentMemory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(apperror.KindStorageUnavailable, "metadata.delete", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; ok {
		delete(r.docs, id)
		r.retired[id] = struct{}{}
	}
	return nil
}

func (r *DocumentMemory) PingContext(ctx context.Context) error {
	return apperror.Wrap(apperror.KindStorageUnavailable, "metadata.ping", ctx.Err())
}

func (r *DocumentMemory) snapshot() []model.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out
}

func less(a, b model.Document) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
