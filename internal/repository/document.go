package repository

import (
	"context"
	"iter"

	"docstore/internal/model"
)

// DocumentRepository is the metadata store for document descriptors.
// No business logic here, strictly persistence operations. Implementations
// report failures as classified apperror kinds and are safe for concurrent use.
type DocumentRepository interface {
	// Create inserts a new descriptor and returns the stored record.
	// It fails with apperror.KindDuplicateID if the id is present or was
	// previously deleted.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a descriptor by its ID, or apperror.KindNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a page of descriptors, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// All lazily yields every descriptor. Iteration stops at the first error.
	All(ctx context.Context) iter.Seq2[model.Document, error]

	// Delete removes a descriptor and retires its id. It returns nil if the
	// descriptor did not exist.
	Delete(ctx context.Context, id string) error

	// PingContext reports whether the store is reachable.
	PingContext(ctx context.Context) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
