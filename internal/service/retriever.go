package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"docstore/internal/apperror"
	"docstore/internal/codec"
	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

// Retriever serves the read paths.
type Retriever struct {
	blobs   storage.BlobStore
	repo    repository.DocumentRepository
	codec   codec.Codec
	log     zerolog.Logger
	metrics *Metrics
}

// NewRetriever constructs a Retriever.
func NewRetriever(blobs storage.BlobStore, repo repository.DocumentRepository, opts ...Option) *Retriever {
	o := newOptions(opts)
	return &Retriever{
		blobs:   blobs,
		repo:    repo,
		codec:   codec.New(),
		log:     o.log.With().Str("component", "retriever").Logger(),
		metrics: o.metrics,
	}
}

// Retrieve returns a document with its content in transport encoding.
// A descriptor whose blob is missing, truncated or altered yields
// apperror.KindCorruptState.
func (r *Retriever) Retrieve(ctx context.Context, id string) (res *model.Retrieved, err error) {
	ctx, span := tracer.Start(ctx, "service.Retrieve")
	span.SetAttributes(attribute.String("document.id", id))
	defer func() { finishSpan(span, err) }()

	const op = "retrieve"

	if err := requireID(op, id); err != nil {
		return nil, err
	}

	doc, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Classify(err, apperror.KindStorageUnavailable, op)
	}

	data, err := r.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindNotFound:
			// A delete may have removed both records since the lookup above.
			if _, lookupErr := r.repo.FindByID(ctx, id); apperror.KindOf(lookupErr) == apperror.KindNotFound {
				return nil, lookupErr
			}
			return nil, r.corrupt(doc, "blob missing", err)
		case apperror.KindCorruptState:
			return nil, r.corrupt(doc, "blob unreadable", err)
		default:
			return nil, apperror.Classify(err, apperror.KindStorageUnavailable, op)
		}
	}

	if int64(len(data)) != doc.Size {
		return nil, r.corrupt(doc, "blob size differs from descriptor", nil)
	}
	if doc.Checksum != "" && r.codec.Checksum(data) != doc.Checksum {
		return nil, r.corrupt(doc, "blob checksum differs from descriptor", nil)
	}

	return &model.Retrieved{
		Name:    doc.Name,
		Format:  doc.Format,
		Content: r.codec.Encode(data),
	}, nil
}

func (r *Retriever) corrupt(doc *model.Document, msg string, cause error) error {
	r.metrics.corrupt()
	r.log.Error().Err(cause).
		Str("event", "corrupt_state").
		Str("document_id", doc.ID).
		Str("storage_key", doc.StorageKey).
		Msg(msg)
	return &apperror.Error{Kind: apperror.KindCorruptState, Op: "retrieve", Msg: msg, Err: cause}
}

// Describe returns a descriptor by ID.
func (r *Retriever) Describe(ctx context.Context, id string) (*model.Document, error) {
	const op = "describe"
	if err := requireID(op, id); err != nil {
		return nil, err
	}
	doc, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Classify(err, apperror.KindStorageUnavailable, op)
	}
	return doc, nil
}

// List returns paginated descriptors without exposing repository types.
func (r *Retriever) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := r.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperror.Classify(err, apperror.KindStorageUnavailable, "list")
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}
