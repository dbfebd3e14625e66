package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"docstore/internal/apperror"
	"docstore/internal/codec"
	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

// Coordinator runs the two-store write paths. It keeps no mutable state of
// its own; concurrent calls rely on the stores' write-once and idempotent
// delete contracts.
type Coordinator struct {
	blobs   storage.BlobStore
	repo    repository.DocumentRepository
	codec   codec.Codec
	log     zerolog.Logger
	metrics *Metrics
	orphans OrphanReporter
	maxSize int64
	newID   func() string
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(blobs storage.BlobStore, repo repository.DocumentRepository, opts ...Option) *Coordinator {
	o := newOptions(opts)
	return &Coordinator{
		blobs:   blobs,
		repo:    repo,
		codec:   codec.New(),
		log:     o.log.With().Str("component", "coordinator").Logger(),
		metrics: o.metrics,
		orphans: o.orphans,
		maxSize: o.maxContentBytes,
		newID:   o.newID,
	}
}

// Ingest validates and decodes the submission, writes the content and then
// the descriptor. If the descriptor cannot be written the content is deleted
// again and the descriptor error is returned as apperror.KindIngestionFailed.
func (c *Coordinator) Ingest(ctx context.Context, sub model.Submission) (id string, err error) {
	ctx, span := tracer.Start(ctx, "service.Ingest")
	defer func() {
		c.metrics.ingest(err)
		finishSpan(span, err)
	}()

	const op = "ingest"

	if strings.TrimSpace(sub.Name) == "" {
		return "", apperror.New(apperror.KindValidation, op, "name is required")
	}
	if strings.TrimSpace(sub.Format) == "" {
		return "", apperror.New(apperror.KindValidation, op, "format is required")
	}
	if c.maxSize > 0 && sub.Size > c.maxSize {
		return "", apperror.New(apperror.KindValidation, op, "content exceeds maximum size")
	}

	data, err := c.codec.Decode(sub.Content)
	if err != nil {
		return "", err
	}
	if c.maxSize > 0 && int64(len(data)) > c.maxSize {
		return "", apperror.New(apperror.KindValidation, op, "content exceeds maximum size")
	}
	if err := c.codec.ValidateSize(sub.Size, data); err != nil {
		return "", err
	}

	id = c.newID()
	key := storage.KeyFor(id)
	span.SetAttributes(attribute.String("document.id", id), attribute.Int64("document.size", sub.Size))

	if err := c.blobs.Put(ctx, key, data); err != nil {
		// A taken key is not the caller's fault; a retry draws a fresh id.
		if apperror.KindOf(err) == apperror.KindKeyExists {
			return "", apperror.Wrap(apperror.KindStorageUnavailable, op, err)
		}
		return "", apperror.Classify(err, apperror.KindStorageUnavailable, op)
	}

	doc := &model.Document{
		ID:         id,
		Name:       sub.Name,
		Size:       sub.Size,
		Format:     sub.Format,
		StorageKey: key,
		Checksum:   c.codec.Checksum(data),
		CreatedAt:  time.Now().UTC(),
	}

	createErr := ctx.Err()
	if createErr == nil {
		_, createErr = c.repo.Create(ctx, doc)
	}
	if createErr != nil {
		c.compensate(ctx, id, key, createErr)
		return "", &apperror.Error{Kind: apperror.KindIngestionFailed, Op: op, Err: createErr}
	}

	c.log.Debug().Str("event", "document_ingested").Str("document_id", id).Int64("size", sub.Size).Msg("")
	return id, nil
}

// compensate removes the blob of a failed ingest. It runs even when ctx is
// already cancelled.
func (c *Coordinator) compensate(ctx context.Context, id, key string, cause error) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	c.log.Warn().Err(cause).
		Str("event", "ingest_compensation").
		Str("document_id", id).
		Msg("descriptor write failed, removing blob")

	if err := c.blobs.Delete(cleanupCtx, key); err != nil {
		c.orphans.ReportOrphan(cleanupCtx, OrphanedBlob{Key: key, DocumentID: id, Op: "ingest", Cause: err})
	}
}

// Delete removes the descriptor first and then the blob. Once the descriptor
// is gone the document is unreachable, so a failed blob delete is reported as
// an orphan and Delete still succeeds.
func (c *Coordinator) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "service.Delete")
	span.SetAttributes(attribute.String("document.id", id))
	defer func() {
		c.metrics.delete(err)
		finishSpan(span, err)
	}()

	const op = "delete"

	if err := requireID(op, id); err != nil {
		return err
	}

	doc, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.Classify(err, apperror.KindStorageUnavailable, op)
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		return apperror.Classify(err, apperror.KindStorageUnavailable, op)
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := c.blobs.Delete(cleanupCtx, doc.StorageKey); err != nil {
		c.orphans.ReportOrphan(cleanupCtx, OrphanedBlob{Key: doc.StorageKey, DocumentID: id, Op: op, Cause: err})
	}

	c.log.Debug().Str("event", "document_deleted").Str("document_id", id).Msg("")
	return nil
}
