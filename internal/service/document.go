package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docstore/internal/apperror"
	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100

	// compensationTimeout bounds cleanup that runs after the caller's context is done.
	compensationTimeout = 30 * time.Second
)

var tracer = otel.Tracer("docstore/internal/service")

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Ingest stores the submitted content and its descriptor and returns the new id.
	// Content is written before the descriptor; a descriptor failure removes the content again.
	Ingest(ctx context.Context, sub model.Submission) (string, error)

	// Retrieve returns the document content in transport encoding.
	Retrieve(ctx context.Context, id string) (*model.Retrieved, error)

	// Describe returns the descriptor of a single document.
	Describe(ctx context.Context, id string) (*model.Document, error)

	// List returns descriptors using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Delete removes a document. The descriptor goes first, then the content.
	Delete(ctx context.Context, id string) error
}

type options struct {
	log             zerolog.Logger
	metrics         *Metrics
	orphans         OrphanReporter
	maxContentBytes int64
	newID           func() string
}

// Option configures the document service.
type Option func(*options)

// WithLogger sets the service logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics enables the service counters.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithOrphanReporter replaces the default log-and-count reporter.
func WithOrphanReporter(r OrphanReporter) Option {
	return func(o *options) { o.orphans = r }
}

// WithMaxContentBytes caps the decoded content size. Zero or less disables the cap.
func WithMaxContentBytes(n int64) Option {
	return func(o *options) { o.maxContentBytes = n }
}

// WithIDGenerator overrides document id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func newOptions(opts []Option) options {
	o := options{
		log:   zerolog.Nop(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.orphans == nil {
		o.orphans = NewLogOrphanReporter(o.log, o.metrics)
	}
	return o
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	*Coordinator
	*Retriever
}

// NewDocumentService constructs a new DocumentService over the given stores.
func NewDocumentService(blobs storage.BlobStore, repo repository.DocumentRepository, opts ...Option) DocumentService {
	return &documentService{
		Coordinator: NewCoordinator(blobs, repo, opts...),
		Retriever:   NewRetriever(blobs, repo, opts...),
	}
}

func requireID(op, id string) error {
	if id == "" {
		return apperror.New(apperror.KindValidation, op, "id is required")
	}
	return nil
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.KindOf(err).String())
	}
	span.End()
}
