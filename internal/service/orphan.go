package service

import (
	"context"

	"github.com/rs/zerolog"
)

// OrphanedBlob describes a blob that may remain in the blob store without a
// descriptor referencing it. It is advisory: the operation that produced it
// has already completed.
type OrphanedBlob struct {
	Key        string
	DocumentID string
	// Op is the operation whose cleanup failed ("ingest" or "delete").
	Op    string
	Cause error
}

// OrphanReporter receives orphaned blob reports for out-of-band reconciliation.
// Implementations must be safe for concurrent use and must not block.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, o OrphanedBlob)
}

// LogOrphanReporter logs each orphan at warn level and counts it.
type LogOrphanReporter struct {
	log     zerolog.Logger
	metrics *Metrics
}

// NewLogOrphanReporter constructs the default reporter. metrics may be nil.
func NewLogOrphanReporter(log zerolog.Logger, metrics *Metrics) *LogOrphanReporter {
	return &LogOrphanReporter{log: log, metrics: metrics}
}

func (r *LogOrphanReporter) ReportOrphan(_ context.Context, o OrphanedBlob) {
	r.metrics.orphaned(o.Op)
	r.log.Warn().
		Err(o.Cause).
		Str("component", "service").
		Str("event", "orphaned_blob").
		Str("storage_key", o.Key).
		Str("document_id", o.DocumentID).
		Str("op", o.Op).
		Msg("blob left without descriptor")
}
