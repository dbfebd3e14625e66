package postgres

import (
	"context"
	"database/sql"
	"errors"
	"iter"

	"github.com/jackc/pgx/v5/pgconn"

	"docstore/internal/apperror"
	"docstore/internal/model"
	"docstore/internal/repository"
)

// Postgres error codes that map onto metadata store kinds.
const (
	codeUniqueViolation = "23505"
	codeInvalidTextRepr = "22P02"
	codeUndefinedTable  = "42P01"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const selectColumns = `id, name, size, format, storage_key, checksum, created_at`

// Create inserts a new document row unless the id has been retired.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const op = "metadata.create"
	const q = `
		INSERT INTO documents (id, name, size, format, storage_key, checksum, created_at)
		SELECT $1::uuid, $2::text, $3::bigint, $4::text, $5::text, $6::text, $7::timestamptz
		WHERE NOT EXISTS (SELECT 1 FROM document_tombstones WHERE id = $1::uuid)
		RETURNING ` + selectColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.Size,
		doc.Format,
		doc.StorageKey,
		doc.Checksum,
		doc.CreatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.KindDuplicateID, op, "id "+doc.ID+" is retired")
		}
		return nil, classify(op, err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const op = "metadata.get"
	const q = `SELECT ` + selectColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == codeInvalidTextRepr {
			return nil, apperror.New(apperror.KindNotFound, op, id)
		}
		return nil, classify(op, err)
	}
	return d, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const op = "metadata.list"

	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, classify(op, err)
	}

	const qList = `
		SELECT ` + selectColumns + `
		FROM documents
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// All streams every document row in creation order. Rows are read from a
// single query, so the sequence is stable within one iteration.
func (r *DocumentPostgres) All(ctx context.Context) iter.Seq2[model.Document, error] {
	return func(yield func(model.Document, error) bool) {
		const op = "metadata.all"
		const q = `SELECT ` + selectColumns + ` FROM documents ORDER BY created_at, id`

		rows, err := r.db.QueryContext(ctx, q)
		if err != nil {
			yield(model.Document{}, classify(op, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			d, err := scanDocument(rows)
			if err != nil {
				yield(model.Document{}, classify(op, err))
				return
			}
			if !yield(*d, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.Document{}, classify(op, err))
		}
	}
}

// Delete removes a document row and records its id and storage key as retired
// in one statement. Missing rows are not an error.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `
		WITH deleted AS (
			DELETE FROM documents WHERE id = $1 RETURNING id, storage_key
		)
		INSERT INTO document_tombstones (id, storage_key, retired_at)
		SELECT id, storage_key, now() FROM deleted
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		if pgCode(err) == codeInvalidTextRepr {
			return nil
		}
		return classify("metadata.delete", err)
	}
	return nil
}

// PingContext verifies database connectivity.
func (r *DocumentPostgres) PingContext(ctx context.Context) error {
	return classify("metadata.ping", r.db.PingContext(ctx))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Size,
		&d.Format,
		&d.StorageKey,
		&d.Checksum,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// classify maps driver errors onto metadata store kinds. Anything that is not
// a recognised constraint violation is reported as unavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return apperror.Wrap(apperror.KindDuplicateID, op, err)
	case codeUndefinedTable:
		return apperror.New(apperror.KindStorageUnavailable, op, "table does not exist - database migration required")
	}
	return apperror.Wrap(apperror.KindStorageUnavailable, op, err)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
