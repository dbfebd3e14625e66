package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/apperror"
	"docstore/internal/model"
	"docstore/internal/repository"
)

var columns = []string{"id", "name", "size", "format", "storage_key", "checksum", "created_at"}

func newMockRepo(t *testing.T) (*DocumentPostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDocumentPostgres(db), mock
}

func testDocument() *model.Document {
	return &model.Document{
		ID:         "7a0d7f4e-3a43-4c55-9d55-0c1f0b6a8a10",
		Name:       "report.pdf",
		Size:       4,
		Format:     "pdf",
		StorageKey: "documents/7a0d7f4e-3a43-4c55-9d55-0c1f0b6a8a10",
		Checksum:   "abc123",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestDocumentPostgres_Create(t *testing.T) {
	ctx := context.Background()
	doc := testDocument()
	args := []any{doc.ID, doc.Name, doc.Size, doc.Format, doc.StorageKey, doc.Checksum, doc.CreatedAt}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := sqlmock.NewRows(columns).
			AddRow(doc.ID, doc.Name, doc.Size, doc.Format, doc.StorageKey, doc.Checksum, doc.CreatedAt)
		mock.ExpectQuery("INSERT INTO documents").WithArgs(args...).WillReturnRows(rows)

		result, err := repo.Create(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, doc.ID, result.ID)
		assert.Equal(t, doc.StorageKey, result.StorageKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retired id", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO documents").WithArgs(args...).WillReturnRows(sqlmock.NewRows(columns))

		result, err := repo.Create(ctx, doc)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperror.ErrDuplicateID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO documents").WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "documents_pkey"})

		_, err := repo.Create(ctx, doc)

		assert.ErrorIs(t, err, apperror.ErrDuplicateID)
	})

	t.Run("connection failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO documents").WithArgs(args...).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.Create(ctx, doc)

		assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := sqlmock.NewRows(columns).
			AddRow("test-id", "file.txt", 100, "txt", "documents/test-id", "sum", time.Now())
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(rows)

		doc, err := repo.FindByID(ctx, "test-id")

		require.NoError(t, err)
		assert.Equal(t, "test-id", doc.ID)
		assert.Equal(t, "documents/test-id", doc.StorageKey)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Nil(t, doc)
	})

	t.Run("malformed uuid is not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("not-a-uuid").
			WillReturnError(&pgconn.PgError{Code: "22P02"})

		_, err := repo.FindByID(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("missing table", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("x").
			WillReturnError(&pgconn.PgError{Code: "42P01"})

		_, err := repo.FindByID(ctx, "x")

		assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
		assert.Contains(t, err.Error(), "migration required")
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(columns).
		AddRow("test-id", "file.txt", 100, "txt", "documents/test-id", "sum", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(rows)

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_All(t *testing.T) {
	ctx := context.Background()

	t.Run("streams rows", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := sqlmock.NewRows(columns).
			AddRow("a", "a.txt", 1, "txt", "documents/a", "s1", time.Now()).
			AddRow("b", "b.txt", 2, "txt", "documents/b", "s2", time.Now())
		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at, id").WillReturnRows(rows)

		var ids []string
		for d, err := range repo.All(ctx) {
			require.NoError(t, err)
			ids = append(ids, d.ID)
		}
		assert.Equal(t, []string{"a", "b"}, ids)
	})

	t.Run("early stop", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		rows := sqlmock.NewRows(columns).
			AddRow("a", "a.txt", 1, "txt", "documents/a", "s1", time.Now()).
			AddRow("b", "b.txt", 2, "txt", "documents/b", "s2", time.Now())
		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at, id").WillReturnRows(rows)

		count := 0
		for range repo.All(ctx) {
			count++
			break
		}
		assert.Equal(t, 1, count)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at, id").
			WillReturnError(errors.New("db down"))

		var errs []error
		for _, err := range repo.All(ctx) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], apperror.ErrStorageUnavailable)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and retires", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("WITH deleted AS \\(\\s*DELETE FROM documents WHERE id = \\$1").
			WithArgs("test-id").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(ctx, "test-id")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("WITH deleted AS").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, "missing"))
	})

	t.Run("failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("WITH deleted AS").
			WithArgs("test-id").
			WillReturnError(errors.New("connection reset"))

		assert.ErrorIs(t, repo.Delete(ctx, "test-id"), apperror.ErrStorageUnavailable)
	})
}

func TestDocumentPostgres_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	repo := NewDocumentPostgres(db)

	mock.ExpectPing()
	assert.NoError(t, repo.PingContext(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.ErrorIs(t, repo.PingContext(context.Background()), apperror.ErrStorageUnavailable)
}
