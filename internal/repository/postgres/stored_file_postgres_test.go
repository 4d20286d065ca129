package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"imgdrop/internal/model"
	"imgdrop/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var columns = []string{"id", "filename", "original_filename", "extension", "storage_path", "size", "content_type", "created_at"}

func TestStoredFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewStoredFilePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	f := &model.StoredFile{
		ID:               "test-uuid",
		Filename:         "0123456789abcdef0123456789abcdef.png",
		OriginalFilename: "cat.PNG",
		Extension:        ".png",
		StoragePath:      "0123456789abcdef0123456789abcdef.png",
		Size:             123,
		ContentType:      "image/png",
		CreatedAt:        now,
	}

	rows := sqlmock.NewRows(columns).
		AddRow(f.ID, f.Filename, f.OriginalFilename, f.Extension, f.StoragePath, f.Size, f.ContentType, f.CreatedAt)

	mock.ExpectQuery("INSERT INTO stored_files").
		WithArgs(f.ID, f.Filename, f.OriginalFilename, f.Extension, f.StoragePath, f.Size, f.ContentType, f.CreatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, f)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, f.ID, result.ID)
	assert.Equal(t, f.OriginalFilename, result.OriginalFilename)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoredFilePostgres_Create_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewStoredFilePostgres(db)

	mock.ExpectQuery("INSERT INTO stored_files").WillReturnError(errors.New("unique violation"))

	result, err := repo.Create(context.Background(), &model.StoredFile{ID: "x"})
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoredFilePostgres_FindByFilename(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewStoredFilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow("test-id", "abc.jpg", "photo.JPG", ".jpg", "abc.jpg", 3, "image/jpeg", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM stored_files WHERE filename = ?").
			WithArgs("abc.jpg").
			WillReturnRows(rows)

		f, err := repo.FindByFilename(ctx, "abc.jpg")

		assert.NoError(t, err)
		assert.NotNil(t, f)
		assert.Equal(t, "test-id", f.ID)
		assert.Equal(t, int64(3), f.Size)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM stored_files WHERE filename = ?").
			WithArgs("missing.png").
			WillReturnError(sql.ErrNoRows)

		f, err := repo.FindByFilename(ctx, "missing.png")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, f)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoredFilePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewStoredFilePostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM stored_files").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows(columns).
			AddRow("1", "a.png", "a.png", ".png", "a.png", 10, "image/png", time.Now()).
			AddRow("2", "b.jpg", "b.jpeg", ".jpeg", "b.jpg", 20, "image/jpeg", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM stored_files ORDER BY created_at DESC, id DESC LIMIT \\$1 OFFSET \\$2").
			WithArgs(10, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, "b.jpg", res.Items[1].Filename)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM stored_files").
			WillReturnError(errors.New("count failed"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	t.Run("scan error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM stored_files").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM stored_files").
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoredFilePostgres_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewStoredFilePostgres(db)

	mock.ExpectPing()
	assert.NoError(t, repo.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, repo.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
