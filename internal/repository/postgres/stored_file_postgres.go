package postgres

import (
	"context"
	"database/sql"

	"imgdrop/internal/model"
	"imgdrop/internal/repository"
)

// StoredFilePostgres is a PostgreSQL implementation of repository.StoredFileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type StoredFilePostgres struct {
	db *sql.DB
}

// NewStoredFilePostgres creates a new StoredFilePostgres repository.
func NewStoredFilePostgres(db *sql.DB) *StoredFilePostgres {
	return &StoredFilePostgres{db: db}
}

var _ repository.StoredFileRepository = (*StoredFilePostgres)(nil)

const storedFileColumns = `id, filename, original_filename, extension, storage_path, size, content_type, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanStoredFile(s scanner) (*model.StoredFile, error) {
	var f model.StoredFile
	if err := s.Scan(
		&f.ID,
		&f.Filename,
		&f.OriginalFilename,
		&f.Extension,
		&f.StoragePath,
		&f.Size,
		&f.ContentType,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new stored_files row and returns the stored record.
func (r *StoredFilePostgres) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	const q = `
		INSERT INTO stored_files (` + storedFileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + storedFileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.Filename,
		f.OriginalFilename,
		f.Extension,
		f.StoragePath,
		f.Size,
		f.ContentType,
		f.CreatedAt,
	)
	return scanStoredFile(row)
}

// FindByFilename fetches a single record by its generated filename.
// sql.ErrNoRows is returned unchanged when nothing matches.
func (r *StoredFilePostgres) FindByFilename(ctx context.Context, filename string) (*model.StoredFile, error) {
	const q = `SELECT ` + storedFileColumns + ` FROM stored_files WHERE filename = $1`
	return scanStoredFile(r.db.QueryRowContext(ctx, q, filename))
}

// List returns records using LIMIT/OFFSET pagination and a total count.
func (r *StoredFilePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.StoredFile], error) {
	const qCount = `SELECT COUNT(*) FROM stored_files`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + storedFileColumns + `
		FROM stored_files
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.StoredFile, 0)
	for rows.Next() {
		f, err := scanStoredFile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.StoredFile]{
		Items: items,
		Total: total,
	}, nil
}

// Ping checks database connectivity.
func (r *StoredFilePostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
