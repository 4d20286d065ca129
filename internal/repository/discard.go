package repository

import (
	"context"
	"database/sql"

	"imgdrop/internal/model"
)

// Discard is used when no database is configured. Create echoes the record
// back, lookups find nothing and List is always empty.
var Discard StoredFileRepository = discard{}

type discard struct{}

func (discard) Create(_ context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	out := *f
	return &out, nil
}

func (discard) FindByFilename(context.Context, string) (*model.StoredFile, error) {
	return nil, sql.ErrNoRows
}

func (discard) List(context.Context, PageQuery) (*PageResult[model.StoredFile], error) {
	return &PageResult[model.StoredFile]{Items: []model.StoredFile{}}, nil
}

func (discard) Ping(context.Context) error { return nil }
