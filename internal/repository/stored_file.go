package repository

import (
	"context"

	"imgdrop/internal/model"
)

// Package repository contains persistence for stored-file metadata.
// The image bytes themselves live in storage; rows here are a catalogue only.

// StoredFileRepository defines data access for stored-file records.
// No business logic here, only persistence.
type StoredFileRepository interface {
	// Create inserts a new record and returns it as stored.
	Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error)

	// FindByFilename returns the record for a generated filename.
	FindByFilename(ctx context.Context, filename string) (*model.StoredFile, error)

	// List returns a page of records, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.StoredFile], error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
