package mocks

import (
	"context"

	"imgdrop/internal/model"
	"imgdrop/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockStoredFileRepository struct {
	mock.Mock
}

func (m *MockStoredFileRepository) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockStoredFileRepository) FindByFilename(ctx context.Context, filename string) (*model.StoredFile, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockStoredFileRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.StoredFile], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.StoredFile]), args.Error(1)
}

func (m *MockStoredFileRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
