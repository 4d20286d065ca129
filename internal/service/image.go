package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"imgdrop/internal/model"
	"imgdrop/internal/repository"
	"imgdrop/internal/storage"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrNotFound             = errors.New("file not found")
	ErrReaderNil            = errors.New("reader is nil")
)

// MetaOriginalFilename is the ObjectInfo.Metadata key carrying the client's filename.
const MetaOriginalFilename = "original-filename"

// allowedExtensions is the upload allow-list. Keys are lower-case with the dot.
var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ValidationError reports an upload rejected before anything was written.
type ValidationError struct {
	Extension string
	Err       error
}

func (e *ValidationError) Error() string {
	return "only png, jpg, jpeg files are allowed"
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UploadRequest is one file taken from a multipart upload.
type UploadRequest struct {
	Reader io.Reader
	// Filename is the client-supplied name; only its extension is used.
	Filename string
	// Size is the byte count if known, -1 otherwise.
	Size int64
}

// FileListResult is the service-level DTO for paginated stored files.
type FileListResult struct {
	Items []model.StoredFile `json:"data"`
	Total int                `json:"total"`
}

// ImageService defines the use cases for uploaded images.
type ImageService interface {
	// Upload validates the extension, writes the bytes under a generated name
	// and records the file. A *ValidationError means nothing was stored.
	Upload(ctx context.Context, req UploadRequest) (*model.StoredFile, error)

	// Open returns the stored bytes for a generated filename. The caller closes the reader.
	// When the file is catalogued, the recorded content type and original
	// filename are reported in the returned info.
	Open(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error)

	// List returns stored-file records using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*FileListResult, error)

	// Ping checks storage and the metadata store.
	Ping(ctx context.Context) error
}

type imageService struct {
	store storage.Storage
	repo  repository.StoredFileRepository
	now   func() time.Time
	newID func() uuid.UUID
}

// NewImageService constructs a new ImageService. Pass repository.Discard when
// no metadata store is configured.
func NewImageService(store storage.Storage, repo repository.StoredFileRepository) ImageService {
	return &imageService{store: store, repo: repo, now: time.Now, newID: uuid.New}
}

// NormalizeExtension returns the lower-cased extension of filename and
// whether it is on the allow-list. Leading dots belong to the stem, so
// ".png" has no extension while ".hidden.png" has ".png".
func NormalizeExtension(filename string) (string, bool) {
	stem := strings.TrimLeft(filepath.Base(filename), ".")
	ext := strings.ToLower(filepath.Ext(stem))
	_, ok := allowedExtensions[ext]
	return ext, ok
}

// ContentTypeFor returns the content type served for a stored filename.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := allowedExtensions[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// generateName returns 32 lower-case hex characters followed by ext.
func (s *imageService) generateName(ext string) string {
	id := s.newID()
	return hex.EncodeToString(id[:]) + ext
}

func (s *imageService) Upload(ctx context.Context, req UploadRequest) (*model.StoredFile, error) {
	ext, ok := NormalizeExtension(req.Filename)
	if !ok {
		return nil, &ValidationError{Extension: ext, Err: ErrUnsupportedExtension}
	}
	if req.Reader == nil {
		return nil, ErrReaderNil
	}

	name := s.generateName(ext)
	contentType := allowedExtensions[ext]

	objInfo, err := s.store.Put(ctx, name, req.Reader, storage.PutObjectOptions{
		Size:        req.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			MetaOriginalFilename: req.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	rec := &model.StoredFile{
		ID:               uuid.New().String(),
		Filename:         name,
		OriginalFilename: req.Filename,
		Extension:        ext,
		StoragePath:      objInfo.Key,
		Size:             objInfo.Size,
		ContentType:      contentType,
		CreatedAt:        s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, rec)
	if err != nil {
		// Roll back with a fresh context; the request one may be the cause.
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if delErr := s.store.Delete(delCtx, name); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *imageService) Open(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error) {
	if filename == "" {
		return nil, storage.ObjectInfo{}, ErrNotFound
	}
	rc, info, err := s.store.Get(ctx, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ObjectInfo{}, ErrNotFound
		}
		return nil, storage.ObjectInfo{}, err
	}

	// Storage holds the bytes; a missing or unreachable catalogue entry only
	// loses the extra metadata.
	if rec, err := s.repo.FindByFilename(ctx, filename); err == nil && rec != nil {
		if rec.ContentType != "" {
			info.ContentType = rec.ContentType
		}
		if rec.OriginalFilename != "" {
			meta := make(map[string]string, len(info.Metadata)+1)
			for k, v := range info.Metadata {
				meta[k] = v
			}
			meta[MetaOriginalFilename] = rec.OriginalFilename
			info.Metadata = meta
		}
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) && ctx.Err() != nil {
		rc.Close()
		return nil, storage.ObjectInfo{}, ctx.Err()
	}

	if info.ContentType == "" || info.ContentType == "application/octet-stream" {
		info.ContentType = ContentTypeFor(filename)
	}
	return rc, info, nil
}

func (s *imageService) List(ctx context.Context, limit, offset int) (*FileListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &FileListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *imageService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}
