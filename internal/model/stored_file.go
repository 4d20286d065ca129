package model

import "time"

// StoredFile is an uploaded image persisted under a generated name.
// Filename is "<32 hex chars><ext>" and is never derived from client input;
// OriginalFilename is kept for reference only.
type StoredFile struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Extension        string    `json:"extension"`
	StoragePath      string    `json:"storage_path"`
	Size             int64     `json:"size"`
	ContentType      string    `json:"content_type"`
	CreatedAt        time.Time `json:"created_at"`
}
