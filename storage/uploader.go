package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("stored object not found")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит файлы (скриншоты результатов) и отдает их публичные URL.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
