package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type localDiskUploader struct {
	root       string
	publicBase *url.URL
}

// NewLocalDiskUploader stores objects under root and serves them from
// publicPath, which the router mounts as a file server.
func NewLocalDiskUploader(root, publicPath string) (FileUploader, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	base, err := url.Parse(publicPath)
	if err != nil {
		return nil, fmt.Errorf("invalid upload public path %q: %w", publicPath, err)
	}
	return &localDiskUploader{root: root, publicBase: base}, nil
}

func (u *localDiskUploader) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(u.root, clean), nil
}

func (u *localDiskUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	target, err := u.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", key, err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		_ = os.Remove(target)
		return nil, fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", key, err)
	}

	return &UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *localDiskUploader) Delete(ctx context.Context, key string) error {
	target, err := u.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (u *localDiskUploader) GetPublicURL(key string) string {
	return publicURL(u.publicBase, key)
}
