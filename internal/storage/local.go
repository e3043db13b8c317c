package storage

import (
	"context"
	"os"
	"path/filepath"
)

// LocalStorage writes images to a served directory. Used in development and
// when no S3 bucket is configured.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{dir: dir, baseURL: baseURL}, nil
}

func (l *LocalStorage) Save(_ context.Context, filename, _ string, data []byte) (string, error) {
	path := filepath.Join(l.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return l.baseURL + "/" + filepath.ToSlash(filepath.Join(filepath.Base(l.dir), filename)), nil
}
