package storage

import "context"

// Storage hosts uploaded images and returns a public URL for each object.
type Storage interface {
	Save(ctx context.Context, filename, contentType string, data []byte) (string, error)
}
