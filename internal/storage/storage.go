package storage

import (
	"context"
	"io"
)

// Storage defines the interface for file storage operations.
type Storage interface {
	// Upload stores a file and returns the result with key and URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes a file by its key.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for the given key.
	GetURL(ctx context.Context, key string) (string, error)
}

// UploadInput holds the parameters for uploading a file.
type UploadInput struct {
	OriginalName string
	ContentType  string
	Size         int64
	Data         io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key string
	URL string
}

// UploadAll uploads the inputs sequentially and returns the results in input
// order. The first image in the result set becomes the product cover, so the
// order guarantee matters. On failure the already-stored files are removed.
func UploadAll(ctx context.Context, s Storage, inputs []*UploadInput) ([]*UploadResult, error) {
	results := make([]*UploadResult, 0, len(inputs))
	for _, input := range inputs {
		result, err := s.Upload(ctx, input)
		if err != nil {
			for _, stored := range results {
				_ = s.Delete(ctx, stored.Key)
			}
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
