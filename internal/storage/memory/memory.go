package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/utafrali/catalog-service/internal/domain"
	"github.com/utafrali/catalog-service/internal/storage"
	apperrors "github.com/utafrali/catalog-service/pkg/errors"
)

// fileEntry stores metadata about an uploaded file in memory.
type fileEntry struct {
	Key         string
	ContentType string
	Size        int64
	URL         string
}

// Storage implements storage.Storage using an in-memory map. It stores
// metadata only (no actual file bytes) for testing purposes.
type Storage struct {
	mu       sync.RWMutex
	files    map[string]*fileEntry
	basePath string
	seq      atomic.Int64
}

// New creates a new in-memory storage instance.
func New(basePath string) *Storage {
	return &Storage{
		files:    make(map[string]*fileEntry),
		basePath: basePath,
	}
}

// Upload stores file metadata in memory under a deterministic sequential key.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if !domain.IsAllowedImageContentType(input.ContentType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported content type: %s", input.ContentType))
	}

	key := fmt.Sprintf("%d-%s", s.seq.Add(1), input.OriginalName)
	url := s.basePath + "/" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[key] = &fileEntry{
		Key:         key,
		ContentType: input.ContentType,
		Size:        input.Size,
		URL:         url,
	}

	return &storage.UploadResult{Key: key, URL: url}, nil
}

// Delete removes file metadata from memory.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[key]; !exists {
		return apperrors.ErrNotFound
	}

	delete(s.files, key)
	return nil
}

// GetURL returns the URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.files[key]
	if !exists {
		return "", apperrors.ErrNotFound
	}

	return entry.URL, nil
}

// Len returns the number of stored files.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
