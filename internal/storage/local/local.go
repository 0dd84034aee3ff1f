package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/utafrali/catalog-service/internal/domain"
	"github.com/utafrali/catalog-service/internal/storage"
	apperrors "github.com/utafrali/catalog-service/pkg/errors"
	"github.com/utafrali/catalog-service/pkg/slug"
)

// Storage implements storage.Storage on the local filesystem. Files are
// written under root and served from basePath by the static file route.
type Storage struct {
	root     string
	basePath string
	logger   *slog.Logger
}

// New creates a local-disk storage rooted at the given directory, creating it
// if needed.
func New(root, basePath string, logger *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Storage{
		root:     root,
		basePath: strings.TrimSuffix(basePath, "/"),
		logger:   logger,
	}, nil
}

// Upload validates the content type and size, then writes the file under a
// collision-resistant name derived from the upload time and original name.
// Validation failures happen before anything touches the disk.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if !domain.IsAllowedImageContentType(input.ContentType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported content type: %s", input.ContentType))
	}
	if input.Size > domain.MaxImageFileSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file exceeds maximum size of %d bytes", domain.MaxImageFileSize))
	}

	key := generateKey(input.OriginalName)

	dst, err := os.Create(filepath.Join(s.root, key))
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, input.Data); err != nil {
		_ = dst.Close()
		_ = os.Remove(filepath.Join(s.root, key))
		return nil, fmt.Errorf("write file: %w", err)
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(filepath.Join(s.root, key))
		return nil, fmt.Errorf("close file: %w", err)
	}

	s.logger.DebugContext(ctx, "file stored",
		slog.String("key", key),
		slog.String("content_type", input.ContentType),
		slog.Int64("size", input.Size),
	)

	return &storage.UploadResult{
		Key: key,
		URL: s.basePath + "/" + key,
	}, nil
}

// Delete removes a stored file by its key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	// Keys are generated server-side, but reject path traversal anyway.
	if key != filepath.Base(key) {
		return apperrors.InvalidInput("invalid storage key")
	}

	if err := os.Remove(filepath.Join(s.root, key)); err != nil {
		if os.IsNotExist(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}

	return nil
}

// GetURL returns the public URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	return s.basePath + "/" + key, nil
}

// Root returns the directory files are written to, for static serving.
func (s *Storage) Root() string {
	return s.root
}

func generateKey(originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	base := strings.TrimSuffix(originalName, path.Ext(originalName))

	name := slug.Generate(base)
	if name == "" {
		name = "file"
	}

	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), name, ext)
}
