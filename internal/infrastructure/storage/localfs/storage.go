package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

const fallbackContentType = "application/octet-stream"

// Storage is a filesystem-backed object store. Keys are slash-separated
// paths (images/{owner}/{file}) rooted at basePath.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Fetch(_ context.Context, key string) ([]byte, string, error) {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", domain.WrapError(domain.ErrObjectNotFound, "fetch object", fmt.Errorf("no object at %s", key))
		}
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return data, contentTypeForKey(key), nil
}

func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return true, nil
}

func contentTypeForKey(key string) string {
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		return fallbackContentType
	}
	return contentType
}
