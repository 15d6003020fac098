package localfs

import (
	"bytes"
	"context"
	"testing"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSaveAndFetch(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	if err := s.Save(ctx, "images/user-1/photo.png", bytes.NewReader([]byte("png-bytes"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, contentType, err := s.Fetch(ctx, "images/user-1/photo.png")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected data %q", data)
	}
	if contentType != "image/png" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestFetchUnknownExtensionFallsBack(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	if err := s.Save(ctx, "images/user-1/blob.bin", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, contentType, err := s.Fetch(ctx, "images/user-1/blob.bin")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if contentType != fallbackContentType {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestFetchMissingObject(t *testing.T) {
	s := newStorage(t)

	_, _, err := s.Fetch(context.Background(), "images/user-1/missing.png")
	if !domain.IsKind(err, domain.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "images/user-1/photo.png")
	if err != nil || ok {
		t.Fatalf("expected absent object, got ok=%v err=%v", ok, err)
	}

	if err := s.Save(ctx, "images/user-1/photo.png", bytes.NewReader([]byte("png"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ok, err = s.Exists(ctx, "images/user-1/photo.png")
	if err != nil || !ok {
		t.Fatalf("expected present object, got ok=%v err=%v", ok, err)
	}
}
