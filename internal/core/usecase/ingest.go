package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-extraction/internal/core/domain"
	"github.com/kirillkom/document-extraction/internal/core/ports"
)

// IngestDocumentUseCase stores uploaded bytes, creates the pending record,
// and publishes the new-document trigger that starts the pipeline.
type IngestDocumentUseCase struct {
	store   ports.DocumentStore
	storage ports.ObjectStore
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	store ports.DocumentStore,
	storage ports.ObjectStore,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		store:   store,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	ownerID, filename, contentType string,
	body io.Reader,
) (*domain.Document, error) {
	documentID := uuid.NewString()
	storageKey := fmt.Sprintf("images/%s/%s_%s", ownerID, documentID, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		OwnerID:     ownerID,
		DocumentID:  documentID,
		FileName:    filename,
		FileURL:     storageKey,
		ContentType: contentType,
		Extraction: domain.ExtractedContent{
			Status: domain.StatusPending,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.store.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentCreated(ctx, domain.NewDocumentTrigger{
		OwnerID:    ownerID,
		DocumentID: documentID,
	}); err != nil {
		return nil, fmt.Errorf("publish new-document trigger: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
