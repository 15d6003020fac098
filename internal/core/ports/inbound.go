package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

// TriggerDispatcher is the inbound contract for pipeline trigger batches.
type TriggerDispatcher interface {
	DispatchBatch(ctx context.Context, batch []domain.TriggerRecord) (domain.BatchResult, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	Get(ctx context.Context, ownerID, documentID string) (*domain.Document, error)
}
