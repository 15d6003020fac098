package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-extraction/internal/core/domain"
	"github.com/kirillkom/document-extraction/internal/core/ports"
)

// DispatchUseCase routes heterogeneous trigger batches into the image or
// document pipeline. Items are processed sequentially; status writes are
// idempotent, so redelivering a whole batch after a single item failure is
// safe.
type DispatchUseCase struct {
	store  ports.DocumentStore
	images *ImageExtractionUseCase
	jobs   *DocumentJobUseCase
	logger *slog.Logger
}

func NewDispatchUseCase(
	store ports.DocumentStore,
	images *ImageExtractionUseCase,
	jobs *DocumentJobUseCase,
	logger *slog.Logger,
) *DispatchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchUseCase{
		store:  store,
		images: images,
		jobs:   jobs,
		logger: logger,
	}
}

func (uc *DispatchUseCase) DispatchBatch(ctx context.Context, batch []domain.TriggerRecord) (domain.BatchResult, error) {
	result := domain.BatchResult{
		BatchItemFailures: []domain.BatchItemFailure{},
		Results:           []domain.ItemResult{},
	}

	for _, item := range batch {
		outcome, err := uc.dispatchItem(ctx, item)
		if err != nil {
			// A record that no longer exists cannot be repaired by
			// redelivery; skip the item and keep the batch alive.
			if domain.IsKind(err, domain.ErrDocumentNotFound) {
				uc.logger.Warn("trigger_skipped",
					"item_id", item.ItemID(),
					"source", string(item.Source),
					"error", err,
				)
				result.BatchItemFailures = append(result.BatchItemFailures, domain.BatchItemFailure{
					ItemID: item.ItemID(),
					Error:  err.Error(),
				})
				continue
			}
			uc.logger.Error("trigger_failed",
				"item_id", item.ItemID(),
				"source", string(item.Source),
				"error", err,
			)
			return result, err
		}
		result.Results = append(result.Results, domain.ItemResult{
			ItemID: item.ItemID(),
			Status: "success",
			Result: outcome,
		})
	}

	return result, nil
}

func (uc *DispatchUseCase) dispatchItem(ctx context.Context, item domain.TriggerRecord) (any, error) {
	switch item.Source {
	case domain.SourceQueue:
		if item.NewDocument == nil {
			return nil, errors.New("queue trigger missing new-document payload")
		}
		return uc.handleNewDocument(ctx, *item.NewDocument)
	case domain.SourceNotification:
		if item.JobCompletion == nil {
			return nil, errors.New("notification trigger missing job-completion payload")
		}
		if err := uc.jobs.CompleteJob(ctx, *item.JobCompletion); err != nil {
			return nil, err
		}
		return map[string]string{"job_id": item.JobCompletion.JobID}, nil
	default:
		return nil, fmt.Errorf("unknown trigger source %q", item.Source)
	}
}

func (uc *DispatchUseCase) handleNewDocument(ctx context.Context, trigger domain.NewDocumentTrigger) (any, error) {
	doc, err := uc.store.Get(ctx, trigger.OwnerID, trigger.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	switch domain.ClassifyContent(doc.ContentType, doc.Kind) {
	case domain.ClassImage:
		return uc.runImagePipeline(ctx, doc)
	case domain.ClassPDF:
		jobID, err := uc.jobs.StartJob(ctx, doc)
		if err != nil {
			return nil, uc.failBeforeRaise(ctx, doc, err)
		}
		return map[string]string{"job_id": jobID}, nil
	default:
		// Terminal business outcome, not an exception: record it and move on.
		message := fmt.Sprintf("unsupported content type %q", doc.ContentType)
		uc.logger.Warn("unsupported_content",
			"owner_id", doc.OwnerID,
			"document_id", doc.DocumentID,
			"content_type", doc.ContentType,
		)
		now := time.Now().UTC()
		if err := uc.store.UpdateExtraction(ctx, doc.OwnerID, doc.DocumentID, domain.ExtractionPatch{
			Status:      domain.StatusFailed,
			Error:       domain.StringPtr(message),
			CompletedAt: domain.TimePtr(now),
		}); err != nil {
			return nil, fmt.Errorf("mark unsupported document failed: %w", err)
		}
		return map[string]string{"outcome": "unsupported"}, nil
	}
}

func (uc *DispatchUseCase) runImagePipeline(ctx context.Context, doc *domain.Document) (any, error) {
	now := time.Now().UTC()
	if err := uc.store.UpdateExtraction(ctx, doc.OwnerID, doc.DocumentID, domain.ExtractionPatch{
		Status:    domain.StatusProcessing,
		StartedAt: domain.TimePtr(now),
	}); err != nil {
		return nil, fmt.Errorf("set status=processing: %w", err)
	}

	extraction, err := uc.images.ProcessImage(ctx, doc)
	if err != nil {
		return nil, uc.failBeforeRaise(ctx, doc, err)
	}

	if err := uc.store.UpdateExtraction(ctx, doc.OwnerID, doc.DocumentID, domain.ExtractionPatch{
		Status:      domain.StatusCompleted,
		Text:        domain.StringPtr(extraction.Text),
		Description: domain.StringPtr(extraction.Description),
		ExtractedAt: domain.TimePtr(time.Now().UTC()),
	}); err != nil {
		return nil, fmt.Errorf("set status=completed: %w", err)
	}
	return extraction, nil
}

// failBeforeRaise records the failure on the document before the error is
// re-raised to the batch boundary for redelivery.
func (uc *DispatchUseCase) failBeforeRaise(ctx context.Context, doc *domain.Document, cause error) error {
	now := time.Now().UTC()
	if err := uc.store.UpdateExtraction(ctx, doc.OwnerID, doc.DocumentID, domain.ExtractionPatch{
		Status:      domain.StatusFailed,
		Error:       domain.StringPtr(cause.Error()),
		CompletedAt: domain.TimePtr(now),
	}); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, err)
	}
	return cause
}
