package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/document-extraction/internal/core/domain"
	"github.com/kirillkom/document-extraction/internal/core/ports"
)

const (
	// Reconstruction prompts are capped; anything beyond this is cut and
	// marked, while the recorded raw length keeps the original size.
	maxReconstructionInput = 100_000
	truncationMarker       = "\n\n[truncated]"

	lineBlockType = "LINE"
)

// DocumentJobUseCase is the asynchronous document pipeline. StartJob and
// CompleteJob are independent entry points tied together by the job id
// written to the record's top-level correlation key.
type DocumentJobUseCase struct {
	store         ports.DocumentStore
	ocr           ports.OCRService
	llm           ports.InferenceService
	notifySubject string
	logger        *slog.Logger
}

func NewDocumentJobUseCase(
	store ports.DocumentStore,
	ocr ports.OCRService,
	llm ports.InferenceService,
	notifySubject string,
	logger *slog.Logger,
) *DocumentJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentJobUseCase{
		store:         store,
		ocr:           ocr,
		llm:           llm,
		notifySubject: notifySubject,
		logger:        logger,
	}
}

// StartJob submits text detection for the document's stored bytes and
// records the returned job id as the correlation key. It does not wait for
// the job to finish; completion arrives later as a separate trigger.
func (uc *DocumentJobUseCase) StartJob(ctx context.Context, doc *domain.Document) (string, error) {
	key, err := domain.StorageKeyFromRef(doc.FileURL)
	if err != nil {
		return "", err
	}

	jobID, err := uc.ocr.SubmitJob(ctx, key, uc.notifySubject)
	if err != nil {
		return "", fmt.Errorf("submit ocr job: %w", err)
	}

	if err := uc.store.AssignJob(ctx, doc.OwnerID, doc.DocumentID, jobID, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("assign job %s: %w", jobID, err)
	}

	uc.logger.Info("ocr_job_started",
		"owner_id", doc.OwnerID,
		"document_id", doc.DocumentID,
		"job_id", jobID,
	)
	return jobID, nil
}

// CompleteJob reconciles an out-of-band completion signal against the record
// that started the job. A job id with no owning record yields
// ErrDocumentNotFound; the caller decides whether that aborts the batch.
func (uc *DocumentJobUseCase) CompleteJob(ctx context.Context, trigger domain.JobCompletionTrigger) error {
	doc, err := uc.store.FindByJobID(ctx, trigger.JobID)
	if err != nil {
		return fmt.Errorf("resolve job %s: %w", trigger.JobID, err)
	}

	now := time.Now().UTC()
	if trigger.Status == domain.JobFailed {
		return uc.store.UpdateExtraction(ctx, doc.OwnerID, doc.DocumentID, domain.ExtractionPatch{
			Status:      domain.StatusFailed,
			Error:       domain.StringPtr("text detection job reported failure"),
			CompletedAt: domain.TimePtr(now),
		})
	}

	rawText, err := uc.collectText(ctx, trigger.JobID)
	if err != nil {
		return fmt.Errorf("collect ocr output for job %s: %w", trigger.JobID, err)
	}

	// An empty scan is a valid outcome, not a failure.
	if strings.TrimSpace(rawText) == "" {
		return uc.store.UpdateExtraction(ctx, doc.OwnerID, doc.DocumentID, domain.ExtractionPatch{
			Status:        domain.StatusCompleted,
			Text:          domain.StringPtr(""),
			RawTextLength: domain.IntPtr(0),
			ExtractedAt:   domain.TimePtr(now),
			CompletedAt:   domain.TimePtr(now),
		})
	}

	input := rawText
	if len(input) > maxReconstructionInput {
		input = input[:maxReconstructionInput] + truncationMarker
	}

	text, err := uc.llm.ReconstructText(ctx, doc.FileName, input)
	if err != nil {
		return fmt.Errorf("reconstruct text for job %s: %w", trigger.JobID, err)
	}

	uc.logger.Info("ocr_job_completed",
		"owner_id", doc.OwnerID,
		"document_id", doc.DocumentID,
		"job_id", trigger.JobID,
		"raw_text_length", len(rawText),
	)
	return uc.store.UpdateExtraction(ctx, doc.OwnerID, doc.DocumentID, domain.ExtractionPatch{
		Status:        domain.StatusCompleted,
		Text:          domain.StringPtr(text),
		RawTextLength: domain.IntPtr(len(rawText)),
		ExtractedAt:   domain.TimePtr(now),
	})
}

// collectText drains the paginated job output, keeping line-level blocks in
// source order. Word and cell blocks duplicate line content and are skipped.
func (uc *DocumentJobUseCase) collectText(ctx context.Context, jobID string) (string, error) {
	var lines []string
	token := ""
	for {
		page, err := uc.ocr.FetchPage(ctx, jobID, token)
		if err != nil {
			return "", fmt.Errorf("fetch ocr page: %w", err)
		}
		for _, block := range page.Blocks {
			if block.Type == lineBlockType {
				lines = append(lines, block.Text)
			}
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}
	return strings.Join(lines, "\n"), nil
}
