package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

// DocumentStore persists document records. UpdateExtraction is a partial
// merge of the nested extraction object only; it never clobbers top-level
// fields and is safe to replay with identical patches.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, ownerID, documentID string) (*domain.Document, error)
	// FindByJobID resolves the record owning an OCR job via the top-level
	// correlation-key index. Missing job ids map to ErrDocumentNotFound.
	FindByJobID(ctx context.Context, jobID string) (*domain.Document, error)
	UpdateExtraction(ctx context.Context, ownerID, documentID string, patch domain.ExtractionPatch) error
	// AssignJob writes the top-level correlation key and moves the record to
	// processing in a single update.
	AssignJob(ctx context.Context, ownerID, documentID, jobID string, startedAt time.Time) error
}

// ObjectStore holds the raw uploaded bytes.
type ObjectStore interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Fetch(ctx context.Context, key string) (data []byte, contentType string, err error)
	Exists(ctx context.Context, key string) (bool, error)
}

// OCRPage is one page of results from the asynchronous OCR engine.
type OCRPage struct {
	Blocks    []OCRBlock
	NextToken string
}

type OCRBlock struct {
	Type string
	Text string
}

// OCRService submits and reads asynchronous text-detection jobs. SubmitJob
// registers notifySubject as the completion channel and returns the opaque
// job identifier used later to correlate the completion signal.
type OCRService interface {
	SubmitJob(ctx context.Context, sourceKey, notifySubject string) (jobID string, err error)
	FetchPage(ctx context.Context, jobID, token string) (OCRPage, error)
}

// InlineImage is media attached to a vision inference call.
type InlineImage struct {
	MediaType string
	Data      []byte
}

// InferenceService is the text-generation collaborator. ExtractImageContent
// runs the fixed two-section vision prompt and parses the model output;
// ReconstructText cleans already-truncated OCR text for a named file.
type InferenceService interface {
	ExtractImageContent(ctx context.Context, image InlineImage) (domain.ImageExtraction, error)
	ReconstructText(ctx context.Context, fileName, rawText string) (string, error)
}

// MessageQueue carries pipeline triggers.
type MessageQueue interface {
	PublishDocumentCreated(ctx context.Context, trigger domain.NewDocumentTrigger) error
	SubscribeTriggers(ctx context.Context, handler func(context.Context, domain.TriggerRecord) error) error
}
