package domain

import "time"

type ExtractionStatus string

const (
	StatusPending    ExtractionStatus = "pending"
	StatusProcessing ExtractionStatus = "processing"
	StatusCompleted  ExtractionStatus = "completed"
	StatusFailed     ExtractionStatus = "failed"
)

// Document is the durable record tracking one uploaded file. It is keyed by
// (OwnerID, DocumentID). CorrelationKey stays at the top level so the store
// can index it independently of the nested extraction object.
type Document struct {
	OwnerID        string           `json:"owner_id"`
	DocumentID     string           `json:"document_id"`
	FileName       string           `json:"file_name"`
	FileURL        string           `json:"file_url"`
	ContentType    string           `json:"content_type"`
	Kind           string           `json:"kind,omitempty"`
	CorrelationKey string           `json:"correlation_key,omitempty"`
	Extraction     ExtractedContent `json:"extraction"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type ExtractedContent struct {
	Status        ExtractionStatus `json:"status"`
	Text          string           `json:"text,omitempty"`
	Description   string           `json:"description,omitempty"`
	Error         string           `json:"error,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	ExtractedAt   *time.Time       `json:"extracted_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	RawTextLength *int             `json:"raw_text_length,omitempty"`
}

// ExtractionPatch is a partial merge-update of ExtractedContent. Fields left
// unset are not touched by the store, so replaying an identical patch leaves
// the record unchanged.
type ExtractionPatch struct {
	Status        ExtractionStatus `json:"status,omitempty"`
	Text          *string          `json:"text,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Error         *string          `json:"error,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	ExtractedAt   *time.Time       `json:"extracted_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	RawTextLength *int             `json:"raw_text_length,omitempty"`
}

func StringPtr(s string) *string     { return &s }
func IntPtr(n int) *int              { return &n }
func TimePtr(t time.Time) *time.Time { return &t }

// ImageExtraction is the result of the synchronous image pipeline.
type ImageExtraction struct {
	Text        string `json:"text"`
	Description string `json:"description"`
}
