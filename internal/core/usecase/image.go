package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/document-extraction/internal/core/domain"
	"github.com/kirillkom/document-extraction/internal/core/ports"
)

// Media types the vision model is known to accept. Anything else is sent as
// JPEG rather than failing the pipeline on an exotic declared type.
var visionMediaTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

const defaultVisionMediaType = "image/jpeg"

// ImageExtractionUseCase is the synchronous image pipeline: fetch bytes,
// run vision inference, return text + description. It never writes the
// document record; the dispatcher owns status persistence.
type ImageExtractionUseCase struct {
	storage ports.ObjectStore
	llm     ports.InferenceService
}

func NewImageExtractionUseCase(storage ports.ObjectStore, llm ports.InferenceService) *ImageExtractionUseCase {
	return &ImageExtractionUseCase{
		storage: storage,
		llm:     llm,
	}
}

func (uc *ImageExtractionUseCase) ProcessImage(ctx context.Context, doc *domain.Document) (domain.ImageExtraction, error) {
	key, err := domain.StorageKeyFromRef(doc.FileURL)
	if err != nil {
		return domain.ImageExtraction{}, err
	}

	data, contentType, err := uc.storage.Fetch(ctx, key)
	if err != nil {
		return domain.ImageExtraction{}, fmt.Errorf("fetch image bytes: %w", err)
	}

	extraction, err := uc.llm.ExtractImageContent(ctx, ports.InlineImage{
		MediaType: normalizeMediaType(contentType),
		Data:      data,
	})
	if err != nil {
		return domain.ImageExtraction{}, fmt.Errorf("vision inference: %w", err)
	}
	return extraction, nil
}

func normalizeMediaType(contentType string) string {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	if _, ok := visionMediaTypes[normalized]; ok {
		return normalized
	}
	return defaultVisionMediaType
}
