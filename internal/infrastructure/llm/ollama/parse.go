package ollama

import (
	"regexp"
	"strings"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

// Markers are matched leniently: optional markdown headers, bold asterisks,
// trailing colon, any case. Models do not reliably echo the exact prompt
// format back.
var (
	extractedTextMarker = regexp.MustCompile(`(?im)^\s*#{0,6}\s*\*{0,2}extracted text\*{0,2}\s*:?\s*$`)
	descriptionMarker   = regexp.MustCompile(`(?im)^\s*#{0,6}\s*\*{0,2}description\*{0,2}\s*:?\s*$`)
)

// parseImageExtraction splits the model response into text and description
// sections. When neither marker is present the whole response becomes the
// text, so a format mismatch never drops model output.
func parseImageExtraction(raw string) domain.ImageExtraction {
	textLoc := extractedTextMarker.FindStringIndex(raw)
	descLoc := descriptionMarker.FindStringIndex(raw)

	switch {
	case textLoc != nil && descLoc != nil && textLoc[1] <= descLoc[0]:
		return domain.ImageExtraction{
			Text:        strings.TrimSpace(raw[textLoc[1]:descLoc[0]]),
			Description: strings.TrimSpace(raw[descLoc[1]:]),
		}
	case textLoc != nil:
		return domain.ImageExtraction{
			Text: strings.TrimSpace(raw[textLoc[1]:]),
		}
	case descLoc != nil:
		return domain.ImageExtraction{
			Text:        strings.TrimSpace(raw[:descLoc[0]]),
			Description: strings.TrimSpace(raw[descLoc[1]:]),
		}
	default:
		return domain.ImageExtraction{Text: strings.TrimSpace(raw)}
	}
}
