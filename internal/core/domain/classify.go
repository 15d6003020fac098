package domain

import "strings"

type ContentClass string

const (
	ClassPDF         ContentClass = "pdf"
	ClassImage       ContentClass = "image"
	ClassUnsupported ContentClass = "unsupported"
)

const pdfMIMEType = "application/pdf"

// ClassifyContent picks the pipeline branch from the declared content type
// and the coarse kind hint. PDF wins when both could match.
func ClassifyContent(contentType, kind string) ContentClass {
	if contentType == pdfMIMEType || kind == "pdf" {
		return ClassPDF
	}
	if strings.HasPrefix(contentType, "image/") || kind == "image" {
		return ClassImage
	}
	return ClassUnsupported
}
