package ollama

import "fmt"

func buildImageExtractionPrompt() string {
	return `Analyze the attached image.
Respond with exactly two sections using these markdown headers:

## Extracted Text
All text visible in the image, preserving line order. Leave the section empty if the image contains no text.

## Description
One or two sentences describing what the image shows.

No other sections, no preamble.`
}

func buildReconstructionPrompt(fileName, rawText string) string {
	return fmt.Sprintf(`The following is raw OCR output from the document %q.
Clean it up: fix OCR artifacts, merge broken lines, separate logical sections with blank lines, and preserve tables and lists as markdown.
Do not summarize, do not add commentary, return only the cleaned text.

Raw OCR output:
%s`, fileName, rawText)
}
