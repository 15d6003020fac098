package ollama

import "testing"

func TestParseImageExtractionBothSections(t *testing.T) {
	raw := "## Extracted Text\nHello\n## Description\nA photo"
	got := parseImageExtraction(raw)
	if got.Text != "Hello" {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.Description != "A photo" {
		t.Fatalf("unexpected description: %q", got.Description)
	}
}

func TestParseImageExtractionTolerantMarkers(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"bold", "**Extracted Text**\nHello\n**Description**\nA photo"},
		{"lowercase colon", "extracted text:\nHello\ndescription:\nA photo"},
		{"deep header", "### Extracted Text\nHello\n### Description\nA photo"},
	}
	for _, tc := range cases {
		got := parseImageExtraction(tc.raw)
		if got.Text != "Hello" || got.Description != "A photo" {
			t.Fatalf("%s: unexpected result %+v", tc.name, got)
		}
	}
}

func TestParseImageExtractionNoMarkersKeepsEverything(t *testing.T) {
	raw := "The sign says OPEN and the photo shows a storefront."
	got := parseImageExtraction(raw)
	if got.Text != raw {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.Description != "" {
		t.Fatalf("expected empty description, got %q", got.Description)
	}
}

func TestParseImageExtractionDescriptionOnly(t *testing.T) {
	raw := "Some leading text\n## Description\nA chart"
	got := parseImageExtraction(raw)
	if got.Text != "Some leading text" {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.Description != "A chart" {
		t.Fatalf("unexpected description: %q", got.Description)
	}
}

func TestParseImageExtractionEmptyTextSection(t *testing.T) {
	raw := "## Extracted Text\n\n## Description\nNo text in this image"
	got := parseImageExtraction(raw)
	if got.Text != "" {
		t.Fatalf("expected empty text, got %q", got.Text)
	}
	if got.Description != "No text in this image" {
		t.Fatalf("unexpected description: %q", got.Description)
	}
}
