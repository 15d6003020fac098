package ollama

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-extraction/internal/core/domain"
	"github.com/kirillkom/document-extraction/internal/core/ports"
	"github.com/kirillkom/document-extraction/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	visionModel string
	genModel    string
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(baseURL, visionModel, genModel string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		visionModel: visionModel,
		genModel:    genModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

// WithExecutor routes generate calls through the resilience executor.
func (c *Client) WithExecutor(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

// InferenceService adapts the Ollama generate API to the pipeline's
// inference port: vision extraction for images, text reconstruction for OCR
// output.
type InferenceService struct {
	client *Client
}

func NewInferenceService(client *Client) *InferenceService {
	return &InferenceService{client: client}
}

func (s *InferenceService) ExtractImageContent(ctx context.Context, image ports.InlineImage) (domain.ImageExtraction, error) {
	raw, err := s.client.generateVision(ctx, buildImageExtractionPrompt(), image.Data)
	if err != nil {
		return domain.ImageExtraction{}, err
	}
	return parseImageExtraction(raw), nil
}

func (s *InferenceService) ReconstructText(ctx context.Context, fileName, rawText string) (string, error) {
	return s.client.generateText(ctx, buildReconstructionPrompt(fileName, rawText))
}

func (c *Client) generateVision(ctx context.Context, prompt string, imageData []byte) (string, error) {
	reqBody := map[string]any{
		"model":  c.visionModel,
		"prompt": prompt,
		"stream": false,
		"images": []string{base64.StdEncoding.EncodeToString(imageData)},
	}
	return c.generate(ctx, "generate_vision", reqBody)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, "generate", reqBody)
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}
