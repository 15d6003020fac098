package ocr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/document-extraction/internal/core/ports"
	"github.com/kirillkom/document-extraction/internal/infrastructure/resilience"
)

// Client talks to the asynchronous text-detection engine. Jobs are submitted
// with a notification subject the engine publishes to on completion; results
// are read back page by page with a cursor token.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	executor      *resilience.Executor
	onPageFetched func()
}

type Options struct {
	RequestTimeout time.Duration
	// PageFetchRate caps result polling; the engine throttles aggressive
	// readers with 429s.
	PageFetchRate      float64
	PageFetchBurst     int
	ResilienceExecutor *resilience.Executor
	// OnPageFetched is invoked after each successfully retrieved result page.
	OnPageFetched func()
}

func New(baseURL string, options Options) *Client {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	pageRate := options.PageFetchRate
	if pageRate <= 0 {
		pageRate = 5
	}
	burst := options.PageFetchBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: requestTimeout},
		limiter:       rate.NewLimiter(rate.Limit(pageRate), burst),
		executor:      options.ResilienceExecutor,
		onPageFetched: options.OnPageFetched,
	}
}

func (c *Client) SubmitJob(ctx context.Context, sourceKey, notifySubject string) (string, error) {
	request := map[string]string{
		"source_key":     sourceKey,
		"notify_subject": notifySubject,
	}
	var response struct {
		JobID string `json:"job_id"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/jobs", request, &response, "submit")
	}
	if err := c.execute(ctx, "ocr.submit", call); err != nil {
		return "", err
	}
	if response.JobID == "" {
		return "", fmt.Errorf("ocr submit returned empty job id")
	}
	return response.JobID, nil
}

func (c *Client) FetchPage(ctx context.Context, jobID, token string) (ports.OCRPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return ports.OCRPage{}, fmt.Errorf("ocr page rate wait: %w", err)
	}

	path := "/v1/jobs/" + url.PathEscape(jobID) + "/pages"
	if token != "" {
		path += "?token=" + url.QueryEscape(token)
	}

	var response struct {
		Blocks []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"blocks"`
		NextToken string `json:"next_token"`
	}

	call := func(callCtx context.Context) error {
		return c.getJSON(callCtx, path, &response, "fetch_page")
	}
	if err := c.execute(ctx, "ocr.fetch_page", call); err != nil {
		return ports.OCRPage{}, err
	}

	if c.onPageFetched != nil {
		c.onPageFetched()
	}

	page := ports.OCRPage{NextToken: response.NextToken}
	for _, block := range response.Blocks {
		page.Blocks = append(page.Blocks, ports.OCRBlock{
			Type: block.Type,
			Text: block.Text,
		})
	}
	return page, nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyOCRError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
