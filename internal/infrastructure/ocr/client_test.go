package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

func TestSubmitJob(t *testing.T) {
	var captured map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/jobs" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-123"})
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	jobID, err := client.SubmitJob(context.Background(), "images/user-1/report.pdf", "ocr.completions")
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	if jobID != "job-123" {
		t.Fatalf("expected job-123, got %q", jobID)
	}
	if captured["source_key"] != "images/user-1/report.pdf" || captured["notify_subject"] != "ocr.completions" {
		t.Fatalf("unexpected submission payload: %v", captured)
	}
}

func TestSubmitJobRejectsEmptyJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	if _, err := client.SubmitJob(context.Background(), "images/u/f.pdf", "ocr.completions"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFetchPagePaginates(t *testing.T) {
	pages := 0
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job-123/pages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		tokens = append(tokens, r.URL.Query().Get("token"))
		pages++
		if pages == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"blocks":     []map[string]string{{"type": "LINE", "text": "Line1"}},
				"next_token": "page-2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"blocks": []map[string]string{{"type": "LINE", "text": "Line2"}},
		})
	}))
	defer server.Close()

	fetched := 0
	client := New(server.URL, Options{OnPageFetched: func() { fetched++ }})

	first, err := client.FetchPage(context.Background(), "job-123", "")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if first.NextToken != "page-2" || len(first.Blocks) != 1 || first.Blocks[0].Text != "Line1" {
		t.Fatalf("unexpected first page: %+v", first)
	}

	second, err := client.FetchPage(context.Background(), "job-123", first.NextToken)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if second.NextToken != "" || second.Blocks[0].Text != "Line2" {
		t.Fatalf("unexpected second page: %+v", second)
	}

	if tokens[0] != "" || tokens[1] != "page-2" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
	if fetched != 2 {
		t.Fatalf("expected 2 page callbacks, got %d", fetched)
	}
}

func TestFetchPageWrapsThrottlingAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, Options{})
	_, err := client.FetchPage(context.Background(), "job-123", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}
