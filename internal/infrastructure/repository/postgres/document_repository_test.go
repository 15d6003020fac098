package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewDocumentRepository(db), mock
}

func documentColumns() []string {
	return []string{
		"owner_id", "document_id", "file_name", "file_url", "content_type",
		"kind", "correlation_key", "extraction", "created_at", "updated_at",
	}
}

func TestCreateInsertsDocument(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("user-1", "doc-1", "photo.png", "https://host/images/user-1/photo.png",
			"image/png", "", "", sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.Document{
		OwnerID:     "user-1",
		DocumentID:  "doc-1",
		FileName:    "photo.png",
		FileURL:     "https://host/images/user-1/photo.png",
		ContentType: "image/png",
		Extraction:  domain.ExtractedContent{Status: domain.StatusPending},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetReturnsDocument(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(documentColumns()).AddRow(
		"user-1", "doc-1", "report.pdf", "https://host/images/user-1/report.pdf",
		"application/pdf", "", "job-9", []byte(`{"status":"processing"}`), now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("user-1", "doc-1").
		WillReturnRows(rows)

	doc, err := repo.Get(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.CorrelationKey != "job-9" {
		t.Fatalf("unexpected correlation key %q", doc.CorrelationKey)
	}
	if doc.Extraction.Status != domain.StatusProcessing {
		t.Fatalf("unexpected status %q", doc.Extraction.Status)
	}
}

func TestGetMissingDocument(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("user-1", "nope").
		WillReturnRows(sqlmock.NewRows(documentColumns()))

	_, err := repo.Get(context.Background(), "user-1", "nope")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestFindByJobID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(documentColumns()).AddRow(
		"user-1", "doc-1", "report.pdf", "https://host/images/user-1/report.pdf",
		"application/pdf", "", "job-9", []byte(`{"status":"processing"}`), now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("job-9").
		WillReturnRows(rows)

	doc, err := repo.FindByJobID(context.Background(), "job-9")
	if err != nil {
		t.Fatalf("FindByJobID() error = %v", err)
	}
	if doc.OwnerID != "user-1" || doc.DocumentID != "doc-1" {
		t.Fatalf("wrong document resolved: %s/%s", doc.OwnerID, doc.DocumentID)
	}
}

func TestFindByJobIDUnknown(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("job-missing").
		WillReturnRows(sqlmock.NewRows(documentColumns()))

	_, err := repo.FindByJobID(context.Background(), "job-missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestUpdateExtractionMergesPatch(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs("user-1", "doc-1", []byte(`{"status":"completed","text":"hello"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateExtraction(context.Background(), "user-1", "doc-1", domain.ExtractionPatch{
		Status: domain.StatusCompleted,
		Text:   domain.StringPtr("hello"),
	})
	if err != nil {
		t.Fatalf("UpdateExtraction() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateExtractionMissingDocument(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("UPDATE documents").
		WithArgs("user-1", "nope", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateExtraction(context.Background(), "user-1", "nope", domain.ExtractionPatch{
		Status: domain.StatusFailed,
	})
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestAssignJobWritesCorrelationKey(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	started := time.Now().UTC()

	mock.ExpectExec("UPDATE documents").
		WithArgs("user-1", "doc-1", "job-9", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AssignJob(context.Background(), "user-1", "doc-1", "job-9", started); err != nil {
		t.Fatalf("AssignJob() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
