package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/document-extraction/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	owner_id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	file_url TEXT NOT NULL,
	content_type TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT '',
	correlation_key TEXT NOT NULL DEFAULT '',
	extraction JSONB NOT NULL DEFAULT '{"status":"pending"}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner_id, document_id)
);

CREATE INDEX IF NOT EXISTS idx_documents_correlation_key ON documents(correlation_key) WHERE correlation_key <> '';
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	extractionJSON, err := json.Marshal(doc.Extraction)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	owner_id, document_id, file_name, file_url, content_type, kind, correlation_key, extraction, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.OwnerID, doc.DocumentID, doc.FileName, doc.FileURL, doc.ContentType, doc.Kind,
		doc.CorrelationKey, extractionJSON, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, ownerID, documentID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT owner_id, document_id, file_name, file_url, content_type, kind, correlation_key, extraction, created_at, updated_at
FROM documents
WHERE owner_id = $1 AND document_id = $2
`, ownerID, documentID)

	return scanDocument(row, fmt.Sprintf("%s/%s", ownerID, documentID))
}

// FindByJobID is the reverse lookup from an OCR job id to the record that
// submitted it, backed by the correlation-key index. Job ids are assumed
// globally unique per submission.
func (r *DocumentRepository) FindByJobID(ctx context.Context, jobID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT owner_id, document_id, file_name, file_url, content_type, kind, correlation_key, extraction, created_at, updated_at
FROM documents
WHERE correlation_key = $1
`, jobID)

	return scanDocument(row, "job "+jobID)
}

// UpdateExtraction merges the patch into the nested extraction object only.
// The JSONB concatenation is atomic per record and replay-safe.
func (r *DocumentRepository) UpdateExtraction(ctx context.Context, ownerID, documentID string, patch domain.ExtractionPatch) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal extraction patch: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET extraction = COALESCE(extraction, '{}'::jsonb) || $3::jsonb, updated_at = $4
WHERE owner_id = $1 AND document_id = $2
`, ownerID, documentID, patchJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update extraction: %w", err)
	}
	return requireRowAffected(result, fmt.Sprintf("%s/%s", ownerID, documentID))
}

func (r *DocumentRepository) AssignJob(ctx context.Context, ownerID, documentID, jobID string, startedAt time.Time) error {
	patchJSON, err := json.Marshal(domain.ExtractionPatch{
		Status:    domain.StatusProcessing,
		StartedAt: domain.TimePtr(startedAt),
	})
	if err != nil {
		return fmt.Errorf("marshal job patch: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET correlation_key = $3, extraction = COALESCE(extraction, '{}'::jsonb) || $4::jsonb, updated_at = $5
WHERE owner_id = $1 AND document_id = $2
`, ownerID, documentID, jobID, patchJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign job: %w", err)
	}
	return requireRowAffected(result, fmt.Sprintf("%s/%s", ownerID, documentID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, identity string) (*domain.Document, error) {
	var doc domain.Document
	var extractionRaw []byte

	err := row.Scan(
		&doc.OwnerID, &doc.DocumentID, &doc.FileName, &doc.FileURL, &doc.ContentType,
		&doc.Kind, &doc.CorrelationKey, &extractionRaw, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("no record for %s", identity))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := json.Unmarshal(extractionRaw, &doc.Extraction); err != nil {
		return nil, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return &doc, nil
}

func requireRowAffected(result sql.Result, identity string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("no record for %s", identity))
	}
	return nil
}
