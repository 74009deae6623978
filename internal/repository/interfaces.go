package repository

import (
	"context"
	"errors"

	"github.com/aqlhr/ingest/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ImportJobRepository persists the ledger of import invocations.
type ImportJobRepository interface {
	Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (domain.ImportJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error
	// AddCounts atomically increments the job's processed/success/failed
	// counters. Increments are scoped by job id, so concurrent different
	// jobs never interfere.
	AddCounts(ctx context.Context, id uuid.UUID, processed, success, failed int) error
}

// RowCommit records the outcome of one successfully committed row.
type RowCommit struct {
	RowID       uuid.UUID
	InsertedIDs []uuid.UUID
}

// ImportRowRepository persists per-row diagnostics.
type ImportRowRepository interface {
	// BulkInsert persists diagnostics rows, splitting into bounded chunks
	// to respect transport payload limits.
	BulkInsert(ctx context.Context, rows []domain.ImportRow) error
	// MarkCommitted records the persisted ids for rows whose batch
	// committed. Each row is updated at most once.
	MarkCommitted(ctx context.Context, commits []RowCommit) error
	// MarkFailed annotates rows with a batch- or row-level error message.
	MarkFailed(ctx context.Context, rowIDs []uuid.UUID, message string) error
	ListByJob(ctx context.Context, companyID, jobID uuid.UUID, limit, offset int) ([]domain.ImportRow, error)
}

// EmployeeRepository commits employee batches with insert-or-update
// semantics. Each method targets a different uniqueness constraint, so
// callers split batches by which upsert key a row carries.
type EmployeeRepository interface {
	UpsertByIqama(ctx context.Context, employees []domain.Employee) ([]uuid.UUID, error)
	UpsertByEmployeeCode(ctx context.Context, employees []domain.Employee) ([]uuid.UUID, error)
}

// GovDocumentRepository commits government document link batches.
// Inserts are append-only; no deduplication is attempted.
type GovDocumentRepository interface {
	InsertBatch(ctx context.Context, docs []domain.GovDocument) ([]uuid.UUID, error)
}

// DocumentRepository stores content-addressed document records.
type DocumentRepository interface {
	GetByHash(ctx context.Context, companyID uuid.UUID, contentHash string) (domain.Document, error)
	Create(ctx context.Context, doc domain.Document) (domain.Document, error)
}

// DocumentVectorRepository stores document embeddings.
type DocumentVectorRepository interface {
	Create(ctx context.Context, vector domain.DocumentVector) error
}

// Credential is a resolved API credential. Label is the human-readable
// name the credential was issued under, empty when none was set.
type Credential struct {
	CompanyID uuid.UUID
	Label     string
}

// CredentialRepository resolves API credentials to their company scope.
type CredentialRepository interface {
	// ResolveTokenHash returns the credential bound to the given SHA-256
	// token hash, or ErrNotFound when the credential is unknown.
	ResolveTokenHash(ctx context.Context, tokenHash string) (Credential, error)
}
