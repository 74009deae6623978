package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aqlhr/ingest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository wires a document repository backed by pgxpool.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) GetByHash(ctx context.Context, companyID uuid.UUID, contentHash string) (domain.Document, error) {
	var (
		doc          domain.Document
		metadataJSON []byte
		employeeID   pgtype.UUID
		createdAt    pgtype.Timestamptz
	)
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, company_id, content_hash, bucket, storage_path, content_type, file_size, language, portal, employee_id, extracted_text, metadata, status, created_at
		 FROM saudi_documents
		 WHERE company_id = $1 AND content_hash = $2`,
		companyID,
		contentHash,
	).Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.ContentHash,
		&doc.Bucket,
		&doc.StoragePath,
		&doc.ContentType,
		&doc.FileSize,
		&doc.Language,
		&doc.Portal,
		&employeeID,
		&doc.Text,
		&metadataJSON,
		&doc.Status,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, ErrNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to get document by hash: %w", err)
	}

	if employeeID.Valid {
		id := uuid.UUID(employeeID.Bytes)
		doc.EmployeeID = &id
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return domain.Document{}, fmt.Errorf("failed to unmarshal document metadata: %w", err)
		}
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	return doc, nil
}

func (r *documentRepository) Create(ctx context.Context, doc domain.Document) (domain.Document, error) {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to marshal document metadata: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO saudi_documents (id, company_id, content_hash, bucket, storage_path, content_type, file_size, language, portal, employee_id, extracted_text, metadata, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		doc.ID,
		doc.CompanyID,
		doc.ContentHash,
		doc.Bucket,
		doc.StoragePath,
		doc.ContentType,
		doc.FileSize,
		doc.Language,
		doc.Portal,
		doc.EmployeeID,
		doc.Text,
		metadataJSON,
		doc.Status,
		doc.CreatedAt,
	)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

type documentVectorRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentVectorRepository wires an embedding repository backed by
// pgxpool.
func NewDocumentVectorRepository(pool *pgxpool.Pool) DocumentVectorRepository {
	return &documentVectorRepository{pool: pool}
}

func (r *documentVectorRepository) Create(ctx context.Context, vector domain.DocumentVector) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO document_vectors (id, company_id, document_id, model, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		vector.ID,
		vector.CompanyID,
		vector.DocumentID,
		vector.Model,
		vector.Embedding,
		vector.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document vector: %w", err)
	}
	return nil
}
