package repository

import (
	"context"
	"fmt"

	"github.com/aqlhr/ingest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type govDocumentRepository struct {
	pool *pgxpool.Pool
}

// NewGovDocumentRepository wires a government document repository backed
// by pgxpool.
func NewGovDocumentRepository(pool *pgxpool.Pool) GovDocumentRepository {
	return &govDocumentRepository{pool: pool}
}

// InsertBatch appends document link records. There is no uniqueness
// constraint on (bucket, path); identical rows produce new records.
func (r *govDocumentRepository) InsertBatch(ctx context.Context, docs []domain.GovDocument) ([]uuid.UUID, error) {
	if len(docs) == 0 {
		return []uuid.UUID{}, nil
	}

	batch := &pgx.Batch{}
	for _, doc := range docs {
		batch.Queue(
			`INSERT INTO gov_documents (id, company_id, portal, storage_bucket, storage_path, title, doc_type, expires_at, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			doc.ID,
			doc.CompanyID,
			doc.Portal,
			doc.StorageBucket,
			doc.StoragePath,
			doc.Title,
			doc.DocType,
			doc.ExpiresAt,
			doc.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	ids := make([]uuid.UUID, 0, len(docs))
	for range docs {
		var id uuid.UUID
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert gov documents: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
