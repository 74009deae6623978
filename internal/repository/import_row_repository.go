package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aqlhr/ingest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultDiagnosticsChunk bounds one diagnostics insert to keep each
// statement within transport payload limits.
const defaultDiagnosticsChunk = 500

type importRowRepository struct {
	pool      *pgxpool.Pool
	chunkSize int
}

// NewImportRowRepository wires a diagnostics repository backed by pgxpool.
// chunkSize bounds the number of rows per insert statement; values <= 0
// fall back to the default of 500.
func NewImportRowRepository(pool *pgxpool.Pool, chunkSize int) ImportRowRepository {
	if chunkSize <= 0 {
		chunkSize = defaultDiagnosticsChunk
	}
	return &importRowRepository{pool: pool, chunkSize: chunkSize}
}

func (r *importRowRepository) BulkInsert(ctx context.Context, rows []domain.ImportRow) error {
	for start := 0; start < len(rows); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := r.insertChunk(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *importRowRepository) insertChunk(ctx context.Context, rows []domain.ImportRow) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		rawJSON, err := json.Marshal(row.Raw)
		if err != nil {
			return fmt.Errorf("failed to marshal raw row %d: %w", row.RowIndex, err)
		}
		var normalizedJSON []byte
		if row.Normalized != nil {
			normalizedJSON, err = json.Marshal(row.Normalized)
			if err != nil {
				return fmt.Errorf("failed to marshal normalized row %d: %w", row.RowIndex, err)
			}
		}
		var errMsg any
		if row.Error != "" {
			errMsg = row.Error
		}
		batch.Queue(
			`INSERT INTO hr_import_rows (id, company_id, job_id, row_index, raw, normalized, error, inserted_ids, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			row.ID,
			row.CompanyID,
			row.JobID,
			row.RowIndex,
			rawJSON,
			normalizedJSON,
			errMsg,
			insertedIDsParam(row),
			row.CreatedAt,
			row.UpdatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert import rows: %w", err)
		}
	}
	return nil
}

// insertedIDsParam never returns nil: pgx encodes a nil []uuid.UUID as
// SQL NULL, which the NOT NULL inserted_ids column rejects. Rows before
// their batch commits carry an empty array instead.
func insertedIDsParam(row domain.ImportRow) []uuid.UUID {
	if row.InsertedIDs == nil {
		return []uuid.UUID{}
	}
	return row.InsertedIDs
}

func (r *importRowRepository) MarkCommitted(ctx context.Context, commits []RowCommit) error {
	if len(commits) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, commit := range commits {
		batch.Queue(
			`UPDATE hr_import_rows SET inserted_ids = $2, updated_at = now() WHERE id = $1`,
			commit.RowID,
			commit.InsertedIDs,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range commits {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to mark rows committed: %w", err)
		}
	}
	return nil
}

func (r *importRowRepository) MarkFailed(ctx context.Context, rowIDs []uuid.UUID, message string) error {
	if len(rowIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(
		ctx,
		`UPDATE hr_import_rows SET error = $2, updated_at = now() WHERE id = ANY($1)`,
		rowIDs,
		message,
	)
	if err != nil {
		return fmt.Errorf("failed to mark rows failed: %w", err)
	}
	return nil
}

func (r *importRowRepository) ListByJob(ctx context.Context, companyID, jobID uuid.UUID, limit, offset int) ([]domain.ImportRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, company_id, job_id, row_index, raw, normalized, error, inserted_ids, created_at, updated_at
		 FROM hr_import_rows
		 WHERE company_id = $1 AND job_id = $2
		 ORDER BY row_index
		 LIMIT $3 OFFSET $4`,
		companyID,
		jobID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import rows: %w", err)
	}
	defer rows.Close()

	result := []domain.ImportRow{}
	for rows.Next() {
		var (
			row            domain.ImportRow
			rawJSON        []byte
			normalizedJSON []byte
			errMsg         pgtype.Text
			createdAt      pgtype.Timestamptz
			updatedAt      pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&row.ID,
			&row.CompanyID,
			&row.JobID,
			&row.RowIndex,
			&rawJSON,
			&normalizedJSON,
			&errMsg,
			&row.InsertedIDs,
			&createdAt,
			&updatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import row: %w", scanErr)
		}

		if len(rawJSON) > 0 {
			if err := json.Unmarshal(rawJSON, &row.Raw); err != nil {
				return nil, fmt.Errorf("failed to unmarshal raw row: %w", err)
			}
		}
		if len(normalizedJSON) > 0 {
			if err := json.Unmarshal(normalizedJSON, &row.Normalized); err != nil {
				return nil, fmt.Errorf("failed to unmarshal normalized row: %w", err)
			}
		}
		if errMsg.Valid {
			row.Error = errMsg.String
		}
		if createdAt.Valid {
			row.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			row.UpdatedAt = updatedAt.Time
		}
		result = append(result, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import rows: %w", rowsErr)
	}
	return result, nil
}
