package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aqlhr/ingest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type importJobRepository struct {
	pool *pgxpool.Pool
}

// NewImportJobRepository wires a job ledger repository backed by pgxpool.
func NewImportJobRepository(pool *pgxpool.Pool) ImportJobRepository {
	return &importJobRepository{pool: pool}
}

func (r *importJobRepository) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO hr_import_jobs (id, company_id, mode, status, total_rows, processed_rows, success_rows, failed_rows, dry_run, initiated_by, source_file, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		job.ID,
		job.CompanyID,
		string(job.Mode),
		string(job.Status),
		job.TotalRows,
		job.ProcessedRows,
		job.SuccessRows,
		job.FailedRows,
		job.DryRun,
		job.InitiatedBy,
		job.SourceFile,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to create import job: %w", err)
	}
	return job, nil
}

func (r *importJobRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (domain.ImportJob, error) {
	var (
		job       domain.ImportJob
		mode      string
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, company_id, mode, status, total_rows, processed_rows, success_rows, failed_rows, dry_run, initiated_by, source_file, created_at, updated_at
		 FROM hr_import_jobs
		 WHERE company_id = $1 AND id = $2`,
		companyID,
		id,
	).Scan(
		&job.ID,
		&job.CompanyID,
		&mode,
		&status,
		&job.TotalRows,
		&job.ProcessedRows,
		&job.SuccessRows,
		&job.FailedRows,
		&job.DryRun,
		&job.InitiatedBy,
		&job.SourceFile,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImportJob{}, ErrNotFound
		}
		return domain.ImportJob{}, fmt.Errorf("failed to get import job: %w", err)
	}

	job.Mode = domain.ImportMode(mode)
	job.Status = domain.JobStatus(status)
	if createdAt.Valid {
		job.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		job.UpdatedAt = updatedAt.Time
	}
	return job, nil
}

func (r *importJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE hr_import_jobs SET status = $2, updated_at = now() WHERE id = $1`,
		id,
		string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to update import job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCounts uses in-database increments rather than read-modify-write so
// counter updates stay correct even if a second writer ever appears.
func (r *importJobRepository) AddCounts(ctx context.Context, id uuid.UUID, processed, success, failed int) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE hr_import_jobs
		 SET processed_rows = processed_rows + $2,
		     success_rows = success_rows + $3,
		     failed_rows = failed_rows + $4,
		     updated_at = now()
		 WHERE id = $1`,
		id,
		processed,
		success,
		failed,
	)
	if err != nil {
		return fmt.Errorf("failed to update import job counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
