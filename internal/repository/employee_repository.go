package repository

import (
	"context"
	"fmt"

	"github.com/aqlhr/ingest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository wires an employee repository backed by pgxpool.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

// The upsert keys are partial unique indexes, so the conflict targets
// must repeat the index predicate: Postgres only infers a partial index
// as arbiter when the WHERE clause matches.
const (
	upsertByIqamaSQL = `INSERT INTO hr_employees (id, company_id, full_name, iqama_number, employee_code, nationality, gender, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (company_id, iqama_number) WHERE iqama_number IS NOT NULL DO UPDATE
		 SET full_name = EXCLUDED.full_name,
		     employee_code = EXCLUDED.employee_code,
		     nationality = EXCLUDED.nationality,
		     gender = EXCLUDED.gender,
		     updated_at = now()
		 RETURNING id`

	upsertByEmployeeCodeSQL = `INSERT INTO hr_employees (id, company_id, full_name, iqama_number, employee_code, nationality, gender, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (company_id, employee_code) WHERE employee_code IS NOT NULL DO UPDATE
		 SET full_name = EXCLUDED.full_name,
		     iqama_number = EXCLUDED.iqama_number,
		     nationality = EXCLUDED.nationality,
		     gender = EXCLUDED.gender,
		     updated_at = now()
		 RETURNING id`
)

// UpsertByIqama commits a batch keyed on (company_id, iqama_number). A row
// matching an existing record overwrites that record's fields.
func (r *employeeRepository) UpsertByIqama(ctx context.Context, employees []domain.Employee) ([]uuid.UUID, error) {
	return r.upsert(ctx, employees, upsertByIqamaSQL)
}

// UpsertByEmployeeCode commits a batch keyed on (company_id, employee_code)
// for rows that carry no iqama number.
func (r *employeeRepository) UpsertByEmployeeCode(ctx context.Context, employees []domain.Employee) ([]uuid.UUID, error) {
	return r.upsert(ctx, employees, upsertByEmployeeCodeSQL)
}

func (r *employeeRepository) upsert(ctx context.Context, employees []domain.Employee, query string) ([]uuid.UUID, error) {
	if len(employees) == 0 {
		return []uuid.UUID{}, nil
	}

	batch := &pgx.Batch{}
	for _, emp := range employees {
		var iqama, code any
		if emp.IqamaNumber != "" {
			iqama = emp.IqamaNumber
		}
		if emp.EmployeeCode != "" {
			code = emp.EmployeeCode
		}
		batch.Queue(query,
			emp.ID,
			emp.CompanyID,
			emp.FullName,
			iqama,
			code,
			emp.Nationality,
			emp.Gender,
			emp.CreatedAt,
			emp.UpdatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	ids := make([]uuid.UUID, 0, len(employees))
	for range employees {
		var id uuid.UUID
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to upsert employees: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
