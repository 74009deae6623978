package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aqlhr/ingest/internal/domain"
	"github.com/aqlhr/ingest/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultBatchSize bounds one commit batch for both modes.
const defaultBatchSize = 300

// CodedError carries a stable error code for the HTTP response alongside
// human-readable details.
type CodedError struct {
	Code    string
	Details string
}

func (e *CodedError) Error() string {
	if e.Details == "" {
		return e.Code
	}
	return e.Code + ": " + e.Details
}

// Service runs tenant-scoped bulk imports: validation, per-row
// diagnostics, and sequential chunked commits against the domain tables.
type Service struct {
	jobs      repository.ImportJobRepository
	rows      repository.ImportRowRepository
	employees repository.EmployeeRepository
	govDocs   repository.GovDocumentRepository
	batchSize int
	logger    *zap.Logger
}

// NewService creates an import service. batchSize bounds one commit
// batch; values <= 0 fall back to the default of 300.
func NewService(
	jobs repository.ImportJobRepository,
	rows repository.ImportRowRepository,
	employees repository.EmployeeRepository,
	govDocs repository.GovDocumentRepository,
	batchSize int,
	logger *zap.Logger,
) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		jobs:      jobs,
		rows:      rows,
		employees: employees,
		govDocs:   govDocs,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Request describes one import invocation.
type Request struct {
	CompanyID   uuid.UUID
	Mode        domain.ImportMode
	Rows        []map[string]any
	DryRun      bool
	InitiatedBy string
	SourceFile  string
}

// Totals aggregates the outcome counters of one invocation. Valid and
// Invalid are reported for dry runs; Processed, Success and Failed for
// committed runs.
type Totals struct {
	Total     int
	Valid     int
	Invalid   int
	Processed int
	Success   int
	Failed    int
}

// Result is the synchronous outcome of one import invocation.
type Result struct {
	JobID  uuid.UUID
	DryRun bool
	Totals Totals
}

// Import validates every row, persists diagnostics, and, unless DryRun
// is set, commits valid rows in sequential bounded batches while keeping
// the job ledger counters current. The response carries final totals;
// there is no polling API.
func (s *Service) Import(ctx context.Context, req Request) (Result, error) {
	if req.CompanyID == uuid.Nil {
		return Result{}, errors.New("company id is required")
	}
	normalizer, err := ForMode(req.Mode)
	if err != nil {
		return Result{}, err
	}

	job := domain.NewImportJob(req.CompanyID, req.Mode, len(req.Rows), req.DryRun, req.InitiatedBy, req.SourceFile)
	job, err = s.jobs.Create(ctx, job)
	if err != nil {
		return Result{}, &CodedError{Code: "job_create_failed", Details: err.Error()}
	}

	started := time.Now()

	// Validate the full row set before touching any domain table.
	diagnostics := make([]domain.ImportRow, 0, len(req.Rows))
	valid := make([]domain.ImportRow, 0, len(req.Rows))
	invalid := 0
	for idx, raw := range req.Rows {
		row := domain.NewImportRow(req.CompanyID, job.ID, idx, raw)
		normalized, errCode := normalizer.Normalize(raw)
		if errCode != "" {
			row.Error = errCode
			invalid++
		} else {
			row.Normalized = normalized
			valid = append(valid, row)
		}
		diagnostics = append(diagnostics, row)
	}

	if err := s.rows.BulkInsert(ctx, diagnostics); err != nil {
		return Result{}, &CodedError{Code: "insert_failed:hr_import_rows:" + err.Error()}
	}

	totals := Totals{
		Total:   len(req.Rows),
		Valid:   len(valid),
		Invalid: invalid,
	}

	if req.DryRun {
		// No domain-table writes happened; the job stays validated and
		// the same dry run can safely be repeated.
		s.logger.Info("dry-run import validated",
			zap.String("job_id", job.ID.String()),
			zap.String("mode", string(req.Mode)),
			zap.Int("total", totals.Total),
			zap.Int("valid", totals.Valid),
			zap.Int("invalid", totals.Invalid),
		)
		return Result{JobID: job.ID, DryRun: true, Totals: totals}, nil
	}

	if err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusProcessing); err != nil {
		return Result{}, fmt.Errorf("failed to start job processing: %w", err)
	}

	// Rows rejected by validation never reach the commit step; they are
	// accounted for as processed failures up front.
	if invalid > 0 {
		if err := s.jobs.AddCounts(ctx, job.ID, invalid, 0, invalid); err != nil {
			return Result{}, fmt.Errorf("failed to record invalid rows: %w", err)
		}
		totals.Processed += invalid
		totals.Failed += invalid
	}

	// Sequential batch loop: batches never run concurrently within one
	// job, so the job's counters have a single writer.
	for start := 0; start < len(valid); start += s.batchSize {
		end := start + s.batchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]

		success, failed, err := s.commitBatch(ctx, req.CompanyID, req.Mode, batch)
		if err != nil {
			return Result{}, err
		}

		if err := s.jobs.AddCounts(ctx, job.ID, len(batch), success, failed); err != nil {
			return Result{}, fmt.Errorf("failed to update job counters: %w", err)
		}
		totals.Processed += len(batch)
		totals.Success += success
		totals.Failed += failed
	}

	if err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusCompleted); err != nil {
		return Result{}, fmt.Errorf("failed to complete job: %w", err)
	}

	s.logger.Info("import job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("mode", string(req.Mode)),
		zap.Int("total", totals.Total),
		zap.Int("success", totals.Success),
		zap.Int("failed", totals.Failed),
		zap.Duration("took", time.Since(started)),
	)
	return Result{JobID: job.ID, Totals: totals}, nil
}

// commitBatch writes one batch to the mode's domain table and updates the
// diagnostics rows with inserted ids or the failure message. The returned
// counts always satisfy success+failed == len(batch).
func (s *Service) commitBatch(ctx context.Context, companyID uuid.UUID, mode domain.ImportMode, batch []domain.ImportRow) (int, int, error) {
	var commits []repository.RowCommit
	var failures map[uuid.UUID]string

	switch mode {
	case domain.ModeEmployees:
		commits, failures = s.commitEmployees(ctx, companyID, batch)
	case domain.ModeGov:
		commits, failures = s.commitGovDocs(ctx, companyID, batch)
	default:
		return 0, 0, fmt.Errorf("unsupported import mode %q", mode)
	}

	if err := s.rows.MarkCommitted(ctx, commits); err != nil {
		return 0, 0, fmt.Errorf("failed to record committed rows: %w", err)
	}
	for rowID, message := range failures {
		if err := s.rows.MarkFailed(ctx, []uuid.UUID{rowID}, message); err != nil {
			return 0, 0, fmt.Errorf("failed to record failed rows: %w", err)
		}
	}

	return len(commits), len(failures), nil
}

// commitEmployees splits a batch by upsert key: rows carrying an iqama
// number target the (company, iqama) constraint, the rest target
// (company, employee_code). On a group failure every row of the group is
// retried individually before being counted failed.
func (s *Service) commitEmployees(ctx context.Context, companyID uuid.UUID, batch []domain.ImportRow) ([]repository.RowCommit, map[uuid.UUID]string) {
	var iqamaRows, codeRows []domain.ImportRow
	for _, row := range batch {
		if stringField(row.Normalized, "iqama_number") != "" {
			iqamaRows = append(iqamaRows, row)
		} else {
			codeRows = append(codeRows, row)
		}
	}

	commits := []repository.RowCommit{}
	failures := map[uuid.UUID]string{}

	s.commitEmployeeGroup(ctx, companyID, iqamaRows, s.employees.UpsertByIqama, &commits, failures)
	s.commitEmployeeGroup(ctx, companyID, codeRows, s.employees.UpsertByEmployeeCode, &commits, failures)
	return commits, failures
}

func (s *Service) commitEmployeeGroup(
	ctx context.Context,
	companyID uuid.UUID,
	rows []domain.ImportRow,
	upsert func(context.Context, []domain.Employee) ([]uuid.UUID, error),
	commits *[]repository.RowCommit,
	failures map[uuid.UUID]string,
) {
	if len(rows) == 0 {
		return
	}

	employees := make([]domain.Employee, len(rows))
	for i, row := range rows {
		employees[i] = employeeFromNormalized(companyID, row.Normalized)
	}

	ids, err := upsert(ctx, employees)
	if err == nil {
		for i, row := range rows {
			*commits = append(*commits, repository.RowCommit{RowID: row.ID, InsertedIDs: []uuid.UUID{ids[i]}})
		}
		return
	}

	s.logger.Warn("employee batch commit failed, retrying rows individually",
		zap.Int("rows", len(rows)), zap.Error(err))

	for i, row := range rows {
		ids, rowErr := upsert(ctx, employees[i:i+1])
		if rowErr != nil {
			failures[row.ID] = rowErr.Error()
			continue
		}
		*commits = append(*commits, repository.RowCommit{RowID: row.ID, InsertedIDs: []uuid.UUID{ids[0]}})
	}
}

// commitGovDocs appends document links; identical resubmitted rows
// create new records.
func (s *Service) commitGovDocs(ctx context.Context, companyID uuid.UUID, batch []domain.ImportRow) ([]repository.RowCommit, map[uuid.UUID]string) {
	docs := make([]domain.GovDocument, len(batch))
	for i, row := range batch {
		docs[i] = govDocFromNormalized(companyID, row.Normalized)
	}

	commits := []repository.RowCommit{}
	failures := map[uuid.UUID]string{}

	ids, err := s.govDocs.InsertBatch(ctx, docs)
	if err == nil {
		for i, row := range batch {
			commits = append(commits, repository.RowCommit{RowID: row.ID, InsertedIDs: []uuid.UUID{ids[i]}})
		}
		return commits, failures
	}

	s.logger.Warn("gov document batch commit failed, retrying rows individually",
		zap.Int("rows", len(batch)), zap.Error(err))

	for i, row := range batch {
		ids, rowErr := s.govDocs.InsertBatch(ctx, docs[i:i+1])
		if rowErr != nil {
			failures[row.ID] = rowErr.Error()
			continue
		}
		commits = append(commits, repository.RowCommit{RowID: row.ID, InsertedIDs: []uuid.UUID{ids[0]}})
	}
	return commits, failures
}

func employeeFromNormalized(companyID uuid.UUID, normalized map[string]any) domain.Employee {
	return domain.NewEmployee(
		companyID,
		stringField(normalized, "name"),
		stringField(normalized, "iqama_number"),
		stringField(normalized, "employee_code"),
		stringField(normalized, "nationality"),
		stringField(normalized, "gender"),
	)
}

func govDocFromNormalized(companyID uuid.UUID, normalized map[string]any) domain.GovDocument {
	var expiresAt *time.Time
	if expiry := stringField(normalized, "expiry_date"); expiry != "" {
		if parsed, ok := parseExpiryDate(expiry); ok {
			expiresAt = &parsed
		}
	}
	return domain.NewGovDocument(
		companyID,
		stringField(normalized, "portal"),
		stringField(normalized, "storage_bucket"),
		stringField(normalized, "storage_path"),
		stringField(normalized, "title"),
		stringField(normalized, "doc_type"),
		expiresAt,
	)
}
