package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportMode selects the row shape and write semantics of a bulk import.
type ImportMode string

const (
	// ModeEmployees imports employee master rows with upsert semantics.
	ModeEmployees ImportMode = "employees"
	// ModeGov imports government document links with append-only semantics.
	ModeGov ImportMode = "gov"
)

// Valid reports whether the mode is one of the supported ingestion modes.
func (m ImportMode) Valid() bool {
	return m == ModeEmployees || m == ModeGov
}

// JobStatus tracks the lifecycle of one import invocation.
// Completed is terminal and does not imply success; failures are visible
// only through the job counters.
type JobStatus string

const (
	JobStatusValidated  JobStatus = "validated"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
)

// ImportJob is the ledger record for one bulk import invocation.
// Counter invariants: ProcessedRows <= TotalRows and
// SuccessRows+FailedRows <= ProcessedRows. Jobs are never deleted.
type ImportJob struct {
	ID            uuid.UUID  `json:"id"`
	CompanyID     uuid.UUID  `json:"company_id"`
	Mode          ImportMode `json:"mode"`
	Status        JobStatus  `json:"status"`
	TotalRows     int        `json:"total_rows"`
	ProcessedRows int        `json:"processed_rows"`
	SuccessRows   int        `json:"success_rows"`
	FailedRows    int        `json:"failed_rows"`
	DryRun        bool       `json:"dry_run"`
	InitiatedBy   string     `json:"initiated_by"`
	SourceFile    string     `json:"source_file,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewImportJob creates a job in the validated state with zeroed counters.
func NewImportJob(companyID uuid.UUID, mode ImportMode, totalRows int, dryRun bool, initiatedBy, sourceFile string) ImportJob {
	now := time.Now()
	return ImportJob{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Mode:        mode,
		Status:      JobStatusValidated,
		TotalRows:   totalRows,
		DryRun:      dryRun,
		InitiatedBy: initiatedBy,
		SourceFile:  sourceFile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
