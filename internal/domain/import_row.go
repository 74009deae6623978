package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportRow is the immutable diagnostics record for one submitted row.
// After validation exactly one of Normalized or Error is set. InsertedIDs
// is populated at most once, when the row's batch commits successfully.
type ImportRow struct {
	ID          uuid.UUID      `json:"id"`
	CompanyID   uuid.UUID      `json:"company_id"`
	JobID       uuid.UUID      `json:"job_id"`
	RowIndex    int            `json:"row_index"`
	Raw         map[string]any `json:"raw"`
	Normalized  map[string]any `json:"normalized,omitempty"`
	Error       string         `json:"error,omitempty"`
	InsertedIDs []uuid.UUID    `json:"inserted_ids,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewImportRow creates a diagnostics row for a raw input row prior to
// validation. Callers set either Normalized or Error before persisting.
func NewImportRow(companyID, jobID uuid.UUID, rowIndex int, raw map[string]any) ImportRow {
	now := time.Now()
	return ImportRow{
		ID:        uuid.New(),
		CompanyID: companyID,
		JobID:     jobID,
		RowIndex:  rowIndex,
		Raw:       raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Valid reports whether the row passed validation.
func (r ImportRow) Valid() bool {
	return r.Error == "" && r.Normalized != nil
}
