// Package export renders per-job import diagnostics as downloadable
// reports. Reports are generated synchronously from the stored job and
// row records; nothing is written to disk.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aqlhr/ingest/internal/domain"
	"github.com/aqlhr/ingest/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Format selects the report file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats other than csv and xlsx.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// reportPageSize bounds one diagnostics fetch.
const reportPageSize = 500

var reportHeaders = []string{
	"row_index", "status", "error", "inserted_ids", "raw", "normalized",
}

// Report is a rendered diagnostics file for one import job.
type Report struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service renders import job diagnostics reports.
type Service struct {
	jobs repository.ImportJobRepository
	rows repository.ImportRowRepository
}

// NewService creates a report service over the job and row stores.
func NewService(jobs repository.ImportJobRepository, rows repository.ImportRowRepository) *Service {
	return &Service{jobs: jobs, rows: rows}
}

// BuildReport renders the diagnostics of one job in the requested
// format. The job must belong to the given company; an unknown job id
// surfaces repository.ErrNotFound.
func (s *Service) BuildReport(ctx context.Context, companyID, jobID uuid.UUID, format Format) (Report, error) {
	job, err := s.jobs.GetByID(ctx, companyID, jobID)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load job: %w", err)
	}

	var rows []domain.ImportRow
	for offset := 0; ; offset += reportPageSize {
		page, err := s.rows.ListByJob(ctx, companyID, job.ID, reportPageSize, offset)
		if err != nil {
			return Report{}, fmt.Errorf("failed to list job rows: %w", err)
		}
		rows = append(rows, page...)
		if len(page) < reportPageSize {
			break
		}
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, reportHeaders)
	for _, row := range rows {
		records = append(records, reportRecord(row))
	}

	switch format {
	case FormatCSV:
		data, err := renderCSV(records)
		if err != nil {
			return Report{}, err
		}
		return Report{
			FileName:    fmt.Sprintf("import-%s.csv", job.ID),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatXLSX:
		data, err := renderXLSX(records)
		if err != nil {
			return Report{}, err
		}
		return Report{
			FileName:    fmt.Sprintf("import-%s.xlsx", job.ID),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return Report{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func reportRecord(row domain.ImportRow) []string {
	status := "committed"
	switch {
	case row.Error != "":
		status = "failed"
	case len(row.InsertedIDs) == 0:
		status = "validated"
	}

	ids := make([]byte, 0, 16)
	for i, id := range row.InsertedIDs {
		if i > 0 {
			ids = append(ids, ';')
		}
		ids = append(ids, id.String()...)
	}

	return []string{
		strconv.Itoa(row.RowIndex),
		status,
		row.Error,
		string(ids),
		jsonCell(row.Raw),
		jsonCell(row.Normalized),
	}
}

func jsonCell(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}

func renderCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv report: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		row := make([]any, len(record))
		for j, value := range record {
			row[j] = value
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx report: %w", err)
	}
	return buf.Bytes(), nil
}
