package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aqlhr/ingest/internal/domain"
)

// Validation error codes recorded in row diagnostics.
const (
	ErrCodeMissingName         = "missing_name"
	ErrCodeMissingIqamaOrCode  = "missing_iqama_or_employee_code"
	ErrCodeMissingBucketOrPath = "missing_storage_bucket_or_path"
)

// expiryLayouts are tried in order when parsing a gov row's expiry date.
var expiryLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
}

// Normalizer turns one raw input row into either a normalized payload or
// a validation error code. Implementations are pure and deterministic;
// no network or persistence access happens during normalization, so the
// full row set can be validated before any job state exists.
type Normalizer interface {
	Mode() domain.ImportMode
	// Normalize returns the normalized payload and an empty code, or a
	// nil payload and a validation error code.
	Normalize(raw map[string]any) (map[string]any, string)
}

// ForMode returns the normalizer for an import mode. The choice is made
// once per invocation, not per row.
func ForMode(mode domain.ImportMode) (Normalizer, error) {
	switch mode {
	case domain.ModeEmployees:
		return employeeNormalizer{}, nil
	case domain.ModeGov:
		return govNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unsupported import mode %q", mode)
	}
}

type employeeNormalizer struct{}

func (employeeNormalizer) Mode() domain.ImportMode { return domain.ModeEmployees }

func (employeeNormalizer) Normalize(raw map[string]any) (map[string]any, string) {
	name := stringField(raw, "name")
	if name == "" {
		return nil, ErrCodeMissingName
	}

	iqama := stringField(raw, "iqama_number")
	code := stringField(raw, "employee_code")
	if iqama == "" && code == "" {
		return nil, ErrCodeMissingIqamaOrCode
	}

	normalized := map[string]any{
		"name": name,
	}
	if iqama != "" {
		normalized["iqama_number"] = iqama
	}
	if code != "" {
		normalized["employee_code"] = code
	}
	// Nationality and gender are optional and passed through unmodified.
	if v, ok := raw["nationality"]; ok {
		normalized["nationality"] = v
	}
	if v, ok := raw["gender"]; ok {
		normalized["gender"] = v
	}
	return normalized, ""
}

type govNormalizer struct{}

func (govNormalizer) Mode() domain.ImportMode { return domain.ModeGov }

func (govNormalizer) Normalize(raw map[string]any) (map[string]any, string) {
	bucket := stringField(raw, "storage_bucket")
	path := stringField(raw, "storage_path")
	if bucket == "" || path == "" {
		return nil, ErrCodeMissingBucketOrPath
	}

	portal := stringField(raw, "portal")
	if portal == "" {
		portal = domain.DefaultPortal
	}

	normalized := map[string]any{
		"storage_bucket": bucket,
		"storage_path":   path,
		"portal":         strings.ToLower(portal),
	}
	if title := stringField(raw, "title"); title != "" {
		normalized["title"] = title
	}
	if docType := stringField(raw, "doc_type"); docType != "" {
		normalized["doc_type"] = docType
	}
	// An unparseable expiry date is dropped rather than rejecting the
	// row; the date is auxiliary, the document link is not.
	if expiry := stringField(raw, "expiry_date"); expiry != "" {
		if parsed, ok := parseExpiryDate(expiry); ok {
			normalized["expiry_date"] = parsed.Format("2006-01-02")
		}
	}
	return normalized, ""
}

func parseExpiryDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range expiryLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// stringField reads a trimmed string from a raw row, tolerating numeric
// cells from spreadsheet or JSON input.
func stringField(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
