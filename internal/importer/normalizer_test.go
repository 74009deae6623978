package importer

import (
	"testing"

	"github.com/aqlhr/ingest/internal/domain"
)

func TestEmployeeNormalizer(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		wantErr  string
		wantKeys []string
	}{
		{
			name:     "iqama only",
			raw:      map[string]any{"name": "Ahmed Al-Rashid", "iqama_number": "2123456789"},
			wantKeys: []string{"name", "iqama_number"},
		},
		{
			name:     "employee code only",
			raw:      map[string]any{"name": "Sara", "employee_code": "EMP-042"},
			wantKeys: []string{"name", "employee_code"},
		},
		{
			name:     "optional fields pass through",
			raw:      map[string]any{"name": "Omar", "iqama_number": "2000000001", "nationality": "EG", "gender": "male"},
			wantKeys: []string{"name", "iqama_number", "nationality", "gender"},
		},
		{
			name:     "numeric iqama from spreadsheet",
			raw:      map[string]any{"name": "Noor", "iqama_number": float64(2123456789)},
			wantKeys: []string{"name", "iqama_number"},
		},
		{
			name:    "missing name",
			raw:     map[string]any{"iqama_number": "2123456789"},
			wantErr: ErrCodeMissingName,
		},
		{
			name:    "whitespace name",
			raw:     map[string]any{"name": "   ", "iqama_number": "2123456789"},
			wantErr: ErrCodeMissingName,
		},
		{
			name:    "missing both keys",
			raw:     map[string]any{"name": "Khalid"},
			wantErr: ErrCodeMissingIqamaOrCode,
		},
	}

	norm := employeeNormalizer{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, errCode := norm.Normalize(tt.raw)
			if errCode != tt.wantErr {
				t.Fatalf("expected error %q, got %q", tt.wantErr, errCode)
			}
			if tt.wantErr != "" {
				if normalized != nil {
					t.Fatalf("error row should have nil payload, got %v", normalized)
				}
				return
			}
			if len(normalized) != len(tt.wantKeys) {
				t.Fatalf("expected keys %v, got %v", tt.wantKeys, normalized)
			}
			for _, key := range tt.wantKeys {
				if _, ok := normalized[key]; !ok {
					t.Fatalf("missing key %q in %v", key, normalized)
				}
			}
		})
	}
}

func TestEmployeeNormalizerNumericIqamaValue(t *testing.T) {
	norm := employeeNormalizer{}
	normalized, errCode := norm.Normalize(map[string]any{"name": "Noor", "iqama_number": float64(2123456789)})
	if errCode != "" {
		t.Fatalf("unexpected error: %s", errCode)
	}
	if normalized["iqama_number"] != "2123456789" {
		t.Fatalf("numeric iqama not converted: %v", normalized["iqama_number"])
	}
}

func TestGovNormalizer(t *testing.T) {
	norm := govNormalizer{}

	t.Run("defaults portal to qiwa", func(t *testing.T) {
		normalized, errCode := norm.Normalize(map[string]any{
			"storage_bucket": "gov_docs",
			"storage_path":   "permits/wp-991.pdf",
		})
		if errCode != "" {
			t.Fatalf("unexpected error: %s", errCode)
		}
		if normalized["portal"] != domain.DefaultPortal {
			t.Fatalf("expected default portal, got %v", normalized["portal"])
		}
	})

	t.Run("lowercases portal", func(t *testing.T) {
		normalized, _ := norm.Normalize(map[string]any{
			"storage_bucket": "gov_docs",
			"storage_path":   "x.pdf",
			"portal":         "GOSI",
		})
		if normalized["portal"] != "gosi" {
			t.Fatalf("portal not lowercased: %v", normalized["portal"])
		}
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, errCode := norm.Normalize(map[string]any{"storage_path": "x.pdf"})
		if errCode != ErrCodeMissingBucketOrPath {
			t.Fatalf("expected %s, got %s", ErrCodeMissingBucketOrPath, errCode)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		_, errCode := norm.Normalize(map[string]any{"storage_bucket": "gov_docs"})
		if errCode != ErrCodeMissingBucketOrPath {
			t.Fatalf("expected %s, got %s", ErrCodeMissingBucketOrPath, errCode)
		}
	})

	t.Run("normalizes expiry date", func(t *testing.T) {
		normalized, _ := norm.Normalize(map[string]any{
			"storage_bucket": "gov_docs",
			"storage_path":   "x.pdf",
			"expiry_date":    "2027/03/15",
		})
		if normalized["expiry_date"] != "2027-03-15" {
			t.Fatalf("expiry not normalized: %v", normalized["expiry_date"])
		}
	})

	t.Run("drops unparseable expiry date", func(t *testing.T) {
		for _, expiry := range []string{"next ramadan", "2026-02-30"} {
			normalized, errCode := norm.Normalize(map[string]any{
				"storage_bucket": "gov_docs",
				"storage_path":   "x.pdf",
				"expiry_date":    expiry,
			})
			if errCode != "" {
				t.Fatalf("row with expiry %q should still pass validation: %s", expiry, errCode)
			}
			if _, ok := normalized["expiry_date"]; ok {
				t.Fatalf("unparseable expiry date %q kept: %v", expiry, normalized["expiry_date"])
			}
		}
	})
}

func TestForMode(t *testing.T) {
	if _, err := ForMode(domain.ModeEmployees); err != nil {
		t.Fatalf("employees mode: %v", err)
	}
	if _, err := ForMode(domain.ModeGov); err != nil {
		t.Fatalf("gov mode: %v", err)
	}
	if _, err := ForMode(domain.ImportMode("visas")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
