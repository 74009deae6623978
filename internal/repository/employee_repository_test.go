package repository

import (
	"strings"
	"testing"
)

// The unique indexes on hr_employees are partial, so each upsert's conflict
// target has to carry the index predicate or Postgres fails to pick an
// arbiter and rejects the statement.
func TestEmployeeUpsertConflictTargetsMatchPartialIndexes(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		target string
	}{
		{
			name:   "iqama key",
			query:  upsertByIqamaSQL,
			target: "ON CONFLICT (company_id, iqama_number) WHERE iqama_number IS NOT NULL DO UPDATE",
		},
		{
			name:   "employee code key",
			query:  upsertByEmployeeCodeSQL,
			target: "ON CONFLICT (company_id, employee_code) WHERE employee_code IS NOT NULL DO UPDATE",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !strings.Contains(tc.query, tc.target) {
				t.Fatalf("upsert statement is missing conflict target %q:\n%s", tc.target, tc.query)
			}
		})
	}
}
