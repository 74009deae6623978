package domain

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the domain record targeted by employees-mode imports.
// Two uniqueness constraints act as upsert keys within a company:
// (company_id, iqama_number) and (company_id, employee_code). An incoming
// write with a matching key overwrites the existing record's fields.
type Employee struct {
	ID           uuid.UUID `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	FullName     string    `json:"full_name"`
	IqamaNumber  string    `json:"iqama_number,omitempty"`
	EmployeeCode string    `json:"employee_code,omitempty"`
	Nationality  string    `json:"nationality,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewEmployee creates an employee record for a company.
func NewEmployee(companyID uuid.UUID, fullName, iqamaNumber, employeeCode, nationality, gender string) Employee {
	now := time.Now()
	return Employee{
		ID:           uuid.New(),
		CompanyID:    companyID,
		FullName:     fullName,
		IqamaNumber:  iqamaNumber,
		EmployeeCode: employeeCode,
		Nationality:  nationality,
		Gender:       gender,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
