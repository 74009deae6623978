package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant boundary. Every entity and operation in the
// ingestion pipeline is scoped to exactly one company; cross-company
// access is never permitted.
type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCompany creates a company record.
func NewCompany(name, slug string) Company {
	return Company{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now(),
	}
}
