package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPortal is assumed when a gov-mode row omits the portal column.
const DefaultPortal = "qiwa"

// GovDocument links a stored government document file to a company and
// portal. The table is append-only: gov-mode imports do not deduplicate,
// so resubmitting identical rows creates new records.
type GovDocument struct {
	ID            uuid.UUID  `json:"id"`
	CompanyID     uuid.UUID  `json:"company_id"`
	Portal        string     `json:"portal"`
	StorageBucket string     `json:"storage_bucket"`
	StoragePath   string     `json:"storage_path"`
	Title         string     `json:"title,omitempty"`
	DocType       string     `json:"doc_type,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewGovDocument creates a government document link record.
func NewGovDocument(companyID uuid.UUID, portal, bucket, path, title, docType string, expiresAt *time.Time) GovDocument {
	if portal == "" {
		portal = DefaultPortal
	}
	return GovDocument{
		ID:            uuid.New(),
		CompanyID:     companyID,
		Portal:        portal,
		StorageBucket: bucket,
		StoragePath:   path,
		Title:         title,
		DocType:       docType,
		ExpiresAt:     expiresAt,
		CreatedAt:     time.Now(),
	}
}
