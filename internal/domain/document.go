package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document processing statuses.
const (
	DocumentStatusCompleted = "completed"
)

// DocumentMetadata holds the fields extracted heuristically from a
// document's text. EffectiveDate and ExpiryDate are assigned positionally:
// the first two distinct dates found in the text, in order of appearance.
type DocumentMetadata struct {
	Title         string     `json:"title,omitempty"`
	DocType       string     `json:"doc_type,omitempty"`
	IqamaNumbers  []string   `json:"iqama_numbers,omitempty"`
	NationalIDs   []string   `json:"national_ids,omitempty"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
}

// Document is a content-addressed, create-once record of an ingested file.
// Identity within a company is the SHA-256 hash of the file's bytes;
// re-ingesting identical bytes under the same company never creates a
// second record. Documents are immutable after creation.
type Document struct {
	ID          uuid.UUID        `json:"id"`
	CompanyID   uuid.UUID        `json:"company_id"`
	ContentHash string           `json:"content_hash"`
	Bucket      string           `json:"bucket"`
	StoragePath string           `json:"storage_path"`
	ContentType string           `json:"content_type,omitempty"`
	FileSize    int64            `json:"file_size"`
	Language    string           `json:"language,omitempty"`
	Portal      string           `json:"portal,omitempty"`
	EmployeeID  *uuid.UUID       `json:"employee_id,omitempty"`
	Text        string           `json:"-"`
	Metadata    DocumentMetadata `json:"metadata"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewDocument creates a completed document record keyed by content hash.
func NewDocument(companyID uuid.UUID, contentHash, bucket, path, contentType string, fileSize int64, text string, metadata DocumentMetadata) Document {
	return Document{
		ID:          uuid.New(),
		CompanyID:   companyID,
		ContentHash: contentHash,
		Bucket:      bucket,
		StoragePath: path,
		ContentType: contentType,
		FileSize:    fileSize,
		Text:        text,
		Metadata:    metadata,
		Status:      DocumentStatusCompleted,
		CreatedAt:   time.Now(),
	}
}

// DocumentVector is the optional semantic embedding for a document.
// It is created only when embedding generation succeeds; its absence is
// not an error state for the document.
type DocumentVector struct {
	ID         uuid.UUID `json:"id"`
	CompanyID  uuid.UUID `json:"company_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Model      string    `json:"model"`
	Embedding  []float64 `json:"embedding"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDocumentVector creates an embedding record for a document.
func NewDocumentVector(companyID, documentID uuid.UUID, model string, embedding []float64) DocumentVector {
	return DocumentVector{
		ID:         uuid.New(),
		CompanyID:  companyID,
		DocumentID: documentID,
		Model:      model,
		Embedding:  embedding,
		CreatedAt:  time.Now(),
	}
}
