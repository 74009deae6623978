// Package extract provides plain-text extraction from ingested document
// bytes. It is a local stand-in for an external extraction capability;
// callers treat failures as non-fatal.
package extract

import (
	"path/filepath"
	"strings"
)

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of a document. Format is chosen from
// the content type when recognized, otherwise from the storage path
// extension. Unknown formats are treated as plain text.
func (e *Extractor) Extract(content []byte, contentType, storagePath string) (string, error) {
	switch normalizeContentType(contentType) {
	case "application/pdf":
		return extractPDF(content)
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return extractDOCX(content)
	case "text/plain", "text/markdown", "text/csv":
		return extractPlain(content)
	}

	switch strings.ToLower(filepath.Ext(storagePath)) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	default:
		return extractPlain(content)
	}
}

func normalizeContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
