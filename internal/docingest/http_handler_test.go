package docingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aqlhr/ingest/internal/auth"
	"github.com/aqlhr/ingest/internal/extract"
	"github.com/aqlhr/ingest/internal/repository"
	"github.com/aqlhr/ingest/internal/storage"

	"github.com/google/uuid"
)

type stubCredentialRepo struct {
	byHash map[string]repository.Credential
}

func (s *stubCredentialRepo) ResolveTokenHash(_ context.Context, tokenHash string) (repository.Credential, error) {
	if cred, ok := s.byHash[tokenHash]; ok {
		return cred, nil
	}
	return repository.Credential{}, repository.ErrNotFound
}

func newTestHandler(companyID uuid.UUID, objects map[string]storage.Object) *Handler {
	svc := NewService(&stubStorage{objects: objects}, newStubDocRepo(), &stubVectorRepo{}, extract.NewExtractor(), nil, nil)
	resolver := auth.NewResolver(&stubCredentialRepo{byHash: map[string]repository.Credential{
		auth.HashToken("test-token"): {CompanyID: companyID},
	}})
	return NewHandler(svc, resolver, nil)
}

func ingestOnce(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/ingest", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	handler.Ingest(rec, req)
	return rec
}

func TestIngestEndpoint(t *testing.T) {
	handler := newTestHandler(uuid.New(), map[string]storage.Object{
		"gov_docs/permits/wp-1.txt": textObject("Work Permit\nIqama 2123456789"),
	})

	body := `{"bucket":"gov_docs","storage_path":"permits/wp-1.txt","portal":"qiwa"}`

	rec := ingestOnce(t, handler, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		OK        bool `json:"ok"`
		Duplicate bool `json:"duplicate"`
		Document  struct {
			ID          string `json:"id"`
			ContentHash string `json:"content_hash"`
			Portal      string `json:"portal"`
		} `json:"document"`
		Metadata *struct {
			DocType string `json:"doc_type"`
		} `json:"metadata"`
		Processing *struct {
			TextExtracted bool `json:"text_extracted"`
		} `json:"processing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if !resp.OK || resp.Duplicate {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
	if resp.Document.Portal != "qiwa" || len(resp.Document.ContentHash) != 64 {
		t.Fatalf("unexpected document: %+v", resp.Document)
	}
	if resp.Metadata == nil || resp.Metadata.DocType != "work_permit" {
		t.Fatalf("unexpected metadata: %s", rec.Body.String())
	}
	if resp.Processing == nil || !resp.Processing.TextExtracted {
		t.Fatalf("unexpected processing flags: %s", rec.Body.String())
	}

	// Second identical call returns the duplicate shape.
	rec = ingestOnce(t, handler, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var dup struct {
		OK        bool   `json:"ok"`
		Duplicate bool   `json:"duplicate"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dup); err != nil {
		t.Fatalf("invalid duplicate response json: %v", err)
	}
	if !dup.OK || !dup.Duplicate || dup.Message == "" {
		t.Fatalf("unexpected duplicate response: %s", rec.Body.String())
	}
}

func TestIngestEndpointMissingObject(t *testing.T) {
	handler := newTestHandler(uuid.New(), map[string]storage.Object{})

	rec := ingestOnce(t, handler, `{"bucket":"gov_docs","storage_path":"missing.pdf"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "object_not_found") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestIngestEndpointMissingFields(t *testing.T) {
	handler := newTestHandler(uuid.New(), map[string]storage.Object{})

	rec := ingestOnce(t, handler, `{"bucket":"gov_docs"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIngestEndpointTitleOverride(t *testing.T) {
	handler := newTestHandler(uuid.New(), map[string]storage.Object{
		"employee_docs/c.txt": textObject("Employment Contract for Ahmed"),
	})

	rec := ingestOnce(t, handler, `{"bucket":"employee_docs","storage_path":"c.txt","title":"Ahmed Contract","doc_type":"contract"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Metadata *struct {
			Title   string `json:"title"`
			DocType string `json:"doc_type"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if resp.Metadata == nil || resp.Metadata.Title != "Ahmed Contract" || resp.Metadata.DocType != "contract" {
		t.Fatalf("overrides not applied: %s", rec.Body.String())
	}
}
