package docingest

import (
	"context"
	"errors"
	"testing"

	"github.com/aqlhr/ingest/internal/domain"
	"github.com/aqlhr/ingest/internal/extract"
	"github.com/aqlhr/ingest/internal/repository"
	"github.com/aqlhr/ingest/internal/storage"

	"github.com/google/uuid"
)

type stubStorage struct {
	objects map[string]storage.Object
}

func (s *stubStorage) Download(_ context.Context, bucket, path string) (storage.Object, error) {
	obj, ok := s.objects[bucket+"/"+path]
	if !ok {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return obj, nil
}

type stubDocRepo struct {
	byHash    map[string]domain.Document
	createErr error
}

func newStubDocRepo() *stubDocRepo {
	return &stubDocRepo{byHash: map[string]domain.Document{}}
}

func (s *stubDocRepo) GetByHash(_ context.Context, companyID uuid.UUID, contentHash string) (domain.Document, error) {
	doc, ok := s.byHash[companyID.String()+"/"+contentHash]
	if !ok {
		return domain.Document{}, repository.ErrNotFound
	}
	return doc, nil
}

func (s *stubDocRepo) Create(_ context.Context, doc domain.Document) (domain.Document, error) {
	if s.createErr != nil {
		return domain.Document{}, s.createErr
	}
	s.byHash[doc.CompanyID.String()+"/"+doc.ContentHash] = doc
	return doc, nil
}

type stubVectorRepo struct {
	vectors []domain.DocumentVector
}

func (s *stubVectorRepo) Create(_ context.Context, vector domain.DocumentVector) error {
	s.vectors = append(s.vectors, vector)
	return nil
}

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

func (s *stubEmbedder) Model() string { return "test-embedding-model" }

func textObject(text string) storage.Object {
	data := []byte(text)
	return storage.Object{Data: data, ContentType: "text/plain", Size: int64(len(data))}
}

func TestIngestCreatesDocument(t *testing.T) {
	store := &stubStorage{objects: map[string]storage.Object{
		"employee_docs/permits/wp-1.txt": textObject("Work Permit\nIqama: 2123456789\nValid 2026-01-01 to 2027-01-01"),
	}}
	docs := newStubDocRepo()
	vectors := &stubVectorRepo{}
	embed := &stubEmbedder{}
	svc := NewService(store, docs, vectors, extract.NewExtractor(), embed, nil)

	result, err := svc.Ingest(context.Background(), Request{
		CompanyID: uuid.New(),
		Bucket:    "employee_docs",
		Path:      "permits/wp-1.txt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Duplicate {
		t.Fatal("first ingestion reported as duplicate")
	}
	if !result.Flags.TextExtracted || !result.Flags.MetadataExtracted || !result.Flags.EmbeddingCreated {
		t.Fatalf("unexpected flags: %+v", result.Flags)
	}
	if len(result.Document.ContentHash) != 64 {
		t.Fatalf("content hash is not hex sha256: %q", result.Document.ContentHash)
	}
	if result.Document.Metadata.DocType != "work_permit" {
		t.Fatalf("unexpected doc type: %q", result.Document.Metadata.DocType)
	}
	if len(vectors.vectors) != 1 || vectors.vectors[0].Model != "test-embedding-model" {
		t.Fatalf("vector not stored: %+v", vectors.vectors)
	}
}

func TestIngestDeduplicatesByContentHash(t *testing.T) {
	store := &stubStorage{objects: map[string]storage.Object{
		"employee_docs/a.txt": textObject("same bytes"),
		"employee_docs/b.txt": textObject("same bytes"),
	}}
	docs := newStubDocRepo()
	svc := NewService(store, docs, &stubVectorRepo{}, extract.NewExtractor(), nil, nil)

	companyID := uuid.New()
	first, err := svc.Ingest(context.Background(), Request{CompanyID: companyID, Bucket: "employee_docs", Path: "a.txt"})
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := svc.Ingest(context.Background(), Request{CompanyID: companyID, Bucket: "employee_docs", Path: "b.txt"})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	if !second.Duplicate {
		t.Fatal("identical bytes not reported as duplicate")
	}
	if second.Document.ID != first.Document.ID {
		t.Fatal("duplicate did not return the existing record")
	}
	if len(docs.byHash) != 1 {
		t.Fatalf("expected 1 stored document, got %d", len(docs.byHash))
	}
}

func TestIngestSameBytesDifferentCompanies(t *testing.T) {
	store := &stubStorage{objects: map[string]storage.Object{
		"employee_docs/a.txt": textObject("shared template"),
	}}
	docs := newStubDocRepo()
	svc := NewService(store, docs, &stubVectorRepo{}, extract.NewExtractor(), nil, nil)

	req := Request{Bucket: "employee_docs", Path: "a.txt"}
	req.CompanyID = uuid.New()
	if _, err := svc.Ingest(context.Background(), req); err != nil {
		t.Fatalf("first company: %v", err)
	}
	req.CompanyID = uuid.New()
	result, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("second company: %v", err)
	}

	if result.Duplicate {
		t.Fatal("hash deduplication leaked across companies")
	}
	if len(docs.byHash) != 2 {
		t.Fatalf("expected 2 stored documents, got %d", len(docs.byHash))
	}
}

func TestIngestMissingObject(t *testing.T) {
	svc := NewService(&stubStorage{objects: map[string]storage.Object{}}, newStubDocRepo(), &stubVectorRepo{}, extract.NewExtractor(), nil, nil)

	_, err := svc.Ingest(context.Background(), Request{CompanyID: uuid.New(), Bucket: "employee_docs", Path: "missing.pdf"})
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestIngestStoresPlaceholderWhenExtractionFails(t *testing.T) {
	// A .docx path with bytes that are not a zip archive fails extraction.
	store := &stubStorage{objects: map[string]storage.Object{
		"employee_docs/broken.docx": {Data: []byte("not a zip"), ContentType: "application/octet-stream", Size: 9},
	}}
	docs := newStubDocRepo()
	embed := &stubEmbedder{}
	svc := NewService(store, docs, &stubVectorRepo{}, extract.NewExtractor(), embed, nil)

	result, err := svc.Ingest(context.Background(), Request{CompanyID: uuid.New(), Bucket: "employee_docs", Path: "broken.docx"})
	if err != nil {
		t.Fatalf("extraction failure must not fail ingestion: %v", err)
	}

	if result.Flags.TextExtracted {
		t.Fatal("text_extracted reported for failed extraction")
	}
	if result.Document.Text != placeholderText {
		t.Fatalf("expected placeholder text, got %q", result.Document.Text)
	}
	if embed.calls != 0 {
		t.Fatal("embedding attempted on placeholder text")
	}
}

func TestIngestEmbeddingFailureIsNonFatal(t *testing.T) {
	store := &stubStorage{objects: map[string]storage.Object{
		"employee_docs/a.txt": textObject("Employment Contract"),
	}}
	vectors := &stubVectorRepo{}
	embed := &stubEmbedder{err: errors.New("service unavailable")}
	svc := NewService(store, newStubDocRepo(), vectors, extract.NewExtractor(), embed, nil)

	result, err := svc.Ingest(context.Background(), Request{CompanyID: uuid.New(), Bucket: "employee_docs", Path: "a.txt"})
	if err != nil {
		t.Fatalf("embedding failure must not fail ingestion: %v", err)
	}
	if result.Flags.EmbeddingCreated {
		t.Fatal("embedding_created reported despite failure")
	}
	if len(vectors.vectors) != 0 {
		t.Fatal("vector stored despite embedding failure")
	}
	if result.Document.Status != domain.DocumentStatusCompleted {
		t.Fatalf("document not completed: %s", result.Document.Status)
	}
}
