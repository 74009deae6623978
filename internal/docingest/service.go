package docingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/aqlhr/ingest/internal/domain"
	"github.com/aqlhr/ingest/internal/embedder"
	"github.com/aqlhr/ingest/internal/extract"
	"github.com/aqlhr/ingest/internal/repository"
	"github.com/aqlhr/ingest/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// placeholderText is stored when text extraction fails; the document
// record is still created so the file stays addressable by hash.
const placeholderText = "[text extraction unavailable]"

// ProcessingFlags reports which best-effort processing steps succeeded
// for one ingested document.
type ProcessingFlags struct {
	TextExtracted     bool `json:"text_extracted"`
	MetadataExtracted bool `json:"metadata_extracted"`
	EmbeddingCreated  bool `json:"embedding_created"`
}

// Service ingests documents from tenant storage into content-addressed
// records. Only download, hashing and record creation are fatal; text
// extraction, metadata and embedding degrade independently.
type Service struct {
	storage   storage.Client
	documents repository.DocumentRepository
	vectors   repository.DocumentVectorRepository
	extractor *extract.Extractor
	embedder  embedder.Client
	logger    *zap.Logger
}

// NewService creates a document ingestion service. The embedder may be
// nil when no embedding backend is configured.
func NewService(
	store storage.Client,
	documents repository.DocumentRepository,
	vectors repository.DocumentVectorRepository,
	extractor *extract.Extractor,
	embed embedder.Client,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage:   store,
		documents: documents,
		vectors:   vectors,
		extractor: extractor,
		embedder:  embed,
		logger:    logger,
	}
}

// Request identifies one stored file to ingest for a company. Title and
// DocType, when supplied by the caller, override the heuristic values.
type Request struct {
	CompanyID  uuid.UUID
	Bucket     string
	Path       string
	Language   string
	Portal     string
	EmployeeID *uuid.UUID
	Title      string
	DocType    string
}

// Result is the outcome of one ingestion call. Duplicate means identical
// bytes were already ingested for this company and the existing record
// is returned unchanged.
type Result struct {
	Document  domain.Document
	Duplicate bool
	Flags     ProcessingFlags
}

// Ingest downloads the file, deduplicates by content hash within the
// company, extracts text and metadata, persists the record, and makes a
// best-effort embedding call.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	if req.CompanyID == uuid.Nil {
		return Result{}, errors.New("company id is required")
	}
	if req.Bucket == "" || req.Path == "" {
		return Result{}, errors.New("bucket and path are required")
	}

	obj, err := s.storage.Download(ctx, req.Bucket, req.Path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to download %s/%s: %w", req.Bucket, req.Path, err)
	}

	sum := sha256.Sum256(obj.Data)
	contentHash := hex.EncodeToString(sum[:])

	existing, err := s.documents.GetByHash(ctx, req.CompanyID, contentHash)
	if err == nil {
		s.logger.Info("document already ingested",
			zap.String("document_id", existing.ID.String()),
			zap.String("content_hash", contentHash),
		)
		return Result{Document: existing, Duplicate: true}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Result{}, fmt.Errorf("failed to look up document by hash: %w", err)
	}

	var flags ProcessingFlags

	text, err := s.extractor.Extract(obj.Data, obj.ContentType, req.Path)
	if err != nil || text == "" {
		s.logger.Warn("text extraction failed",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		text = placeholderText
	} else {
		flags.TextExtracted = true
	}

	var metadata domain.DocumentMetadata
	if flags.TextExtracted {
		metadata = ExtractMetadata(text, req.Path)
		flags.MetadataExtracted = metadata.DocType != "" ||
			len(metadata.IqamaNumbers) > 0 || len(metadata.NationalIDs) > 0 ||
			metadata.EffectiveDate != nil
	} else {
		metadata.Title = ExtractMetadata("", req.Path).Title
	}

	if req.Title != "" {
		metadata.Title = req.Title
	}
	if req.DocType != "" {
		metadata.DocType = req.DocType
	}

	doc := domain.NewDocument(req.CompanyID, contentHash, req.Bucket, req.Path, obj.ContentType, obj.Size, text, metadata)
	doc.Language = req.Language
	doc.Portal = req.Portal
	doc.EmployeeID = req.EmployeeID

	created, err := s.documents.Create(ctx, doc)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create document record: %w", err)
	}

	if s.embedder != nil && flags.TextExtracted {
		flags.EmbeddingCreated = s.embed(ctx, created)
	}

	s.logger.Info("document ingested",
		zap.String("document_id", created.ID.String()),
		zap.String("content_hash", contentHash),
		zap.Bool("text_extracted", flags.TextExtracted),
		zap.Bool("embedding_created", flags.EmbeddingCreated),
	)
	return Result{Document: created, Flags: flags}, nil
}

// embed generates and stores the document's vector. Failures are logged
// and never propagate; the document record already exists.
func (s *Service) embed(ctx context.Context, doc domain.Document) bool {
	vector, err := s.embedder.Embed(ctx, doc.Text)
	if err != nil {
		s.logger.Warn("embedding generation failed",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return false
	}

	record := domain.NewDocumentVector(doc.CompanyID, doc.ID, s.embedder.Model(), vector)
	if err := s.vectors.Create(ctx, record); err != nil {
		s.logger.Warn("failed to store document vector",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return false
	}
	return true
}
