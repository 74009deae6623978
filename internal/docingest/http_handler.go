package docingest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aqlhr/ingest/internal/auth"
	"github.com/aqlhr/ingest/internal/domain"
	"github.com/aqlhr/ingest/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes document ingestion over HTTP.
type Handler struct {
	service  *Service
	resolver *auth.Resolver
	logger   *zap.Logger
}

// NewHandler wraps the ingestion service and tenant resolver.
func NewHandler(service *Service, resolver *auth.Resolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, resolver: resolver, logger: logger}
}

type ingestRequest struct {
	TenantID    string `json:"tenant_id"`
	Bucket      string `json:"bucket"`
	StoragePath string `json:"storage_path"`
	Lang        string `json:"lang"`
	Portal      string `json:"portal"`
	EmployeeID  string `json:"employee_id"`
	DocType     string `json:"doc_type"`
	Title       string `json:"title"`
}

type ingestResponse struct {
	OK         bool                     `json:"ok"`
	Duplicate  bool                     `json:"duplicate,omitempty"`
	Document   domain.Document          `json:"document"`
	Metadata   *domain.DocumentMetadata `json:"metadata,omitempty"`
	Processing *ProcessingFlags         `json:"processing,omitempty"`
	Message    string                   `json:"message,omitempty"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Ingest handles POST /api/v1/documents/ingest.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var body ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if body.Bucket == "" || body.StoragePath == "" {
		writeError(w, http.StatusBadRequest, "invalid_payload", "bucket and storage_path are required")
		return
	}

	hinted := uuid.Nil
	if body.TenantID != "" {
		parsed, err := uuid.Parse(body.TenantID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "invalid tenant_id")
			return
		}
		hinted = parsed
	}

	var employeeID *uuid.UUID
	if body.EmployeeID != "" {
		parsed, err := uuid.Parse(body.EmployeeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "invalid employee_id")
			return
		}
		employeeID = &parsed
	}

	identity, err := h.resolver.Resolve(r.Context(), r.Header.Get("Authorization"), hinted)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrTenantMismatch) {
			status = http.StatusForbidden
		}
		writeError(w, status, "tenant_resolve_failed", err.Error())
		return
	}

	result, err := h.service.Ingest(auth.ContextWithCompanyID(r.Context(), identity.CompanyID), Request{
		CompanyID:  identity.CompanyID,
		Bucket:     body.Bucket,
		Path:       body.StoragePath,
		Language:   body.Lang,
		Portal:     body.Portal,
		EmployeeID: employeeID,
		Title:      body.Title,
		DocType:    body.DocType,
	})
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "object_not_found", err.Error())
			return
		}
		h.logger.Error("document ingestion failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unexpected", err.Error())
		return
	}

	if result.Duplicate {
		writeJSON(w, http.StatusOK, ingestResponse{
			OK:        true,
			Duplicate: true,
			Document:  result.Document,
			Message:   "document already ingested",
		})
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		OK:         true,
		Document:   result.Document,
		Metadata:   &result.Document.Metadata,
		Processing: &result.Flags,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorResponse{OK: false, Error: code, Details: details})
}
