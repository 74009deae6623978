package export

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aqlhr/ingest/internal/auth"
	"github.com/aqlhr/ingest/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves import diagnostics reports.
type Handler struct {
	service  *Service
	resolver *auth.Resolver
	logger   *zap.Logger
}

// NewHandler wraps the report service and tenant resolver.
func NewHandler(service *Service, resolver *auth.Resolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, resolver: resolver, logger: logger}
}

// Report handles GET /api/v1/import/{jobID}/report?format=csv|xlsx.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid job id")
		return
	}

	format := Format(r.URL.Query().Get("format"))
	if format == "" {
		format = FormatCSV
	}

	identity, err := h.resolver.Resolve(r.Context(), r.Header.Get("Authorization"), uuid.Nil)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "tenant_resolve_failed", err.Error())
		return
	}

	report, err := h.service.BuildReport(r.Context(), identity.CompanyID, jobID, format)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "job_not_found", "")
		default:
			h.logger.Error("report generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "unexpected", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Data)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": code, "details": details})
}
