package importer

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aqlhr/ingest/internal/auth"
	"github.com/aqlhr/ingest/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the row import pipeline over HTTP.
type Handler struct {
	service  *Service
	resolver *auth.Resolver
	logger   *zap.Logger
}

// NewHandler wraps the import service and tenant resolver.
func NewHandler(service *Service, resolver *auth.Resolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, resolver: resolver, logger: logger}
}

type importRequest struct {
	TenantID string           `json:"tenant_id"`
	Mode     string           `json:"mode"`
	Rows     []map[string]any `json:"rows"`
	DryRun   bool             `json:"dryRun"`
}

type importTotals struct {
	Total     int  `json:"total"`
	Valid     *int `json:"valid,omitempty"`
	Invalid   *int `json:"invalid,omitempty"`
	Processed *int `json:"processed,omitempty"`
	Success   *int `json:"success,omitempty"`
	Failed    *int `json:"failed,omitempty"`
}

type importResponse struct {
	OK     bool         `json:"ok"`
	JobID  string       `json:"job_id"`
	DryRun bool         `json:"dryRun,omitempty"`
	Totals importTotals `json:"totals"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ImportJSON handles POST /api/v1/import with a JSON row payload.
func (h *Handler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	var body importRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if body.Mode == "" || body.Rows == nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "mode and rows are required")
		return
	}

	h.run(w, r, body, "")
}

// ImportFile handles POST /api/v1/import/file with a multipart CSV or
// XLSX upload. Parsed rows flow through the same pipeline as JSON rows.
func (h *Handler) ImportFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid form data: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "file is required")
		return
	}
	defer file.Close()

	mode := strings.TrimSpace(r.FormValue("mode"))
	if mode == "" {
		writeError(w, http.StatusBadRequest, "invalid_payload", "mode is required")
		return
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "failed to read file: "+err.Error())
		return
	}

	rows, err := ParseTable(header.Filename, payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	body := importRequest{
		TenantID: strings.TrimSpace(r.FormValue("tenant_id")),
		Mode:     mode,
		Rows:     rows,
		DryRun:   r.FormValue("dryRun") == "true",
	}
	h.run(w, r, body, header.Filename)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, body importRequest, sourceFile string) {
	hinted := uuid.Nil
	if body.TenantID != "" {
		parsed, err := uuid.Parse(body.TenantID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "invalid tenant_id")
			return
		}
		hinted = parsed
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

	result, err := h.service.Import(auth.ContextWithCompanyID(r.Context(), identity.CompanyID), Request{
		CompanyID:   identity.CompanyID,
		Mode:        parseMode(body.Mode),
		Rows:        body.Rows,
		DryRun:      body.DryRun,
		InitiatedBy: identity.Label,
		SourceFile:  sourceFile,
	})
	if err != nil {
		var coded *CodedError
		if errors.As(err, &coded) {
			writeError(w, http.StatusInternalServerError, coded.Code, coded.Details)
			return
		}
		if strings.Contains(err.Error(), "unsupported import mode") {
			writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
			return
		}
		h.logger.Error("import failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unexpected", err.Error())
		return
	}

	resp := importResponse{
		OK:     true,
		JobID:  result.JobID.String(),
		DryRun: result.DryRun,
	}
	if result.DryRun {
		resp.Totals = importTotals{
			Total:   result.Totals.Total,
			Valid:   intPtr(result.Totals.Valid),
			Invalid: intPtr(result.Totals.Invalid),
		}
	} else {
		resp.Totals = importTotals{
			Total:     result.Totals.Total,
			Processed: intPtr(result.Totals.Processed),
			Success:   intPtr(result.Totals.Success),
			Failed:    intPtr(result.Totals.Failed),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseMode(mode string) domain.ImportMode {
	return domain.ImportMode(strings.ToLower(strings.TrimSpace(mode)))
}

func intPtr(v int) *int { return &v }

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorResponse{OK: false, Error: code, Details: details})
}

// MethodNotAllowed is registered on the router so non-POST calls get the
// same error envelope as other failures.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
}
