package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bookpilot/booking-nlu/internal/nlu"
	"github.com/bookpilot/booking-nlu/internal/tenancy"
	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// ResolveHandler exposes the resolution pipeline over HTTP.
type ResolveHandler struct {
	pipeline        *nlu.Pipeline
	catalog         *nlu.AliasCatalog
	defaultDomain   nlu.Domain
	defaultTimezone string
	logger          *logging.Logger
}

// NewResolveHandler creates a new resolve handler. catalog may be nil; tenant
// aliases are then only honored when inlined in the request body.
func NewResolveHandler(pipeline *nlu.Pipeline, catalog *nlu.AliasCatalog, defaultDomain nlu.Domain, defaultTimezone string, logger *logging.Logger) *ResolveHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolveHandler{
		pipeline:        pipeline,
		catalog:         catalog,
		defaultDomain:   defaultDomain,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// ResolveRequest is the POST /v1/resolve body. Now pins the reference clock;
// omitted, the server's clock applies and replays are not reproducible.
type ResolveRequest struct {
	Text          string                    `json:"text"`
	Domain        string                    `json:"domain,omitempty"`
	Timezone      string                    `json:"timezone,omitempty"`
	Now           *time.Time                `json:"now,omitempty"`
	TenantAliases map[string]nlu.AliasEntry `json:"tenant_aliases,omitempty"`
}

// Resolve handles POST /v1/resolve.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	domain := h.defaultDomain
	if req.Domain != "" {
		domain = nlu.Domain(req.Domain)
	}
	timezone := h.defaultTimezone
	if req.Timezone != "" {
		timezone = req.Timezone
	}

	aliases := req.TenantAliases
	if aliases == nil && h.catalog != nil {
		if tenantID, ok := tenancy.TenantIDFromContext(r.Context()); ok {
			loaded, err := h.catalog.Load(r.Context(), tenantID)
			if err != nil {
				h.logger.Error("alias catalog load failed", "tenant_id", tenantID, "error", err.Error())
				writeError(w, http.StatusServiceUnavailable, "alias catalog unavailable")
				return
			}
			aliases = loaded
		}
	}

	pipelineReq := nlu.Request{
		Text:          req.Text,
		Domain:        domain,
		Timezone:      timezone,
		TenantAliases: aliases,
	}
	if req.Now != nil {
		pipelineReq.Now = *req.Now
	}

	result := h.pipeline.Resolve(r.Context(), pipelineReq)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
		if result.ErrorCode == nlu.ErrCodeInvalidDomain || result.ErrorCode == nlu.ErrCodeInvalidTimezone || result.ErrorCode == nlu.ErrCodeEmptyText {
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, result)
}

// Health handles GET /health.
func (h *ResolveHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
