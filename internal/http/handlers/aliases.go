package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookpilot/booking-nlu/internal/nlu"
	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// AliasHandler manages per-tenant alias tables.
type AliasHandler struct {
	catalog *nlu.AliasCatalog
	logger  *logging.Logger
}

func NewAliasHandler(catalog *nlu.AliasCatalog, logger *logging.Logger) *AliasHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AliasHandler{catalog: catalog, logger: logger}
}

// Get handles GET /v1/tenants/{tenantID}/aliases.
func (h *AliasHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	aliases, err := h.catalog.Load(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("alias load failed", "tenant_id", tenantID, "error", err.Error())
		writeError(w, http.StatusServiceUnavailable, "alias catalog unavailable")
		return
	}
	if aliases == nil {
		aliases = map[string]nlu.AliasEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenant_id": tenantID, "aliases": aliases})
}

// Put handles PUT /v1/tenants/{tenantID}/aliases, replacing the whole table.
func (h *AliasHandler) Put(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	var body struct {
		Aliases map[string]nlu.AliasEntry `json:"aliases"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	for alias, entry := range body.Aliases {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(entry.CanonicalFamily) == "" {
			writeError(w, http.StatusBadRequest, "alias and canonical_family are required")
			return
		}
	}
	if err := h.catalog.Save(r.Context(), tenantID, body.Aliases); err != nil {
		h.logger.Error("alias save failed", "tenant_id", tenantID, "error", err.Error())
		writeError(w, http.StatusServiceUnavailable, "alias catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenant_id": tenantID, "count": len(body.Aliases)})
}

// Delete handles DELETE /v1/tenants/{tenantID}/aliases.
func (h *AliasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if err := h.catalog.Delete(r.Context(), tenantID); err != nil {
		h.logger.Error("alias delete failed", "tenant_id", tenantID, "error", err.Error())
		writeError(w, http.StatusServiceUnavailable, "alias catalog unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
