package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookpilot/booking-nlu/internal/nlu"
	"github.com/bookpilot/booking-nlu/internal/tenancy"
)

func newResolveHandler(t *testing.T) (*ResolveHandler, *nlu.AliasCatalog) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	catalog := nlu.NewAliasCatalog(client, 0, nil)
	pipeline := nlu.NewPipeline(nlu.DefaultVocabulary(), nil, nil)
	return NewResolveHandler(pipeline, catalog, nlu.DomainService, "UTC", nil), catalog
}

func postResolve(t *testing.T, h *ResolveHandler, body map[string]any, tenantID string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewReader(raw))
	if tenantID != "" {
		req = req.WithContext(tenancy.WithTenantID(req.Context(), tenantID))
	}
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)
	return rec
}

func TestResolveEndpointSuccess(t *testing.T) {
	h, _ := newResolveHandler(t)

	rec := postResolve(t, h, map[string]any{
		"text": "book a haircut tomorrow at 2pm",
		"now":  "2025-01-14T10:00:00Z",
	}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var result nlu.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, nlu.IntentCreateBooking, result.Intent.Intent)
	require.NotNil(t, result.Stages.Calendar.DateRange)
	assert.Equal(t, "2025-01-15", result.Stages.Calendar.DateRange.Start)
}

func TestResolveEndpointUsesTenantAliases(t *testing.T) {
	h, catalog := newResolveHandler(t)
	require.NoError(t, catalog.Save(context.Background(), "tenant-a", map[string]nlu.AliasEntry{
		"mens cut": {CanonicalFamily: "haircut", Priority: 10},
	}))

	rec := postResolve(t, h, map[string]any{
		"text": "book a mens cut tomorrow at 2pm",
		"now":  "2025-01-14T10:00:00Z",
	}, "tenant-a")

	require.Equal(t, http.StatusOK, rec.Code)
	var result nlu.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Stages.Extraction.Services, 1)
	assert.Equal(t, "haircut", result.Stages.Extraction.Services[0].CanonicalKey)
}

func TestResolveEndpointBadRequest(t *testing.T) {
	h, _ := newResolveHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postResolve(t, h, map[string]any{"text": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveEndpointNoEntities(t *testing.T) {
	h, _ := newResolveHandler(t)

	rec := postResolve(t, h, map[string]any{"text": "hello there how are you"}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var result nlu.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, nlu.ErrCodeNoEntities, result.ErrorCode)
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newResolveHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
