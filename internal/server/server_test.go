package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/health"
	"github.com/felixgeelhaar/flowbind/internal/log"
	"github.com/felixgeelhaar/flowbind/internal/mapping"
	"github.com/felixgeelhaar/flowbind/internal/model"
)

const accountsAPI = `openapi: 3.0.0
info:
  title: Accounts
  version: 1.0.0
paths:
  /accounts:
    get:
      operationId: getAccounts
      summary: Получение списка счетов
      responses:
        '200':
          description: OK
  /payments:
    post:
      operationId: createPayment
      summary: Создание платежа
      responses:
        '201':
          description: Created
`

const accountsAPIJSON = `{
  "openapi": "3.0.0",
  "info": {"title": "Accounts", "version": "1.0.0"},
  "paths": {
    "/accounts": {"get": {"operationId": "getAccounts", "responses": {"200": {"description": "OK"}}}}
  }
}`

var testProcess = map[string]any{
	"id": "p",
	"tasks": []map[string]any{
		{"id": "getAccounts", "name": "Accounts"},
		{"id": "pay", "name": "Pay: POST /payments"},
		{"id": "weather", "name": "Forecast weather"},
	},
}

func newTestServer(t *testing.T) (*Server, *catalog.Cache) {
	t.Helper()
	logger := log.Discard()
	cache, err := catalog.NewCache(catalog.NewLoader(logger), 8)
	require.NoError(t, err)

	probes := health.NewProbes("test")
	probes.AddChecker(health.NewCacheChecker(cache))

	srv := New(mapping.NewService(mapping.WithLogger(logger)), cache, probes, logger, Config{Address: "127.0.0.1:0"})
	return srv, cache
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHandleMap(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := post(t, srv.Handler(), "/api/mapping/map", map[string]any{"process": testProcess, "openapi": accountsAPI})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result model.MappingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.TotalTasks)
	assert.Equal(t, 2, result.MatchedTasks)
	assert.Equal(t, 1.0, result.TaskMappings["getAccounts"].ConfidenceScore)
	assert.Equal(t, "/payments", result.TaskMappings["pay"].EndpointPath)
	require.Len(t, result.UnmatchedTasks, 1)
	assert.Equal(t, "weather", result.UnmatchedTasks[0].ElementID)
}

func TestHandleMap_DocumentObject(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"process": {"id": "p", "tasks": [{"id": "getAccounts", "name": "Accounts"}]}, "openapi": ` + accountsAPIJSON + `}`
	rec := post(t, srv.Handler(), "/api/mapping/map", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result model.MappingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.MatchedTasks)
	assert.Equal(t, model.StrategyExact, result.TaskMappings["getAccounts"].Strategy)
}

func TestHandleMap_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"malformed json", `{"process":`, "SERVER-001"},
		{"missing openapi", map[string]any{"process": testProcess}, "OPENAPI-003"},
		{"blank openapi string", map[string]any{"process": testProcess, "openapi": "  "}, "OPENAPI-003"},
		{"unparseable openapi", map[string]any{"process": testProcess, "openapi": "::not openapi"}, "OPENAPI-002"},
		{"missing process", map[string]any{"openapi": accountsAPI}, "PROCESS-002"},
		{"task without id", map[string]any{
			"process": map[string]any{"id": "p", "tasks": []map[string]any{{"name": "x"}}},
			"openapi": accountsAPI,
		}, "PROCESS-002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, srv.Handler(), "/api/mapping/map", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, tt.code, detail.Code)
			assert.NotEmpty(t, detail.Message)
		})
	}
}

func TestHandleMap_BodyTooLarge(t *testing.T) {
	logger := log.Discard()
	cache, err := catalog.NewCache(catalog.NewLoader(logger), 1)
	require.NoError(t, err)
	srv := New(mapping.NewService(mapping.WithLogger(logger)), cache, health.NewProbes("test"), logger,
		Config{MaxBodyBytes: 16})

	rec := post(t, srv.Handler(), "/api/mapping/map", map[string]any{"process": testProcess, "openapi": accountsAPI})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "too large")
}

func TestHandleRecommendations(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := post(t, srv.Handler(), "/api/mapping/recommendations", map[string]any{"process": testProcess, "openapi": accountsAPI})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got mapping.Recommendations
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TotalTasks)
	assert.Equal(t, 2, got.MatchedTasks)
	require.Len(t, got.UnmatchedTasks, 1)
	assert.NotEmpty(t, got.UnmatchedTasks[0].Recommendations)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "task_mappings")
}

func TestHandleCatalog(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := post(t, srv.Handler(), "/api/catalog", map[string]any{"openapi": accountsAPI})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var endpoints []model.Endpoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &endpoints))
	require.Len(t, endpoints, 2)
	assert.Equal(t, "/accounts", endpoints[0].Path)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.NotEmpty(t, endpoints[0].ComposedText)

	rec = post(t, srv.Handler(), "/api/catalog", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentCache(t *testing.T) {
	srv, cache := newTestServer(t)
	body := map[string]any{"process": testProcess, "openapi": accountsAPI}

	post(t, srv.Handler(), "/api/mapping/map", body)
	post(t, srv.Handler(), "/api/mapping/recommendations", body)
	post(t, srv.Handler(), "/api/catalog", map[string]any{"openapi": accountsAPI})
	assert.Equal(t, 1, cache.Len(), "identical documents should be parsed once")

	post(t, srv.Handler(), "/api/catalog", map[string]any{"openapi": accountsAPI + "\n"})
	assert.Equal(t, 2, cache.Len())
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := post(t, srv.Handler(), "/api/catalog", map[string]any{"openapi": accountsAPI})
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	rec = post(t, srv.Handler(), "/api/mapping/map", `{`)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID), "errors carry a request id too")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/mapping/map", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func getProbe(t *testing.T, h http.Handler, path string) (int, health.ProbeResult) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var result health.ProbeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return rec.Code, result
}

func TestProbes(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	code, _ := getProbe(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code, "not ready before start")

	srv.probes.MarkInitialized()
	code, ready := getProbe(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, health.StatusHealthy, ready.Status)
	assert.Contains(t, ready.Checks, "catalog-cache")

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.True(t, srv.IsShuttingDown())

	code, _ = getProbe(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, live := getProbe(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, health.StatusDegraded, live.Status)
}

func TestOpenAPIBytes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"object", `{"openapi":"3.0.0"}`, `{"openapi":"3.0.0"}`, false},
		{"string", `"openapi: 3.0.0"`, "openapi: 3.0.0", false},
		{"null", `null`, "", true},
		{"empty", ``, "", true},
		{"blank string", `"   "`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := openAPIBytes(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(string(got)))
		})
	}
}
