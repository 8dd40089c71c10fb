package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlguard/internal/api"
	internaldb "sqlguard/internal/db"
	"sqlguard/internal/domain"
	"sqlguard/internal/engine"
	"sqlguard/internal/middleware"
)

var ctx = context.Background()

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Principal
}

func (m *memorySessions) Resolve(_ context.Context, token string) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[token], nil
}

func (m *memorySessions) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

type testServer struct {
	handler  http.Handler
	sessions *memorySessions
	registry *prometheus.Registry
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	writeDB := internaldb.OpenTestSQLite(t)

	_, err := writeDB.ExecContext(ctx, `INSERT INTO sys_org (id, name) VALUES (1, 'hq'), (2, 'branch')`)
	require.NoError(t, err)
	for i := 1; i <= 6; i++ {
		org := 1
		if i > 3 {
			org = 2
		}
		_, err := writeDB.ExecContext(ctx,
			`INSERT INTO sys_user (id, username, real_name, status, org_id) VALUES (?, ?, ?, 1, ?)`,
			i, fmt.Sprintf("u%d", i), fmt.Sprintf("User %d", i), org)
		require.NoError(t, err)
	}

	reg := prometheus.NewRegistry()
	logger := slog.New(slog.DiscardHandler)
	eng := engine.NewGuardedEngine(writeDB, engine.Config{Metrics: engine.NewMetrics(reg)}, logger)
	sessions := &memorySessions{sessions: map[string]*domain.Principal{
		"alice": {ID: 1, OrgID: 1},
		"root":  {ID: 99, OrgID: 1, Scopes: []string{api.ScopeAllData}},
	}}

	h := api.NewHandler(eng, sessions, nil, logger)
	router := api.NewRouter(h, api.RouterConfig{
		Resolver: sessions,
		Session:  middleware.SessionConfig{Logger: logger},
		Gatherer: reg,
		Logger:   logger,
	})
	return &testServer{handler: router, sessions: sessions, registry: reg}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestQuery_RequiresPrincipal(t *testing.T) {
	srv := setupServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/query", "", api.QueryRequest{SQL: "SELECT id FROM sys_user"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/v1/query", "forged", api.QueryRequest{SQL: "SELECT id FROM sys_user"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQuery_ScopedToOrganisation(t *testing.T) {
	srv := setupServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/query", "alice", api.QueryRequest{SQL: "SELECT id FROM sys_user ORDER BY id"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.QueryResponse](t, rec)
	assert.Len(t, resp.Rows, 3)

	rec = srv.do(t, http.MethodPost, "/v1/query", "root", api.QueryRequest{SQL: "SELECT id FROM sys_user ORDER BY id"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[api.QueryResponse](t, rec)
	assert.Len(t, resp.Rows, 6)
}

func TestQuery_PaginationWithTotal(t *testing.T) {
	srv := setupServer(t)
	limit := int64(2)

	rec := srv.do(t, http.MethodPost, "/v1/query", "root", api.QueryRequest{
		SQL: "SELECT id FROM sys_user ORDER BY id", Limit: &limit, WithTotal: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[api.QueryResponse](t, rec)
	require.NotNil(t, first.Total)
	assert.Equal(t, int64(6), *first.Total)
	assert.Len(t, first.Rows, 2)
	require.NotEmpty(t, first.NextPageToken)

	rec = srv.do(t, http.MethodPost, "/v1/query", "root", api.QueryRequest{
		SQL: "SELECT id FROM sys_user ORDER BY id", Limit: &limit, PageToken: first.NextPageToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[api.QueryResponse](t, rec)
	require.Len(t, second.Rows, 2)
	assert.InDelta(t, 3, second.Rows[0]["id"], 0.001)
}

func TestQuery_ArgsBindAsIntegers(t *testing.T) {
	srv := setupServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/query", "root", api.QueryRequest{
		SQL: "SELECT username FROM sys_user WHERE id = ?", Args: []any{5},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.QueryResponse](t, rec)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "u5", resp.Rows[0]["username"])
}

func TestQuery_ErrorMapping(t *testing.T) {
	srv := setupServer(t)
	stale := int64(7)

	tests := []struct {
		name string
		req  api.QueryRequest
		want int
	}{
		{name: "missing sql", req: api.QueryRequest{}, want: http.StatusBadRequest},
		{name: "full table delete", req: api.QueryRequest{SQL: "DELETE FROM sys_user"}, want: http.StatusForbidden},
		{name: "unenforceable scope", req: api.QueryRequest{SQL: "SELECT id FROM sys_user UNION SELECT id FROM sys_org"}, want: http.StatusForbidden},
		{name: "stale version", req: api.QueryRequest{
			SQL: "UPDATE sys_user SET real_name = ? WHERE id = ?", Args: []any{"x", 1}, ExpectedVersion: &stale,
		}, want: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/v1/query", "alice", tt.req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			body := decode[api.Error](t, rec)
			assert.Equal(t, tt.want, body.Code)
		})
	}
}

func TestQuery_InvalidBody(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer alice")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_CurrentAndRevoke(t *testing.T) {
	srv := setupServer(t)

	rec := srv.do(t, http.MethodGet, "/v1/session", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[domain.Principal](t, rec)
	assert.Equal(t, int64(1), p.ID)

	rec = srv.do(t, http.MethodDelete, "/v1/session", "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/session", "alice", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := setupServer(t)

	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))

	srv.do(t, http.MethodPost, "/v1/query", "alice", api.QueryRequest{SQL: "SELECT id FROM sys_user"})
	rec = srv.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sqlguard_statements_total")
}

func TestOrgScope(t *testing.T) {
	assert.Equal(t, "org_id = 4", api.OrgScope(&domain.Principal{ID: 1, OrgID: 4}).SQLFilter)
	all := api.OrgScope(&domain.Principal{ID: 1, Scopes: []string{api.ScopeAllData}})
	assert.True(t, all.IsBlank())
}
