package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlguard/internal/api"
	"sqlguard/internal/app"
	"sqlguard/internal/config"
	internaldb "sqlguard/internal/db"
	"sqlguard/internal/domain"
)

var ctx = context.Background()

func newApp(t *testing.T) (*app.App, *miniredis.Miniredis) {
	t.Helper()
	writeDB := internaldb.OpenTestSQLite(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		DBDriver: internaldb.DriverSQLite,
		Session: config.SessionConfig{
			Namespace:    "sys:token",
			TTL:          time.Hour,
			RateLimitRPS: 100,
			RateBurst:    100,
		},
		Guard:              config.GuardConfig{VersionColumn: "version", PageMaxLimit: 50},
		CORSAllowedOrigins: []string{"*"},
	}
	a := app.New(app.Deps{
		Cfg:      cfg,
		DB:       writeDB,
		Redis:    client,
		Registry: prometheus.NewRegistry(),
		Logger:   slog.New(slog.DiscardHandler),
	})
	return a, mr
}

func TestSeed_CreatesAdminOnce(t *testing.T) {
	a, _ := newApp(t)

	res, err := app.Seed(ctx, a.Engine, "admin")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Positive(t, res.OrgID)
	assert.Positive(t, res.UserID)

	again, err := app.Seed(ctx, a.Engine, "admin")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestApp_IssuedTokenQueriesOwnOrganisation(t *testing.T) {
	a, mr := newApp(t)
	seeded, err := app.Seed(ctx, a.Engine, "admin")
	require.NoError(t, err)

	token, err := a.Resolver.Issue(ctx, &domain.Principal{ID: seeded.UserID, OrgID: seeded.OrgID})
	require.NoError(t, err)
	assert.True(t, mr.Exists("sys:token:"+token))

	body, err := json.Marshal(api.QueryRequest{SQL: "SELECT username, org_id FROM sys_user"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "admin", resp.Rows[0]["username"])

	require.NoError(t, a.Resolver.Revoke(ctx, token))
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	a.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApp_StoreDownAnswers503(t *testing.T) {
	a, mr := newApp(t)
	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
