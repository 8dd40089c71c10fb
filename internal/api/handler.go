// Package api provides the HTTP surface of the guarded engine.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"sqlguard/internal/domain"
	"sqlguard/internal/engine"
	"sqlguard/internal/middleware"
)

// QueryExecutor runs a statement through the interceptor chain.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlText string, args []any, opts ...engine.Option) (*engine.Result, error)
}

// SessionRevoker ends a session.
type SessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// ScopeFunc computes the data scope of a principal.
type ScopeFunc func(p *domain.Principal) domain.DataScope

// ScopeAllData is the principal scope token that lifts the organisation
// filter of OrgScope.
const ScopeAllData = "data:all"

// OrgScope limits principals to rows of their own organisation unless they
// hold ScopeAllData.
func OrgScope(p *domain.Principal) domain.DataScope {
	if p == nil || p.HasScope(ScopeAllData) {
		return domain.DataScope{}
	}
	return domain.DataScope{SQLFilter: fmt.Sprintf("org_id = %d", p.OrgID)}
}

// Handler serves the query and session endpoints.
type Handler struct {
	exec     QueryExecutor
	sessions SessionRevoker
	scope    ScopeFunc
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil scope uses OrgScope.
func NewHandler(exec QueryExecutor, sessions SessionRevoker, scope ScopeFunc, logger *slog.Logger) *Handler {
	if scope == nil {
		scope = OrgScope
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{exec: exec, sessions: sessions, scope: scope, logger: logger}
}

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	SQL             string `json:"sql"`
	Args            []any  `json:"args,omitempty"`
	Limit           *int64 `json:"limit,omitempty"`
	PageToken       string `json:"page_token,omitempty"`
	WithTotal       bool   `json:"with_total,omitempty"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

// QueryResponse is the body of a successful POST /v1/query.
type QueryResponse struct {
	Columns       []string         `json:"columns,omitempty"`
	Rows          []map[string]any `json:"rows,omitempty"`
	RowsAffected  int64            `json:"rows_affected"`
	Total         *int64           `json:"total,omitempty"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

// ExecuteQuery runs the request's statement under the caller's data scope.
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeDomainError(w, domain.ErrValidation("sql is required"))
		return
	}

	ctx := r.Context()
	p, _ := domain.PrincipalFromContext(ctx)

	opts := []engine.Option{engine.WithScope(h.scope(p))}
	if req.Limit != nil {
		opts = append(opts, engine.WithPage(domain.PageRequestFromToken(req.PageToken, *req.Limit, req.WithTotal)))
	}
	if req.ExpectedVersion != nil {
		opts = append(opts, engine.WithExpectedVersion(*req.ExpectedVersion))
	}

	res, err := h.exec.Execute(ctx, req.SQL, normalizeArgs(req.Args), opts...)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		Columns:       res.Columns,
		Rows:          res.Rows,
		RowsAffected:  res.RowsAffected,
		Total:         res.Total,
		NextPageToken: res.NextPageToken,
	})
}

// CurrentSession returns the caller's principal.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	p, _ := domain.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, p)
}

// RevokeSession ends the caller's session.
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), middleware.AccessToken(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// normalizeArgs turns JSON numbers into int64 where they are integral so
// drivers bind them as integers.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		n, ok := a.(json.Number)
		if !ok {
			out[i] = a
			continue
		}
		if v, err := n.Int64(); err == nil {
			out[i] = v
		} else if f, err := n.Float64(); err == nil {
			out[i] = f
		} else {
			out[i] = n.String()
		}
	}
	return out
}
