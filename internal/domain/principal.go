package domain

import (
	"slices"
	"strings"
	"time"
)

// Principal is the authenticated identity performing the current operation.
// It is the record serialized into the session store.
type Principal struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username,omitempty"`
	OrgID     int64     `json:"org_id,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// HasScope reports whether the principal was granted the given scope token.
func (p *Principal) HasScope(scope string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Scopes, scope)
}

// Validate checks that the principal can be stored.
func (p *Principal) Validate() error {
	if p == nil {
		return ErrValidation("principal is required")
	}
	if p.ID <= 0 {
		return ErrValidation("principal id must be positive")
	}
	return nil
}

// DataScope is the row-visibility predicate computed by the authorization
// layer for the current principal. It may be passed to the engine either as
// an option or among the bound arguments; in the latter case it is removed
// from the arguments before execution.
type DataScope struct {
	SQLFilter string
}

// IsBlank reports whether the scope imposes no restriction.
func (s *DataScope) IsBlank() bool {
	if s == nil {
		return true
	}
	return strings.TrimSpace(s.SQLFilter) == ""
}
