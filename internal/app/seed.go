package app

import (
	"context"
	"fmt"

	"sqlguard/internal/domain"
	"sqlguard/internal/engine"
)

// SeedResult reports what Seed created.
type SeedResult struct {
	OrgID  int64
	UserID int64
}

// Seed creates a bootstrap organisation and an administrator account through
// the guarded engine. It is a no-op returning nil when any user exists.
func Seed(ctx context.Context, eng *engine.GuardedEngine, username string) (*SeedResult, error) {
	res, err := eng.Execute(ctx, "SELECT COUNT(*) AS n FROM sys_user", nil)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if n, _ := res.Rows[0]["n"].(int64); n > 0 {
		return nil, nil
	}

	org, err := eng.Execute(ctx, "INSERT INTO sys_org (name) VALUES (?)", []any{"default"})
	if err != nil {
		return nil, fmt.Errorf("create org: %w", err)
	}

	orgID := org.LastInsertID
	if orgID == 0 {
		// Drivers without LastInsertId support.
		found, err := eng.Execute(ctx, "SELECT MAX(id) AS id FROM sys_org WHERE name = ?", []any{"default"})
		if err != nil {
			return nil, fmt.Errorf("lookup org: %w", err)
		}
		orgID, _ = found.Rows[0]["id"].(int64)
	}

	admin := &domain.User{Username: username, RealName: "Administrator", Status: 1, OrgID: orgID}
	if _, err := eng.Insert(ctx, admin); err != nil {
		return nil, fmt.Errorf("create %s: %w", username, err)
	}
	return &SeedResult{OrgID: orgID, UserID: admin.ID}, nil
}
