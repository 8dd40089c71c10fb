// Package audit stamps audit fields onto entities before they are written.
package audit

import (
	"context"
	"log/slog"
	"time"

	"sqlguard/internal/domain"
)

// FieldFiller sets creator, updater, timestamps, version, and the deleted flag
// from the acting principal in the context. It works on the in-memory entity,
// so it runs before the statement is built and intercepted.
type FieldFiller struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewFieldFiller creates a FieldFiller. A nil clock uses time.Now.
func NewFieldFiller(now func() time.Time, logger *slog.Logger) *FieldFiller {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldFiller{now: now, logger: logger}
}

// FillInsert prepares a new row. Version and the deleted flag are reset
// regardless of what the caller supplied. Without a principal the user
// fields stay unset.
func (f *FieldFiller) FillInsert(ctx context.Context, e domain.Entity) {
	now := f.now().UTC()
	base := e.Base()

	base.CreateTime = now
	base.UpdateTime = now
	base.Version = 0
	base.Deleted = 0

	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		base.Creator = nil
		base.Updater = nil
		f.logger.Debug("insert without principal", "table", e.TableName())
		return
	}
	base.Creator = int64Ptr(p.ID)
	base.Updater = int64Ptr(p.ID)
	if scoped, ok := e.(domain.OrgScoped); ok {
		scoped.SetOrgID(p.OrgID)
	}
}

// FillUpdate refreshes updater and update time. Creator, create time, and
// version are left alone.
func (f *FieldFiller) FillUpdate(ctx context.Context, e domain.Entity) {
	base := e.Base()
	base.UpdateTime = f.now().UTC()

	if p, ok := domain.PrincipalFromContext(ctx); ok {
		base.Updater = int64Ptr(p.ID)
		return
	}
	base.Updater = nil
	f.logger.Debug("update without principal", "table", e.TableName())
}

func int64Ptr(v int64) *int64 { return &v }
