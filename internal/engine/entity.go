package engine

import (
	"context"
	"fmt"

	"sqlguard/internal/domain"
	"sqlguard/internal/sqlrewrite"
)

// Insert stamps the audit fields of ent and inserts it. An entity without an
// ID gets the one the driver reports, when the driver reports one.
func (e *GuardedEngine) Insert(ctx context.Context, ent domain.Entity) (*Result, error) {
	e.filler.FillInsert(ctx, ent)
	base := ent.Base()

	var (
		columns []string
		args    []any
	)
	if base.ID != 0 {
		columns = append(columns, domain.ColumnID)
		args = append(args, base.ID)
	}
	columns = append(columns,
		domain.ColumnCreator, domain.ColumnCreateTime,
		domain.ColumnUpdater, domain.ColumnUpdateTime,
		e.versionColumn(), domain.ColumnDeleted,
	)
	args = append(args, base.Creator, base.CreateTime, base.Updater, base.UpdateTime, base.Version, base.Deleted)
	columns, args = appendFields(columns, args, ent.Fields())

	st, err := sqlrewrite.BuildInsert(ent.TableName(), columns, e.cfg.ParamStyle)
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	res, err := e.run(ctx, st, args, &options{}, false)
	if err != nil {
		return nil, err
	}
	if base.ID == 0 {
		base.ID = res.LastInsertID
	}
	return res, nil
}

// Update writes the fields of ent by primary key. The update only applies if
// the row still carries ent's version; otherwise it fails with
// *domain.ConflictError. On success ent's version is advanced.
func (e *GuardedEngine) Update(ctx context.Context, ent domain.Entity, opts ...Option) (*Result, error) {
	e.filler.FillUpdate(ctx, ent)
	base := ent.Base()

	columns := []string{domain.ColumnUpdater, domain.ColumnUpdateTime}
	args := []any{base.Updater, base.UpdateTime}
	columns, args = appendFields(columns, args, ent.Fields())
	args = append(args, base.ID)

	st, err := sqlrewrite.BuildUpdateByKey(ent.TableName(), columns, domain.ColumnID, e.cfg.ParamStyle)
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	return e.runVersioned(ctx, st, args, base, opts)
}

// SoftDelete marks ent deleted instead of removing the row. Like Update it
// is version-checked.
func (e *GuardedEngine) SoftDelete(ctx context.Context, ent domain.Entity, opts ...Option) (*Result, error) {
	e.filler.FillUpdate(ctx, ent)
	base := ent.Base()

	st, err := sqlrewrite.BuildSoftDelete(ent.TableName(), domain.ColumnDeleted, 1,
		[]string{domain.ColumnUpdater, domain.ColumnUpdateTime}, domain.ColumnID, e.cfg.ParamStyle)
	if err != nil {
		return nil, fmt.Errorf("build soft delete: %w", err)
	}
	res, err := e.runVersioned(ctx, st, []any{base.Updater, base.UpdateTime, base.ID}, base, opts)
	if err != nil {
		return nil, err
	}
	base.Deleted = 1
	return res, nil
}

// runVersioned checks against the entity's version unless the caller passed
// WithExpectedVersion.
func (e *GuardedEngine) runVersioned(ctx context.Context, st *sqlrewrite.Statement, args []any, base *domain.BaseEntity, opts []Option) (*Result, error) {
	o := collectOptions(opts)
	o.page = nil
	if o.expectedVersion == nil {
		v := base.Version
		o.expectedVersion = &v
	}

	res, err := e.run(ctx, st, args, o, false)
	if err != nil {
		return nil, err
	}
	base.Version = *o.expectedVersion + 1
	return res, nil
}

func (e *GuardedEngine) versionColumn() string {
	if c := e.cfg.Interceptors.VersionColumn; c != "" {
		return c
	}
	return domain.ColumnVersion
}

func appendFields(columns []string, args []any, fields []domain.Field) ([]string, []any) {
	for _, f := range fields {
		columns = append(columns, f.Column)
		args = append(args, f.Value)
	}
	return columns, args
}
