package domain

import "time"

// Audit column names shared by every managed table.
const (
	ColumnID         = "id"
	ColumnCreator    = "creator"
	ColumnCreateTime = "create_time"
	ColumnUpdater    = "updater"
	ColumnUpdateTime = "update_time"
	ColumnVersion    = "version"
	ColumnDeleted    = "deleted"
	ColumnOrgID      = "org_id"
)

// BaseEntity carries the audit fields of a managed row.
//
// Creator and CreateTime are written once on insert. Updater and UpdateTime
// are refreshed on every update. Version is only ever advanced by the
// optimistic-lock rewrite, never by application code.
type BaseEntity struct {
	ID         int64
	Creator    *int64
	CreateTime time.Time
	Updater    *int64
	UpdateTime time.Time
	Version    int64
	Deleted    int
}

// Field is one application-owned column value of an entity.
type Field struct {
	Column string
	Value  any
}

// Entity is a row written through the guarded Insert, Update, and SoftDelete
// entry points.
type Entity interface {
	TableName() string
	Base() *BaseEntity
	// Fields returns the entity's own columns, excluding the audit fields,
	// in a stable order.
	Fields() []Field
}

// OrgScoped is implemented by entities that record the owning organization.
// The organization is stamped from the acting principal on insert.
type OrgScoped interface {
	SetOrgID(orgID int64)
}
