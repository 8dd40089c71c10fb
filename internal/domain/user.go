package domain

// User is a row of sys_user, the managed table shipped with the fixture
// migrations.
type User struct {
	BaseEntity
	Username string
	RealName string
	Status   int
	OrgID    int64
}

// TableName implements Entity.
func (u *User) TableName() string { return "sys_user" }

// Base implements Entity.
func (u *User) Base() *BaseEntity { return &u.BaseEntity }

// Fields implements Entity.
func (u *User) Fields() []Field {
	return []Field{
		{Column: "username", Value: u.Username},
		{Column: "real_name", Value: u.RealName},
		{Column: "status", Value: u.Status},
		{Column: ColumnOrgID, Value: u.OrgID},
	}
}

// SetOrgID implements OrgScoped.
func (u *User) SetOrgID(orgID int64) { u.OrgID = orgID }
