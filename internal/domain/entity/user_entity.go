package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Username and Email are stored normalized (trimmed, lowercase) so equality
// on them is case-insensitive.
type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserPatch carries the fields of a partial update. Nil means "leave as is".
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Role      *Role
	Active    *bool
}

// IsEmpty reports whether no field is set.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.FirstName == nil &&
		p.LastName == nil && p.Role == nil && p.Active == nil
}

// Fields lists the names of the fields that are set, for logging.
func (p UserPatch) Fields() []string {
	var out []string
	if p.Username != nil {
		out = append(out, "username")
	}
	if p.Email != nil {
		out = append(out, "email")
	}
	if p.FirstName != nil {
		out = append(out, "first_name")
	}
	if p.LastName != nil {
		out = append(out, "last_name")
	}
	if p.Role != nil {
		out = append(out, "role")
	}
	if p.Active != nil {
		out = append(out, "active")
	}
	return out
}

// Apply copies the set fields onto u. Timestamps are the caller's job.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}
