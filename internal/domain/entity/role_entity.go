package entity

// Role represents an authorization role assigned to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// DefaultRole is assigned when a create request leaves role unset.
const DefaultRole = RoleUser

// Roles returns every known role in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleUser, RoleGuest}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
