package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
)

// ErrNotFound is returned by lookups and writes that match no row.
var ErrNotFound = errors.New("not found")

// DuplicateKeyError is returned when a write hits a uniqueness constraint.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return "duplicate key on " + e.Field
}

// Sortable columns. Anything else falls back to SortCreatedAt.
const (
	SortCreatedAt = "created_at"
	SortUpdatedAt = "updated_at"
	SortUsername  = "username"
	SortEmail     = "email"
	SortFirstName = "first_name"
	SortLastName  = "last_name"
	SortRole      = "role"
	SortActive    = "active"
)

var sortable = map[string]struct{}{
	SortCreatedAt: {}, SortUpdatedAt: {}, SortUsername: {}, SortEmail: {},
	SortFirstName: {}, SortLastName: {}, SortRole: {}, SortActive: {},
}

// ResolveSortField maps an arbitrary sort key onto an allowed column.
func ResolveSortField(field string) string {
	if _, ok := sortable[field]; ok {
		return field
	}
	return SortCreatedAt
}

// UserFilter is a conjunction of optional clauses. Text clauses are
// case-insensitive substring matches; Search ORs across the four text columns.
type UserFilter struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      *entity.Role
	Active    *bool
	Search    string
}

// ListOptions describes one page of a filtered, sorted scan.
type ListOptions struct {
	Skip     int
	Limit    int
	Filter   UserFilter
	SortBy   string
	SortDesc bool
}

// UserTotals is one consistent snapshot of the aggregate user counts.
type UserTotals struct {
	Total  int
	Active int
	ByRole map[entity.Role]int
}

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]*entity.User, int, error)
	Count(ctx context.Context, f UserFilter) (int, error)
	Update(ctx context.Context, id string, p entity.UserPatch) (*entity.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountByRole(ctx context.Context, role entity.Role) (int, error)
	CountActive(ctx context.Context) (int, error)
	Totals(ctx context.Context) (UserTotals, error)
	Ping(ctx context.Context) error
}

// Transactor runs fn inside one storage transaction carried by ctx.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
