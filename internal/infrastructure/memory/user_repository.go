// Package memory is a process-local UserRepository used when no database is
// configured and by tests. It mirrors the postgres semantics for filtering,
// ordering and uniqueness.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
	"github.com/oksasatya/user-management-api/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User

	// now is swapped in tests that need distinct timestamps.
	now func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]entity.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *UserRepository) taken(field, value, excludeID string) bool {
	for id, u := range r.users {
		if id == excludeID {
			continue
		}
		switch field {
		case "username":
			if u.Username == value {
				return true
			}
		case "email":
			if u.Email == value {
				return true
			}
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken("username", u.Username, "") {
		return &repository.DuplicateKeyError{Field: "username"}
	}
	if r.taken("email", u.Email, "") {
		return &repository.DuplicateKeyError{Field: "email"}
	}
	now := r.now()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) findBy(match func(entity.User) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.findBy(func(u entity.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.findBy(func(u entity.User) bool { return u.Email == email })
}

func (r *UserRepository) ExistsByUsername(_ context.Context, username, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.taken("username", username, excludeID), nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.taken("email", email, excludeID), nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matches(u entity.User, f repository.UserFilter) bool {
	if f.Username != "" && !containsFold(u.Username, f.Username) {
		return false
	}
	if f.Email != "" && !containsFold(u.Email, f.Email) {
		return false
	}
	if f.FirstName != "" && !containsFold(u.FirstName, f.FirstName) {
		return false
	}
	if f.LastName != "" && !containsFold(u.LastName, f.LastName) {
		return false
	}
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.Active != nil && u.Active != *f.Active {
		return false
	}
	if f.Search != "" &&
		!containsFold(u.Username, f.Search) && !containsFold(u.Email, f.Search) &&
		!containsFold(u.FirstName, f.Search) && !containsFold(u.LastName, f.Search) {
		return false
	}
	return true
}

// compare orders a and b on field, returning -1, 0 or 1.
func compare(a, b entity.User, field string) int {
	switch field {
	case repository.SortUsername:
		return strings.Compare(a.Username, b.Username)
	case repository.SortEmail:
		return strings.Compare(a.Email, b.Email)
	case repository.SortFirstName:
		return strings.Compare(a.FirstName, b.FirstName)
	case repository.SortLastName:
		return strings.Compare(a.LastName, b.LastName)
	case repository.SortRole:
		return strings.Compare(string(a.Role), string(b.Role))
	case repository.SortActive:
		switch {
		case a.Active == b.Active:
			return 0
		case !a.Active:
			return -1
		default:
			return 1
		}
	case repository.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *UserRepository) filtered(f repository.UserFilter) []entity.User {
	out := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		if matches(u, f) {
			out = append(out, u)
		}
	}
	return out
}

func (r *UserRepository) List(_ context.Context, opts repository.ListOptions) ([]*entity.User, int, error) {
	r.mu.RLock()
	all := r.filtered(opts.Filter)
	r.mu.RUnlock()

	field := repository.ResolveSortField(opts.SortBy)
	sort.Slice(all, func(i, j int) bool {
		c := compare(all[i], all[j], field)
		if opts.SortDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	page := []*entity.User{}
	if opts.Skip >= total {
		return page, total, nil
	}
	end := total
	if opts.Limit > 0 && opts.Skip+opts.Limit < end {
		end = opts.Skip + opts.Limit
	}
	for i := opts.Skip; i < end; i++ {
		u := all[i]
		page = append(page, &u)
	}
	return page, total, nil
}

func (r *UserRepository) Count(_ context.Context, f repository.UserFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filtered(f)), nil
}

func (r *UserRepository) Update(_ context.Context, id string, p entity.UserPatch) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Username != nil && r.taken("username", *p.Username, id) {
		return nil, &repository.DuplicateKeyError{Field: "username"}
	}
	if p.Email != nil && r.taken("email", *p.Email, id) {
		return nil, &repository.DuplicateKeyError{Field: "email"}
	}
	p.Apply(&u)
	u.UpdatedAt = r.now()
	r.users[id] = u
	return &u, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role entity.Role) (int, error) {
	return r.Count(ctx, repository.UserFilter{Role: &role})
}

func (r *UserRepository) CountActive(ctx context.Context) (int, error) {
	active := true
	return r.Count(ctx, repository.UserFilter{Active: &active})
}

func (r *UserRepository) Totals(context.Context) (repository.UserTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := repository.UserTotals{ByRole: make(map[entity.Role]int, len(entity.Roles()))}
	for _, role := range entity.Roles() {
		t.ByRole[role] = 0
	}
	for _, u := range r.users {
		t.Total++
		if u.Active {
			t.Active++
		}
		t.ByRole[u.Role]++
	}
	return t, nil
}

func (r *UserRepository) Ping(context.Context) error { return nil }

var _ repository.UserRepository = (*UserRepository)(nil)
