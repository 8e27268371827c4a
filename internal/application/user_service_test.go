package application

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-management-api/internal/domain/apperror"
	"github.com/oksasatya/user-management-api/internal/domain/entity"
	repo "github.com/oksasatya/user-management-api/internal/domain/repository"
	"github.com/oksasatya/user-management-api/internal/domain/rules"
	"github.com/oksasatya/user-management-api/internal/infrastructure/memory"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newMemoryService() *Service {
	return NewService(memory.NewUserRepository(), memory.NewTransactor(), quietLogger(), nil)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func createInput(username, email string) rules.CreateInput {
	return rules.CreateInput{Username: username, Email: email, FirstName: "john", LastName: "doe"}
}

func mustCreate(t *testing.T, s *Service, in rules.CreateInput) *entity.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), in)
	require.NoError(t, err)
	return u
}

func TestCreateUser_RoundTrip(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()

	created := mustCreate(t, s, rules.CreateInput{
		Username:  "  JohnDoe ",
		Email:     "John.Doe@Example.COM",
		FirstName: "mary-jane",
		LastName:  "o'neil",
	})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "johndoe", created.Username)
	assert.Equal(t, "john.doe@example.com", created.Email)
	assert.Equal(t, "Mary-Jane", created.FirstName)
	assert.Equal(t, "O'Neil", created.LastName)
	assert.Equal(t, entity.RoleUser, created.Role)
	assert.True(t, created.Active)

	got, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateUser_ValidationFailsBeforeStorage(t *testing.T) {
	s := newMemoryService()

	_, err := s.CreateUser(context.Background(), rules.CreateInput{Username: "ab", Email: "not-an-email"})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("username"))
	assert.True(t, verr.Has("email"))
	assert.True(t, verr.Has("first_name"))

	n, err := s.Repo.Count(context.Background(), repo.UserFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateUser_ConflictPrecedence(t *testing.T) {
	s := newMemoryService()
	mustCreate(t, s, createInput("johndoe", "john@example.com"))
	mustCreate(t, s, createInput("janedoe", "jane@example.com"))

	// username collides, email is new
	_, err := s.CreateUser(context.Background(), createInput("JOHNDOE", "fresh@example.com"))
	var c *apperror.ConflictError
	require.ErrorAs(t, err, &c)
	assert.Equal(t, "username", c.Field)
	assert.Equal(t, "johndoe", c.Value)

	// both collide with different users: username wins
	_, err = s.CreateUser(context.Background(), createInput("johndoe", "jane@example.com"))
	require.ErrorAs(t, err, &c)
	assert.Equal(t, "username", c.Field)

	_, err = s.CreateUser(context.Background(), createInput("someone", "JANE@example.com"))
	require.ErrorAs(t, err, &c)
	assert.Equal(t, "email", c.Field)
	assert.Equal(t, "jane@example.com", c.Value)
}

func TestUniquenessInvariantHolds(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	inputs := []rules.CreateInput{
		createInput("alpha", "a@example.com"),
		createInput("ALPHA", "b@example.com"),
		createInput("beta", "A@EXAMPLE.COM"),
		createInput("gamma", "g@example.com"),
	}
	for _, in := range inputs {
		_, _ = s.CreateUser(ctx, in)
	}
	gamma, err := s.GetUserByUsername(ctx, "gamma")
	require.NoError(t, err)
	_, _ = s.UpdateUser(ctx, gamma.ID, rules.UpdateInput{Username: strPtr("alpha")})
	_, _ = s.UpdateUser(ctx, gamma.ID, rules.UpdateInput{Email: strPtr("a@example.com")})

	page, err := s.ListUsers(ctx, ListQuery{Page: 1, PageSize: 100})
	require.NoError(t, err)
	usernames := map[string]bool{}
	emails := map[string]bool{}
	for _, u := range page.Items {
		assert.False(t, usernames[u.Username], "duplicate username %s", u.Username)
		assert.False(t, emails[u.Email], "duplicate email %s", u.Email)
		usernames[u.Username] = true
		emails[u.Email] = true
	}
	assert.Len(t, page.Items, 2)
}

func TestGetUserByUsernameAndEmail_NormalizeKey(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	u := mustCreate(t, s, createInput("johndoe", "john@example.com"))

	got, err := s.GetUserByUsername(ctx, " JohnDoe ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.GetUserByEmail(ctx, "JOHN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	var nf *apperror.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "email", nf.Key)
	assert.Equal(t, "User with email 'nobody@example.com' not found", nf.Error())
}

func TestUpdateUser_SelfExemption(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	u := mustCreate(t, s, createInput("johndoe", "john@example.com"))

	got, err := s.UpdateUser(ctx, u.ID, rules.UpdateInput{
		Username:  strPtr("JohnDoe"),
		Email:     strPtr("john@example.com"),
		FirstName: strPtr("jonathan"),
	})
	require.NoError(t, err)
	assert.Equal(t, "johndoe", got.Username)
	assert.Equal(t, "Jonathan", got.FirstName)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)
	assert.Equal(t, u.ID, got.ID)
}

func TestUpdateUser_ConflictWithOtherUser(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	mustCreate(t, s, createInput("johndoe", "john@example.com"))
	jane := mustCreate(t, s, createInput("janedoe", "jane@example.com"))

	_, err := s.UpdateUser(ctx, jane.ID, rules.UpdateInput{Email: strPtr("John@Example.com")})
	var c *apperror.ConflictError
	require.ErrorAs(t, err, &c)
	assert.Equal(t, "email", c.Field)
	assert.Equal(t, "john@example.com", c.Value)
}

func TestUpdateUser_RequiresAField(t *testing.T) {
	s := newMemoryService()
	u := mustCreate(t, s, createInput("johndoe", "john@example.com"))

	_, err := s.UpdateUser(context.Background(), u.ID, rules.UpdateInput{})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "At least one field")
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := newMemoryService()
	_, err := s.UpdateUser(context.Background(), "missing", rules.UpdateInput{FirstName: strPtr("Bob")})
	var nf *apperror.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "User with ID 'missing' not found", nf.Error())
}

func TestActivateDeactivate(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	u := mustCreate(t, s, createInput("johndoe", "john@example.com"))

	got, err := s.DeactivateUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	got, err = s.ActivateUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	_, err = s.ActivateUser(ctx, "missing")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeleteThenGet(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	u := mustCreate(t, s, createInput("johndoe", "john@example.com"))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.GetUser(ctx, u.ID)
	var nf *apperror.NotFoundError
	require.ErrorAs(t, err, &nf)

	err = s.DeleteUser(ctx, u.ID)
	require.ErrorAs(t, err, &nf)
}

func TestListUsers_PaginationArithmetic(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		mustCreate(t, s, createInput(fmt.Sprintf("user%02d", i), fmt.Sprintf("user%02d@example.com", i)))
	}

	first, err := s.ListUsers(ctx, ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 25, first.Meta.Total)
	assert.Equal(t, 3, first.Meta.TotalPages)
	assert.True(t, first.Meta.HasNext)
	assert.False(t, first.Meta.HasPrev)

	last, err := s.ListUsers(ctx, ListQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
	assert.Equal(t, 3, last.Meta.TotalPages)
	assert.False(t, last.Meta.HasNext)
	assert.True(t, last.Meta.HasPrev)
}

func TestListUsers_FilterCountConsistency(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		in := createInput(fmt.Sprintf("admin%d", i), fmt.Sprintf("admin%d@example.com", i))
		in.Role = strPtr("admin")
		mustCreate(t, s, in)
	}
	for i := 0; i < 5; i++ {
		mustCreate(t, s, createInput(fmt.Sprintf("plain%d", i), fmt.Sprintf("plain%d@example.com", i)))
	}

	admin := entity.RoleAdmin
	for _, size := range []int{1, 3, 50} {
		page, err := s.ListUsers(ctx, ListQuery{Page: 1, PageSize: size, Filter: repo.UserFilter{Role: &admin}})
		require.NoError(t, err)
		assert.Equal(t, 7, page.Meta.Total, "page_size=%d", size)
		for _, u := range page.Items {
			assert.Equal(t, entity.RoleAdmin, u.Role)
		}
	}
}

func TestListUsers_Empty(t *testing.T) {
	s := newMemoryService()
	page, err := s.ListUsers(context.Background(), ListQuery{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Meta.TotalPages)
	assert.False(t, page.Meta.HasNext)
}

func TestGetStatistics(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()
	roles := []string{"admin", "user", "user", "guest", "guest", "guest"}
	for i, role := range roles {
		in := createInput(fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i))
		in.Role = strPtr(role)
		in.Active = boolPtr(i%2 == 0)
		mustCreate(t, s, in)
	}

	st, err := s.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, Statistics{
		TotalUsers:    6,
		ActiveUsers:   3,
		InactiveUsers: 3,
		ByRole:        RoleCounts{Admin: 1, User: 2, Guest: 3},
	}, *st)
}

func TestGetStatistics_ConsistentUnderConcurrentWrites(t *testing.T) {
	s := newMemoryService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				in := createInput(fmt.Sprintf("w%du%d", w, i), fmt.Sprintf("w%du%d@example.com", w, i))
				in.Active = boolPtr(i%3 != 0)
				u, err := s.CreateUser(ctx, in)
				if err != nil {
					t.Error(err)
					return
				}
				if i%2 == 0 {
					if _, err := s.DeactivateUser(ctx, u.ID); err != nil {
						t.Error(err)
						return
					}
				}
			}
		}(w)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	for {
		st, err := s.GetStatistics(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, st.InactiveUsers, 0)
		assert.Equal(t, st.TotalUsers, st.ActiveUsers+st.InactiveUsers)
		assert.Equal(t, st.TotalUsers, st.ByRole.Admin+st.ByRole.User+st.ByRole.Guest)
		select {
		case <-done:
			return
		default:
		}
	}
}
