package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-api/internal/domain/apperror"
	"github.com/oksasatya/user-management-api/internal/domain/entity"
	repo "github.com/oksasatya/user-management-api/internal/domain/repository"
	"github.com/oksasatya/user-management-api/internal/domain/rules"
	"github.com/oksasatya/user-management-api/pkg/helpers"
	"github.com/oksasatya/user-management-api/pkg/pagination"
)

// opCounters is published on /debug/vars.
var opCounters = expvar.NewMap("user_service_ops")

// SearchIndex mirrors users into a full-text index. Writes are best-effort.
type SearchIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]*entity.User, error)
}

type Service struct {
	Repo   repo.UserRepository
	Tx     repo.Transactor
	Logger *logrus.Logger
	Index  SearchIndex
}

// NewService wires the user use-cases. tx and index may be nil.
func NewService(r repo.UserRepository, tx repo.Transactor, logger *logrus.Logger, index SearchIndex) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{Repo: r, Tx: tx, Logger: logger, Index: index}
}

// ListQuery selects one page of users. Page and PageSize are trusted to be positive.
type ListQuery struct {
	Page     int
	PageSize int
	Filter   repo.UserFilter
	SortBy   string
	SortDesc bool
}

type UserPage struct {
	Items []*entity.User
	Meta  pagination.Meta
}

func (s *Service) log(ctx context.Context) *logrus.Entry {
	return helpers.Entry(ctx, s.Logger)
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Tx == nil {
		return fn(ctx)
	}
	return s.Tx.WithinTransaction(ctx, fn)
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		s.log(ctx).WithError(err).WithField("user_id", u.ID).Warn("search index update failed")
	}
}

func (s *Service) unindex(ctx context.Context, id string) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Delete(ctx, id); err != nil {
		s.log(ctx).WithError(err).WithField("user_id", id).Warn("search index delete failed")
	}
}

// conflictFrom turns a storage uniqueness violation into a domain conflict.
// It reports ok=false for any other error.
func conflictFrom(err error, username, email string) (*apperror.ConflictError, bool) {
	var dup *repo.DuplicateKeyError
	if !errors.As(err, &dup) {
		return nil, false
	}
	value := ""
	switch dup.Field {
	case "username":
		value = username
	case "email":
		value = email
	}
	return &apperror.ConflictError{Field: dup.Field, Value: value}, true
}

func (s *Service) checkUnique(ctx context.Context, username, email, excludeID string) error {
	if username != "" {
		taken, err := s.Repo.ExistsByUsername(ctx, username, excludeID)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return &apperror.ConflictError{Field: "username", Value: username}
		}
	}
	if email != "" {
		taken, err := s.Repo.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return &apperror.ConflictError{Field: "email", Value: email}
		}
	}
	return nil
}

// CreateUser validates in, enforces uniqueness (username before email) and stores the user.
func (s *Service) CreateUser(ctx context.Context, in rules.CreateInput) (*entity.User, error) {
	opCounters.Add("create", 1)
	u, err := rules.ValidateCreate(in)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.checkUnique(ctx, u.Username, u.Email, ""); err != nil {
			return err
		}
		if err := s.Repo.Create(ctx, &u); err != nil {
			if c, ok := conflictFrom(err, u.Username, u.Email); ok {
				return c
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		var c *apperror.ConflictError
		if errors.As(err, &c) {
			s.log(ctx).WithFields(logrus.Fields{"field": c.Field, "value": c.Value}).Warn("user create conflict")
		}
		return nil, err
	}

	s.log(ctx).WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user created")
	s.index(ctx, &u)
	return &u, nil
}

func (s *Service) lookup(ctx context.Context, key, value string, get func(context.Context, string) (*entity.User, error)) (*entity.User, error) {
	u, err := get(ctx, value)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.log(ctx).WithFields(logrus.Fields{"key": key, "value": value}).Debug("user not found")
			return nil, apperror.UserNotFound(key, value)
		}
		return nil, fmt.Errorf("get user by %s: %w", key, err)
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*entity.User, error) {
	opCounters.Add("get", 1)
	return s.lookup(ctx, "id", id, s.Repo.GetByID)
}

// GetUserByUsername matches the trimmed, lowercased username exactly.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	opCounters.Add("get", 1)
	return s.lookup(ctx, "username", strings.ToLower(strings.TrimSpace(username)), s.Repo.GetByUsername)
}

// GetUserByEmail matches the trimmed, lowercased email exactly.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	opCounters.Add("get", 1)
	return s.lookup(ctx, "email", strings.ToLower(strings.TrimSpace(email)), s.Repo.GetByEmail)
}

// ListUsers returns one page and its pagination metadata.
func (s *Service) ListUsers(ctx context.Context, q ListQuery) (*UserPage, error) {
	opCounters.Add("list", 1)
	users, total, err := s.Repo.List(ctx, repo.ListOptions{
		Skip:     pagination.Offset(q.Page, q.PageSize),
		Limit:    q.PageSize,
		Filter:   q.Filter,
		SortBy:   q.SortBy,
		SortDesc: q.SortDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	s.log(ctx).WithFields(logrus.Fields{"page": q.Page, "page_size": q.PageSize, "total": total}).Debug("users listed")
	return &UserPage{Items: users, Meta: pagination.New(total, q.Page, q.PageSize)}, nil
}

// UpdateUser applies a partial update. Resubmitting the user's own username
// or email is not a conflict.
func (s *Service) UpdateUser(ctx context.Context, id string, in rules.UpdateInput) (*entity.User, error) {
	opCounters.Add("update", 1)
	p, err := rules.ValidateUpdate(in)
	if err != nil {
		return nil, err
	}

	var updated *entity.User
	err = s.inTx(ctx, func(ctx context.Context) error {
		existing, err := s.lookup(ctx, "id", id, s.Repo.GetByID)
		if err != nil {
			return err
		}

		var username, email string
		if p.Username != nil && *p.Username != existing.Username {
			username = *p.Username
		}
		if p.Email != nil && *p.Email != existing.Email {
			email = *p.Email
		}
		if err := s.checkUnique(ctx, username, email, id); err != nil {
			return err
		}

		updated, err = s.Repo.Update(ctx, id, p)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperror.UserNotFound("id", id)
			}
			if c, ok := conflictFrom(err, deref(p.Username), deref(p.Email)); ok {
				return c
			}
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		var c *apperror.ConflictError
		if errors.As(err, &c) {
			s.log(ctx).WithFields(logrus.Fields{"user_id": id, "field": c.Field}).Warn("user update conflict")
		}
		return nil, err
	}

	s.log(ctx).WithFields(logrus.Fields{"user_id": id, "fields": p.Fields()}).Info("user updated")
	s.index(ctx, updated)
	return updated, nil
}

func (s *Service) setActive(ctx context.Context, id string, active bool) (*entity.User, error) {
	u, err := s.UpdateUser(ctx, id, rules.UpdateInput{Active: &active})
	if err != nil {
		return nil, err
	}
	s.log(ctx).WithFields(logrus.Fields{"user_id": id, "active": active}).Info("user activation changed")
	return u, nil
}

func (s *Service) ActivateUser(ctx context.Context, id string) (*entity.User, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) DeactivateUser(ctx context.Context, id string) (*entity.User, error) {
	return s.setActive(ctx, id, false)
}

// DeleteUser hard-deletes the user. Unknown ids yield a NotFoundError.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	opCounters.Add("delete", 1)
	var removed *entity.User
	err := s.inTx(ctx, func(ctx context.Context) error {
		u, err := s.lookup(ctx, "id", id, s.Repo.GetByID)
		if err != nil {
			return err
		}
		ok, err := s.Repo.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if !ok {
			return apperror.UserNotFound("id", id)
		}
		removed = u
		return nil
	})
	if err != nil {
		return err
	}

	s.log(ctx).WithFields(logrus.Fields{"user_id": id, "username": removed.Username}).Info("user deleted")
	s.unindex(ctx, id)
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
