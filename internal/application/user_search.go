package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// SearchUsers runs a full-text query against the search index.
// Without an index it returns an empty result.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]*entity.User, error) {
	opCounters.Add("search", 1)
	q = strings.TrimSpace(q)
	if s.Index == nil || q == "" {
		return []*entity.User{}, nil
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	users, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// Reindex pushes every stored user into the search index, a page at a time.
func (s *Service) Reindex(ctx context.Context, batch int) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	if batch <= 0 {
		batch = 100
	}
	n := 0
	for page := 1; ; page++ {
		res, err := s.ListUsers(ctx, ListQuery{Page: page, PageSize: batch, SortBy: "created_at"})
		if err != nil {
			return n, err
		}
		for _, u := range res.Items {
			if err := s.Index.Index(ctx, u); err != nil {
				return n, fmt.Errorf("index user %s: %w", u.ID, err)
			}
			n++
		}
		if !res.Meta.HasNext {
			return n, nil
		}
	}
}
