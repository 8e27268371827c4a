package application

import (
	"context"
	"fmt"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
)

type RoleCounts struct {
	Admin int `json:"admin"`
	User  int `json:"user"`
	Guest int `json:"guest"`
}

type Statistics struct {
	TotalUsers    int        `json:"total_users"`
	ActiveUsers   int        `json:"active_users"`
	InactiveUsers int        `json:"inactive_users"`
	ByRole        RoleCounts `json:"by_role"`
}

// GetStatistics reads every figure from a single store snapshot, so
// inactive_users and by_role always add up to total_users.
func (s *Service) GetStatistics(ctx context.Context) (*Statistics, error) {
	opCounters.Add("statistics", 1)

	t, err := s.Repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("user statistics: %w", err)
	}
	st := &Statistics{
		TotalUsers:    t.Total,
		ActiveUsers:   t.Active,
		InactiveUsers: t.Total - t.Active,
		ByRole: RoleCounts{
			Admin: t.ByRole[entity.RoleAdmin],
			User:  t.ByRole[entity.RoleUser],
			Guest: t.ByRole[entity.RoleGuest],
		},
	}
	s.log(ctx).WithField("total", st.TotalUsers).Debug("statistics computed")
	return st, nil
}
