package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/user-management-api/internal/domain/entity"
	"github.com/oksasatya/user-management-api/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// db returns the transaction carried by ctx, or the pool.
func (r *UserRepository) db(ctx context.Context) querier {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return r.pool
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

// translateWriteErr maps unique violations onto DuplicateKeyError by constraint name.
func translateWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return &repository.DuplicateKeyError{Field: "username"}
		case strings.Contains(pgErr.ConstraintName, "email"):
			return &repository.DuplicateKeyError{Field: "email"}
		}
		return &repository.DuplicateKeyError{Field: pgErr.ConstraintName}
	}
	return err
}

// dbNow is the current time at TIMESTAMPTZ precision, so values returned from
// a write compare equal to what a later read scans back.
func dbNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Create assigns id and timestamps and inserts u.
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := dbNow()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO users (id, username, email, first_name, last_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Username, u.Email, u.FirstName, u.LastName, string(u.Role), u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if tErr := translateWriteErr(err); tErr != err {
			return tErr
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	row := r.db(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user by %s: %w", column, err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) existsBy(ctx context.Context, column, value, excludeID string) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM users WHERE ` + column + ` = $1`
	args := []any{value}
	if excludeID != "" {
		q += ` AND id <> $2`
		args = append(args, excludeID)
	}
	q += `)`
	var exists bool
	if err := r.db(ctx).QueryRow(ctx, q, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s exists: %w", column, err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	return r.existsBy(ctx, "username", username, excludeID)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.existsBy(ctx, "email", email, excludeID)
}

// List returns one page plus the size of the whole filtered set.
func (r *UserRepository) List(ctx context.Context, opts repository.ListOptions) ([]*entity.User, int, error) {
	countSQL, countArgs, pageSQL, pageArgs := listQueries(opts)

	var total int
	if err := r.db(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	if total == 0 || opts.Skip >= total {
		return []*entity.User{}, total, nil
	}

	rows, err := r.db(ctx).Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0, opts.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) Count(ctx context.Context, f repository.UserFilter) (int, error) {
	where, args := whereClause(f)
	var n int
	if err := r.db(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// updateStatement renders the UPDATE for the fields set in p; updated_at is always refreshed.
func updateStatement(id string, p entity.UserPatch, now time.Time) (string, []any) {
	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Username != nil {
		set("username", *p.Username)
	}
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.FirstName != nil {
		set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		set("last_name", *p.LastName)
	}
	if p.Role != nil {
		set("role", string(*p.Role))
	}
	if p.Active != nil {
		set("active", *p.Active)
	}
	set("updated_at", now)
	args = append(args, id)
	q := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), userColumns)
	return q, args
}

func (r *UserRepository) Update(ctx context.Context, id string, p entity.UserPatch) (*entity.User, error) {
	q, args := updateStatement(id, p, dbNow())
	u, err := scanUser(r.db(ctx).QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if tErr := translateWriteErr(err); tErr != err {
			return nil, tErr
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role entity.Role) (int, error) {
	return r.Count(ctx, repository.UserFilter{Role: &role})
}

func (r *UserRepository) CountActive(ctx context.Context) (int, error) {
	active := true
	return r.Count(ctx, repository.UserFilter{Active: &active})
}

// Totals computes every figure in one statement, so they all come from the
// same snapshot.
func (r *UserRepository) Totals(ctx context.Context) (repository.UserTotals, error) {
	var total, active, admin, user, guest int
	err := r.db(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE active),
		       COUNT(*) FILTER (WHERE role = 'admin'),
		       COUNT(*) FILTER (WHERE role = 'user'),
		       COUNT(*) FILTER (WHERE role = 'guest')
		FROM users
	`).Scan(&total, &active, &admin, &user, &guest)
	if err != nil {
		return repository.UserTotals{}, fmt.Errorf("user totals: %w", err)
	}
	return repository.UserTotals{
		Total:  total,
		Active: active,
		ByRole: map[entity.Role]int{entity.RoleAdmin: admin, entity.RoleUser: user, entity.RoleGuest: guest},
	}, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ repository.UserRepository = (*UserRepository)(nil)
