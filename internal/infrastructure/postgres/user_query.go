package postgres

import (
	"fmt"
	"strings"

	"github.com/oksasatya/user-management-api/internal/domain/repository"
)

const userColumns = `id, username, email, first_name, last_name, role, active, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// whereClause renders f as " WHERE ..." (or "") with positional args starting at $1.
// The same clause backs both the count and the page query.
func whereClause(f repository.UserFilter) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	textCols := []struct {
		col string
		val string
	}{
		{"username", f.Username},
		{"email", f.Email},
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
	}
	for _, tc := range textCols {
		if tc.val != "" {
			conds = append(conds, tc.col+" ILIKE "+next(containsPattern(tc.val)))
		}
	}
	if f.Role != nil {
		conds = append(conds, "role = "+next(string(*f.Role)))
	}
	if f.Active != nil {
		conds = append(conds, "active = "+next(*f.Active))
	}
	if f.Search != "" {
		p := next(containsPattern(f.Search))
		conds = append(conds, fmt.Sprintf("(username ILIKE %[1]s OR email ILIKE %[1]s OR first_name ILIKE %[1]s OR last_name ILIKE %[1]s)", p))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause sorts by the resolved column, then id for a stable order.
func orderClause(sortBy string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", repository.ResolveSortField(sortBy), dir)
}

// listQueries returns the count and page statements for opts.
func listQueries(opts repository.ListOptions) (countSQL string, countArgs []any, pageSQL string, pageArgs []any) {
	where, args := whereClause(opts.Filter)
	countSQL = "SELECT COUNT(*) FROM users" + where
	countArgs = args

	pageArgs = append(append([]any{}, args...), opts.Limit, opts.Skip)
	pageSQL = "SELECT " + userColumns + " FROM users" + where +
		orderClause(opts.SortBy, opts.SortDesc) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	return countSQL, countArgs, pageSQL, pageArgs
}
