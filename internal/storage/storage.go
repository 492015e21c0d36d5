// Package storage holds the pieces shared by every entity repository: the
// pgx connection abstraction, list-query shaping, and the mapping from
// driver errors to application error kinds.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mtm-tools/mtm-server/internal/errx"
)

// DBTX abstracts *pgxpool.Pool (or a transaction) for the repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolationCode = "23505"

// ListQuery describes a paginated, filtered list request. Contains maps
// column names to substrings; every entry must match (case-sensitive).
type ListQuery struct {
	Contains map[string]string
	Take     int
	Skip     int
}

// MapError converts pgx/pgconn errors into errx kinds. The original driver
// error stays wrapped so callers can still reach pgconn.PgError details.
func MapError(op string, err error) error {
	var pgErr *pgconn.PgError

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode:
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

// ConflictField matches a unique-constraint violation against an ordered
// field list and returns the first configured field found in the violation
// detail. The boolean is false when err is not a unique violation or none of
// the fields appears in the detail.
func ConflictField(err error, fields []string) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return "", false
	}

	// Postgres reports `Key (column)=(value) already exists.`
	for _, f := range fields {
		if strings.Contains(pgErr.Detail, "("+f+")") {
			return f, true
		}
	}
	return "", false
}

// BuildUpdate renders an UPDATE for the given patch. Patch keys must be
// trusted column names (they come from fixed per-entity field sets, never
// from the caller). Returns ok=false for an empty patch.
func BuildUpdate(table string, patch map[string]any, id int64, touch bool) (string, []any, bool) {
	if len(patch) == 0 {
		return "", nil, false
	}

	// Deterministic column order keeps the statement stable for tests.
	columns := make([]string, 0, len(patch))
	for column := range patch {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var sb strings.Builder
	args := make([]any, 0, len(patch)+1)

	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")
	for i, column := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, patch[column])
		fmt.Fprintf(&sb, "%s = $%d", column, len(args))
	}
	if touch {
		sb.WriteString(", updated_at = now()")
	}
	args = append(args, id)
	fmt.Fprintf(&sb, " WHERE id = $%d", len(args))

	return sb.String(), args, true
}

// BuildListFilter renders the WHERE/LIMIT/OFFSET tail of a list query.
// Filterable columns are fixed per entity; q.Contains keys outside allowed
// are ignored.
func BuildListFilter(q ListQuery, allowed []string) (string, []any) {
	var sb strings.Builder
	var args []any

	for _, column := range allowed {
		substr, ok := q.Contains[column]
		if !ok || substr == "" {
			continue
		}
		if len(args) == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, "%"+substr+"%")
		fmt.Fprintf(&sb, "%s LIKE $%d", column, len(args))
	}

	args = append(args, q.Take)
	fmt.Fprintf(&sb, " ORDER BY id LIMIT $%d", len(args))
	args = append(args, q.Skip)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))

	return sb.String(), args
}
