package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtm-tools/mtm-server/internal/errx"
)

func uniqueViolation(detail string) error {
	return &pgconn.PgError{
		Code:   "23505",
		Detail: detail,
	}
}

func TestMapError(t *testing.T) {
	t.Run("no rows maps to NotFound", func(t *testing.T) {
		err := MapError("repository.users.FindByID", pgx.ErrNoRows)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("unique violation maps to Conflict and keeps the pg error", func(t *testing.T) {
		err := MapError("repository.links.Create", uniqueViolation("Key (link)=(https://x.io) already exists."))
		assert.Equal(t, errx.Conflict, errx.KindOf(err))

		var pgErr *pgconn.PgError
		require.True(t, errors.As(err, &pgErr), "pg error must stay reachable for detail inspection")
		assert.Contains(t, pgErr.Detail, "(link)")
	})

	t.Run("anything else maps to Unavailable", func(t *testing.T) {
		err := MapError("repository.mails.List", errors.New("connection refused"))
		assert.Equal(t, errx.Unavailable, errx.KindOf(err))
	})
}

func TestConflictField(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		fields    []string
		wantField string
		wantOK    bool
	}{
		{
			name:      "single field match",
			err:       uniqueViolation("Key (login)=(alice) already exists."),
			fields:    []string{"login"},
			wantField: "login",
			wantOK:    true,
		},
		{
			name:      "second configured field matches",
			err:       uniqueViolation("Key (code)=(abcdef) already exists."),
			fields:    []string{"mail", "code"},
			wantField: "code",
			wantOK:    true,
		},
		{
			name:   "violation on an unconfigured column falls through",
			err:    uniqueViolation("Key (uri)=(abc) already exists."),
			fields: []string{"mail", "code"},
			wantOK: false,
		},
		{
			name:   "non-unique violation is not matched",
			err:    &pgconn.PgError{Code: "23503", Detail: "Key (user_id)=(9) is not present"},
			fields: []string{"login"},
			wantOK: false,
		},
		{
			name:   "plain error is not matched",
			err:    errors.New("boom"),
			fields: []string{"login"},
			wantOK: false,
		},
		{
			name:      "wrapped violation is still matched",
			err:       fmt.Errorf("create: %w", MapError("op", uniqueViolation("Key (mail)=(a@b.c) already exists."))),
			fields:    []string{"mail", "code"},
			wantField: "mail",
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, ok := ConflictField(tt.err, tt.fields)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestBuildUpdate(t *testing.T) {
	t.Run("empty patch returns ok=false", func(t *testing.T) {
		_, _, ok := BuildUpdate("links", nil, 1, true)
		assert.False(t, ok)
	})

	t.Run("columns are ordered and touch appends updated_at", func(t *testing.T) {
		sql, args, ok := BuildUpdate("links", map[string]any{
			"link":        "https://x.io",
			"description": "promo",
		}, 7, true)

		require.True(t, ok)
		assert.Equal(t, "UPDATE links SET description = $1, link = $2, updated_at = now() WHERE id = $3", sql)
		assert.Equal(t, []any{"promo", "https://x.io", int64(7)}, args)
	})

	t.Run("without touch", func(t *testing.T) {
		sql, args, ok := BuildUpdate("mails", map[string]any{"geo": "ru"}, 3, false)

		require.True(t, ok)
		assert.Equal(t, "UPDATE mails SET geo = $1 WHERE id = $2", sql)
		assert.Equal(t, []any{"ru", int64(3)}, args)
	})
}

func TestBuildListFilter(t *testing.T) {
	t.Run("no filters gives bare pagination", func(t *testing.T) {
		sql, args := BuildListFilter(ListQuery{Take: 10, Skip: 0}, []string{"link", "description"})

		assert.Equal(t, " ORDER BY id LIMIT $1 OFFSET $2", sql)
		assert.Equal(t, []any{10, 0}, args)
	})

	t.Run("filters are ANDed in allowed order", func(t *testing.T) {
		sql, args := BuildListFilter(ListQuery{
			Contains: map[string]string{"description": "promo", "link": "x.io"},
			Take:     5,
			Skip:     10,
		}, []string{"link", "description"})

		assert.Equal(t, " WHERE link LIKE $1 AND description LIKE $2 ORDER BY id LIMIT $3 OFFSET $4", sql)
		assert.Equal(t, []any{"%x.io%", "%promo%", 5, 10}, args)
	})

	t.Run("unknown filter columns are ignored", func(t *testing.T) {
		sql, args := BuildListFilter(ListQuery{
			Contains: map[string]string{"evil": "x"},
			Take:     10,
		}, []string{"link"})

		assert.Equal(t, " ORDER BY id LIMIT $1 OFFSET $2", sql)
		assert.Equal(t, []any{10, 0}, args)
	})

	t.Run("empty substring matches everything", func(t *testing.T) {
		sql, _ := BuildListFilter(ListQuery{
			Contains: map[string]string{"link": ""},
			Take:     10,
		}, []string{"link"})

		assert.NotContains(t, sql, "WHERE")
	})
}
