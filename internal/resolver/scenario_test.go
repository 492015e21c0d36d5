package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/repository/links"
	"github.com/mtm-tools/mtm-server/internal/session"
)

// TestAccountFlow walks the whole account lifecycle against stateful mocks:
// rejected registration, successful registration, duplicate login conflict,
// failed login, and an unauthenticated create that must not touch storage.
func TestAccountFlow(t *testing.T) {
	byLogin := map[string]*model.User{}
	var nextID int64

	usersRepo := &mockUsers{
		createFunc: func(ctx context.Context, login, hash string) (*model.User, error) {
			if _, taken := byLogin[login]; taken {
				return nil, uniqueViolation("repository.users.Create", "login")
			}
			nextID++
			u := &model.User{ID: nextID, Login: login, Password: hash, Role: "admin"}
			byLogin[login] = u
			return u, nil
		},
		findByLoginFunc: func(ctx context.Context, login string) (*model.User, error) {
			u, ok := byLogin[login]
			if !ok {
				return nil, notFoundErr("repository.users.FindByLogin")
			}
			return u, nil
		},
		getFunc: func(ctx context.Context, id int64) (*model.User, error) {
			for _, u := range byLogin {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, notFoundErr("repository.users.Get")
		},
	}

	store := session.NewMemoryStore()
	gate := NewSessions(store, usersRepo)
	userResolver := NewUserResolver(gate, usersRepo, testLogger())

	linkCreates := 0
	linkResolver := NewLinkResolver(gate, &mockLinks{
		createFunc: func(ctx context.Context, p links.CreateParams) (*model.Link, error) {
			linkCreates++
			return &model.Link{ID: 1, UserID: p.UserID, Link: p.Link}, nil
		},
	}, testLogger())

	ctx := context.Background()

	// Too-short login is rejected.
	res := userResolver.Register(ctx, CredentialsInput{Login: "ab", Password: "secret123"})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "login", res.Errors[0].Field)

	// Valid registration succeeds.
	res = userResolver.Register(ctx, CredentialsInput{Login: "alice", Password: "secret123"})
	require.Empty(t, res.Errors)
	assert.Equal(t, "alice", res.User.Login)

	// Registering the same login again conflicts.
	res = userResolver.Register(ctx, CredentialsInput{Login: "alice", Password: "other-secret"})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "username", res.Errors[0].Field)

	// Wrong password fails.
	res = userResolver.Login(ctx, CredentialsInput{Login: "alice", Password: "wrong"})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "password", res.Errors[0].Field)

	// Creating a link without a session is a session error; storage untouched.
	target := "https://x.io"
	linkRes := linkResolver.Create(ctx, LinkInput{Link: &target})
	require.Len(t, linkRes.Errors, 1)
	assert.Equal(t, "session", linkRes.Errors[0].Field)
	assert.Zero(t, linkCreates)

	// A correct login resolves the user; with a session bound to a token the
	// same create goes through.
	res = userResolver.Login(ctx, CredentialsInput{Login: "alice", Password: "secret123"})
	require.Empty(t, res.Errors)
	require.NoError(t, store.Set(ctx, "issued-token", res.User.ID, time.Hour))

	authed := session.WithToken(ctx, "issued-token")
	linkRes = linkResolver.Create(authed, LinkInput{Link: &target})
	require.Empty(t, linkRes.Errors)
	assert.Equal(t, 1, linkCreates)
	assert.Equal(t, res.User.ID, linkRes.Link.UserID)
}
