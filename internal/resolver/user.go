package resolver

import (
	"context"
	"log/slog"

	"github.com/mtm-tools/mtm-server/internal/auth"
	"github.com/mtm-tools/mtm-server/internal/errx"
	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/repository/users"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// CredentialsInput carries the register/login arguments.
type CredentialsInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// UserInput carries the optional user fields used as an update patch or as
// list filters.
type UserInput struct {
	Login *string `json:"login"`
	Name  *string `json:"name"`
	Role  *string `json:"role"`
}

// UserResult is the single-user operation response.
type UserResult struct {
	User   *model.User  `json:"user,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// UsersResult is the paginated list response.
type UsersResult struct {
	Users   []model.User `json:"users"`
	HasMore bool         `json:"hasMore"`
}

type userAdapter struct {
	repo users.Repository
}

func (a userAdapter) Label() string          { return "user" }
func (a userAdapter) UniqueFields() []string { return []string{"login"} }

func (a userAdapter) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return a.repo.FindByID(ctx, id)
}

func (a userAdapter) List(ctx context.Context, q storage.ListQuery) ([]model.User, error) {
	return a.repo.List(ctx, q)
}

func (a userAdapter) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	return a.repo.Update(ctx, id, patch)
}

func (a userAdapter) Delete(ctx context.Context, id int64) (int64, error) {
	return a.repo.Delete(ctx, id)
}

// UserResolver implements the user operations. Register and Login validate
// credentials only; the transport layer owns cookie issuance.
type UserResolver struct {
	gate    *Sessions
	repo    users.Repository
	adapter userAdapter
	log     *slog.Logger
}

func NewUserResolver(gate *Sessions, repo users.Repository, log *slog.Logger) *UserResolver {
	return &UserResolver{
		gate:    gate,
		repo:    repo,
		adapter: userAdapter{repo: repo},
		log:     log,
	}
}

const minCredentialLength = 3

// Register validates the credentials, hashes the password and inserts the
// user. Registration requires no session.
func (r *UserResolver) Register(ctx context.Context, in CredentialsInput) UserResult {
	if len(in.Login) < minCredentialLength {
		return UserResult{Errors: []FieldError{{
			Field:   "login",
			Message: "Длинна логина не может быть меньше трех символов",
		}}}
	}
	if len(in.Password) < minCredentialLength {
		return UserResult{Errors: []FieldError{{
			Field:   "password",
			Message: "Длинна пароля не может быть меньше трех символов",
		}}}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		r.log.Error("hash password", "error", err)
		return UserResult{Errors: unknownErrors("Неизвестная  ошибка")}
	}

	user, err := r.repo.Create(ctx, in.Login, hash)
	if err != nil {
		if errx.KindOf(err) == errx.Conflict {
			return UserResult{Errors: []FieldError{{
				Field:   "username",
				Message: "Пользователь с таким логином уже существует",
			}}}
		}
		r.log.Error("register user", "login", in.Login, "error", err)
		return UserResult{Errors: unknownErrors("Неизвестная  ошибка")}
	}
	return UserResult{User: user}
}

// Login checks the credentials and returns the user on success. The caller
// establishes the session for the returned user.
func (r *UserResolver) Login(ctx context.Context, in CredentialsInput) UserResult {
	user, err := r.repo.FindByLogin(ctx, in.Login)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			return UserResult{Errors: []FieldError{{
				Field:   "login",
				Message: "Пользователя с таким логином не существует",
			}}}
		}
		r.log.Error("login lookup", "login", in.Login, "error", err)
		return UserResult{Errors: unknownErrors("Неизвестная  ошибка")}
	}

	ok, err := auth.VerifyPassword(user.Password, in.Password)
	if err != nil || !ok {
		return UserResult{Errors: []FieldError{{
			Field:   "password",
			Message: "Пароль не верный",
		}}}
	}
	return UserResult{User: user}
}

func (r *UserResolver) Fetch(ctx context.Context, id int64) (UserResult, error) {
	user, errs, err := fetchByID(ctx, r.gate, r.adapter, id)
	if err != nil {
		return UserResult{}, err
	}
	return UserResult{User: user, Errors: errs}, nil
}

func (r *UserResolver) List(ctx context.Context, in UserInput, p *Paginator) (UsersResult, error) {
	contains := map[string]string{}
	if in.Login != nil {
		contains["login"] = *in.Login
	}
	if in.Name != nil {
		contains["name"] = *in.Name
	}
	if in.Role != nil {
		contains["role"] = *in.Role
	}

	items, hasMore, err := listPaged(ctx, r.gate, r.adapter, contains, p)
	if err != nil {
		return UsersResult{}, err
	}
	return UsersResult{Users: items, HasMore: hasMore}, nil
}

func (r *UserResolver) Update(ctx context.Context, id int64, in UserInput) UserResult {
	patch := map[string]any{}
	if in.Login != nil {
		patch["login"] = *in.Login
	}
	if in.Name != nil {
		patch["name"] = *in.Name
	}
	if in.Role != nil {
		patch["role"] = *in.Role
	}

	user, errs := update(ctx, r.gate, r.adapter, id, patch)
	return UserResult{User: user, Errors: errs}
}

func (r *UserResolver) Remove(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, r.gate, r.adapter, id)
}
