package resolver

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/repository/companies"
	"github.com/mtm-tools/mtm-server/internal/repository/links"
	"github.com/mtm-tools/mtm-server/internal/repository/mails"
	"github.com/mtm-tools/mtm-server/internal/repository/users"
	"github.com/mtm-tools/mtm-server/internal/session"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

/***************
 * Mocks
 ***************/

// mockUsers implements users.Repository for testing.
type mockUsers struct {
	createFunc      func(ctx context.Context, login, passwordHash string) (*model.User, error)
	getFunc         func(ctx context.Context, id int64) (*model.User, error)
	findByIDFunc    func(ctx context.Context, id int64) (*model.User, error)
	findByLoginFunc func(ctx context.Context, login string) (*model.User, error)
	listFunc        func(ctx context.Context, q storage.ListQuery) ([]model.User, error)
	updateFunc      func(ctx context.Context, id int64, patch map[string]any) (int64, error)
	deleteFunc      func(ctx context.Context, id int64) (int64, error)
}

func (m *mockUsers) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, login, passwordHash)
	}
	return &model.User{ID: 1, Login: login, Password: passwordHash, Role: "admin"}, nil
}

func (m *mockUsers) Get(ctx context.Context, id int64) (*model.User, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.User{ID: id, Login: "alice", Role: "admin"}, nil
}

func (m *mockUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.User{ID: id, Login: "alice", Role: "admin"}, nil
}

func (m *mockUsers) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	if m.findByLoginFunc != nil {
		return m.findByLoginFunc(ctx, login)
	}
	return nil, notFoundErr("repository.users.FindByLogin")
}

func (m *mockUsers) List(ctx context.Context, q storage.ListQuery) ([]model.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return []model.User{}, nil
}

func (m *mockUsers) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return 1, nil
}

func (m *mockUsers) Delete(ctx context.Context, id int64) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return 1, nil
}

// mockLinks implements links.Repository for testing.
type mockLinks struct {
	createFunc   func(ctx context.Context, p links.CreateParams) (*model.Link, error)
	findByIDFunc func(ctx context.Context, id int64) (*model.Link, error)
	listFunc     func(ctx context.Context, q storage.ListQuery) ([]model.Link, error)
	updateFunc   func(ctx context.Context, id int64, patch map[string]any) (int64, error)
	deleteFunc   func(ctx context.Context, id int64) (int64, error)
}

func (m *mockLinks) Create(ctx context.Context, p links.CreateParams) (*model.Link, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return &model.Link{ID: 1, UserID: p.UserID, Link: p.Link, Description: p.Description}, nil
}

func (m *mockLinks) FindByID(ctx context.Context, id int64) (*model.Link, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, notFoundErr("repository.links.FindByID")
}

func (m *mockLinks) List(ctx context.Context, q storage.ListQuery) ([]model.Link, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return []model.Link{}, nil
}

func (m *mockLinks) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return 1, nil
}

func (m *mockLinks) Delete(ctx context.Context, id int64) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return 1, nil
}

// mockCompanies implements companies.Repository for testing.
type mockCompanies struct {
	createFunc       func(ctx context.Context, p companies.CreateParams) (*model.Company, error)
	findByIDFunc     func(ctx context.Context, id int64) (*model.Company, error)
	listFunc         func(ctx context.Context, q storage.ListQuery) ([]model.Company, error)
	updateFunc       func(ctx context.Context, id int64, patch map[string]any) (int64, error)
	deleteFunc       func(ctx context.Context, id int64) (int64, error)
	existsFunc       func(ctx context.Context, id int64) (bool, error)
	replaceLinksFunc func(ctx context.Context, companyID int64, linkIDs []int64) error
}

func (m *mockCompanies) Create(ctx context.Context, p companies.CreateParams) (*model.Company, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return &model.Company{ID: 1, UserID: p.UserID, Name: p.Name, URI: p.URI, Description: p.Description}, nil
}

func (m *mockCompanies) FindByID(ctx context.Context, id int64) (*model.Company, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, notFoundErr("repository.companies.FindByID")
}

func (m *mockCompanies) List(ctx context.Context, q storage.ListQuery) ([]model.Company, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return []model.Company{}, nil
}

func (m *mockCompanies) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return 1, nil
}

func (m *mockCompanies) Delete(ctx context.Context, id int64) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return 1, nil
}

func (m *mockCompanies) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, id)
	}
	return true, nil
}

func (m *mockCompanies) ReplaceLinks(ctx context.Context, companyID int64, linkIDs []int64) error {
	if m.replaceLinksFunc != nil {
		return m.replaceLinksFunc(ctx, companyID, linkIDs)
	}
	return nil
}

// mockMails implements mails.Repository for testing.
type mockMails struct {
	createFunc   func(ctx context.Context, p mails.CreateParams) (*model.Mail, error)
	findByIDFunc func(ctx context.Context, id int64) (*model.Mail, error)
	listFunc     func(ctx context.Context, q storage.ListQuery) ([]model.Mail, error)
	updateFunc   func(ctx context.Context, id int64, patch map[string]any) (int64, error)
	deleteFunc   func(ctx context.Context, id int64) (int64, error)
}

func (m *mockMails) Create(ctx context.Context, p mails.CreateParams) (*model.Mail, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return &model.Mail{
		ID: 1, UserID: p.UserID, Mail: p.Mail, Code: p.Code,
		Source: p.Source, Geo: p.Geo, Name: p.Name, Sex: p.Sex,
		Age: p.Age, Status: p.Status,
	}, nil
}

func (m *mockMails) FindByID(ctx context.Context, id int64) (*model.Mail, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, notFoundErr("repository.mails.FindByID")
}

func (m *mockMails) List(ctx context.Context, q storage.ListQuery) ([]model.Mail, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return []model.Mail{}, nil
}

func (m *mockMails) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return 1, nil
}

func (m *mockMails) Delete(ctx context.Context, id int64) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return 1, nil
}

/***************
 * Helpers
 ***************/

func notFoundErr(op string) error {
	return storage.MapError(op, pgx.ErrNoRows)
}

func uniqueViolation(op, column string) error {
	return storage.MapError(op, &pgconn.PgError{
		Code:   "23505",
		Detail: "Key (" + column + ")=(x) already exists.",
	})
}

func infraErr(op string) error {
	return storage.MapError(op, errors.New("connection refused"))
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// authedContext returns a context carrying a valid session for user 1 plus
// the gate resolving it, backed by the given users repository.
func authedContext(t *testing.T, repo users.Repository) (context.Context, *Sessions) {
	t.Helper()

	store := session.NewMemoryStore()
	token := "test-token"
	if err := store.Set(context.Background(), token, 1, time.Hour); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	ctx := session.WithToken(context.Background(), token)
	return ctx, NewSessions(store, repo)
}

// anonContext returns a context without a session plus a gate over the given
// users repository.
func anonContext(repo users.Repository) (context.Context, *Sessions) {
	return context.Background(), NewSessions(session.NewMemoryStore(), repo)
}
