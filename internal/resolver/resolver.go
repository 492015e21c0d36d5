// Package resolver implements the operation layer: a generic CRUD set
// parameterized over per-entity adapters, the session gate it consults, and
// the entity resolvers wiring validation and code generation to it.
package resolver

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/errx"
	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/repository/users"
	"github.com/mtm-tools/mtm-server/internal/session"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// FieldError is the structured error surfaced to callers: the offending
// field name and a user-facing message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Paginator controls page size and offset for list queries.
type Paginator struct {
	Take int `json:"take"`
	Skip int `json:"skip"`
}

// DefaultTake is the page size used when no paginator is supplied.
const DefaultTake = 10

const (
	fieldSession = "session"
	fieldID      = "id"
	fieldUnknown = "unknown"

	msgNotAuthorized = "Вы не авторизованы"
)

func sessionErrors() []FieldError {
	return []FieldError{{Field: fieldSession, Message: msgNotAuthorized}}
}

func notFoundErrors(label string) []FieldError {
	return []FieldError{{Field: fieldID, Message: "Нет такого(ой) " + label}}
}

func goneErrors(label string) []FieldError {
	return []FieldError{{Field: fieldID, Message: "Такого(ой) " + label + " не существует"}}
}

func conflictErrors(field string) []FieldError {
	return []FieldError{{Field: field, Message: field + " уже существует"}}
}

func unknownErrors(message string) []FieldError {
	return []FieldError{{Field: fieldUnknown, Message: message}}
}

// Adapter is the capability bundle the generic operations need to work on
// one entity type: the four storage operations plus the metadata used for
// error messages and conflict mapping.
type Adapter[T any] interface {
	// Label names the entity in error messages.
	Label() string
	// UniqueFields lists, in match order, the fields whose storage-level
	// uniqueness violations map to field errors.
	UniqueFields() []string

	FindByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, q storage.ListQuery) ([]T, error)
	Update(ctx context.Context, id int64, patch map[string]any) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// Sessions resolves the per-request session token to the authenticated user.
// It is the sole authorization gate for every operation below.
type Sessions struct {
	store session.Store
	users users.Repository
}

// NewSessions creates the session gate over a token store and the user
// repository.
func NewSessions(store session.Store, usersRepo users.Repository) *Sessions {
	return &Sessions{store: store, users: usersRepo}
}

// User returns the authenticated user for the request context. A missing
// cookie, an unknown or expired token, or a user row that no longer exists
// all yield (nil, nil); only infrastructure failures return an error.
func (s *Sessions) User(ctx context.Context) (*model.User, error) {
	token := session.TokenFromContext(ctx)
	if token == "" {
		return nil, nil
	}

	userID, ok, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// fetchByID returns the entity with its default relations loaded. An absent
// session or a missing id produce field errors; only infrastructure
// failures return an error, which the transport converts to a generic
// failure response.
func fetchByID[T any](ctx context.Context, gate *Sessions, a Adapter[T], id int64) (*T, []FieldError, error) {
	user, err := gate.User(ctx)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, sessionErrors(), nil
	}

	item, err := a.FindByID(ctx, id)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			return nil, notFoundErrors(a.Label()), nil
		}
		return nil, nil, err
	}
	return item, nil, nil
}

// listPaged returns one page of entities plus the hasMore signal. An absent
// session yields a silent empty page, not an error. hasMore is true iff the
// page came back full, which over-reports exactly at page boundaries; that
// approximation is part of the contract.
func listPaged[T any](ctx context.Context, gate *Sessions, a Adapter[T], contains map[string]string, p *Paginator) ([]T, bool, error) {
	user, err := gate.User(ctx)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return []T{}, false, nil
	}

	take, skip := DefaultTake, 0
	if p != nil {
		take, skip = p.Take, p.Skip
	}
	if take <= 0 {
		return []T{}, false, nil
	}
	if skip < 0 {
		skip = 0
	}

	items, err := a.List(ctx, storage.ListQuery{Contains: contains, Take: take, Skip: skip})
	if err != nil {
		return nil, false, err
	}
	return items, len(items) == take, nil
}

// update applies the patch as a partial overwrite, then re-fetches the row
// with its relations. Every failure becomes a field error: unique-constraint
// violations map to the first matching configured field, a row gone between
// update and re-fetch maps to an id error, everything else carries the raw
// storage message under "unknown".
func update[T any](ctx context.Context, gate *Sessions, a Adapter[T], id int64, patch map[string]any) (*T, []FieldError) {
	user, err := gate.User(ctx)
	if err != nil {
		return nil, unknownErrors(err.Error())
	}
	if user == nil {
		return nil, sessionErrors()
	}

	if _, err := a.Update(ctx, id, patch); err != nil {
		if field, ok := storage.ConflictField(err, a.UniqueFields()); ok {
			return nil, conflictErrors(field)
		}
		return nil, unknownErrors(err.Error())
	}

	item, err := a.FindByID(ctx, id)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			return nil, goneErrors(a.Label())
		}
		return nil, unknownErrors(err.Error())
	}
	return item, nil
}

// remove deletes by id and reports whether a row was actually removed.
// Missing ids and absent sessions are both false, never errors.
func remove[T any](ctx context.Context, gate *Sessions, a Adapter[T], id int64) (bool, error) {
	user, err := gate.User(ctx)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	affected, err := a.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
