package users

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// Repository defines the persistence operations for User entities.
type Repository interface {
	// Create inserts a user with a hashed password. Maps duplicate logins
	// to a Conflict error.
	Create(ctx context.Context, login, passwordHash string) (*model.User, error)
	// Get returns the bare user row, no relations. Used by the session gate.
	Get(ctx context.Context, id int64) (*model.User, error)
	// FindByID returns the user with owned links and companies loaded.
	FindByID(ctx context.Context, id int64) (*model.User, error)
	// FindByLogin returns the bare user row including the password hash.
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	List(ctx context.Context, q storage.ListQuery) ([]model.User, error)
	Update(ctx context.Context, id int64, patch map[string]any) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}
