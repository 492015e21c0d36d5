package links

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// CreateParams holds the fields for inserting a link. The owning user is
// always the authenticated principal, never caller-supplied.
type CreateParams struct {
	UserID      int64
	Link        string
	Description string
}

// Repository defines the persistence operations for Link entities.
type Repository interface {
	Create(ctx context.Context, p CreateParams) (*model.Link, error)
	// FindByID returns the link with its owner and associated companies loaded.
	FindByID(ctx context.Context, id int64) (*model.Link, error)
	// List returns links with owners loaded, filtered and paginated by q.
	List(ctx context.Context, q storage.ListQuery) ([]model.Link, error)
	Update(ctx context.Context, id int64, patch map[string]any) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}
