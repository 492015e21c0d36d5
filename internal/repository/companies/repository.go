package companies

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// CreateParams carries the fields required to register a company.
type CreateParams struct {
	UserID      int64
	Name        string
	URI         string
	Description string
}

// Repository provides access to stored companies.
type Repository interface {
	// Create inserts a company owned by the given user.
	Create(ctx context.Context, p CreateParams) (*model.Company, error)

	// FindByID returns a company with its owner and attached links loaded.
	FindByID(ctx context.Context, id int64) (*model.Company, error)

	// List returns companies matching the query with owners and attached
	// links loaded.
	List(ctx context.Context, q storage.ListQuery) ([]model.Company, error)

	// Update applies a column patch and reports affected rows.
	Update(ctx context.Context, id int64, patch map[string]any) (int64, error)

	// Delete removes a company and reports affected rows.
	Delete(ctx context.Context, id int64) (int64, error)

	// Exists reports whether a company with the given id is stored.
	Exists(ctx context.Context, id int64) (bool, error)

	// ReplaceLinks resets the set of links attached to a company.
	// Ids that do not match a stored link are skipped.
	ReplaceLinks(ctx context.Context, companyID int64, linkIDs []int64) error
}
