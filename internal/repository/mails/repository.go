package mails

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// CreateParams carries the fields captured when an address is collected.
type CreateParams struct {
	UserID int64
	Mail   string
	Code   string
	Source string
	Geo    string
	Name   string
	Sex    string
	Age    int
	Status bool
}

// Repository provides access to collected mail addresses.
type Repository interface {
	// Create inserts a mail record owned by the given user.
	Create(ctx context.Context, p CreateParams) (*model.Mail, error)

	// FindByID returns a mail record with its owner loaded.
	FindByID(ctx context.Context, id int64) (*model.Mail, error)

	// List returns mail records matching the query with owners loaded.
	List(ctx context.Context, q storage.ListQuery) ([]model.Mail, error)

	// Update applies a column patch and reports affected rows.
	Update(ctx context.Context, id int64, patch map[string]any) (int64, error)

	// Delete removes a mail record and reports affected rows.
	Delete(ctx context.Context, id int64) (int64, error)
}
