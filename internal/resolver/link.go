package resolver

import (
	"context"
	"log/slog"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/repository/links"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// LinkInput carries the optional link fields used for creation, update
// patches and list filters.
type LinkInput struct {
	Link        *string `json:"link"`
	Description *string `json:"description"`
}

// LinkResult is the single-link operation response.
type LinkResult struct {
	Link   *model.Link  `json:"link,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// LinksResult is the paginated list response.
type LinksResult struct {
	Links   []model.Link `json:"links"`
	HasMore bool         `json:"hasMore"`
}

type linkAdapter struct {
	repo links.Repository
}

func (a linkAdapter) Label() string          { return "link" }
func (a linkAdapter) UniqueFields() []string { return []string{"link"} }

func (a linkAdapter) FindByID(ctx context.Context, id int64) (*model.Link, error) {
	return a.repo.FindByID(ctx, id)
}

func (a linkAdapter) List(ctx context.Context, q storage.ListQuery) ([]model.Link, error) {
	return a.repo.List(ctx, q)
}

func (a linkAdapter) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	return a.repo.Update(ctx, id, patch)
}

func (a linkAdapter) Delete(ctx context.Context, id int64) (int64, error) {
	return a.repo.Delete(ctx, id)
}

// LinkResolver implements the link operations. Links store the redirect URI
// exactly as the caller supplied it; there is no generated fallback.
type LinkResolver struct {
	gate    *Sessions
	repo    links.Repository
	adapter linkAdapter
	log     *slog.Logger
}

func NewLinkResolver(gate *Sessions, repo links.Repository, log *slog.Logger) *LinkResolver {
	return &LinkResolver{
		gate:    gate,
		repo:    repo,
		adapter: linkAdapter{repo: repo},
		log:     log,
	}
}

// Create inserts a link owned by the session user.
func (r *LinkResolver) Create(ctx context.Context, in LinkInput) LinkResult {
	user, err := r.gate.User(ctx)
	if err != nil {
		return LinkResult{Errors: unknownErrors(err.Error())}
	}
	if user == nil {
		return LinkResult{Errors: sessionErrors()}
	}

	if in.Link == nil || *in.Link == "" {
		return LinkResult{Errors: []FieldError{{
			Field:   "link",
			Message: "Не указана ссылка",
		}}}
	}

	params := links.CreateParams{UserID: user.ID, Link: *in.Link}
	if in.Description != nil {
		params.Description = *in.Description
	}

	link, err := r.repo.Create(ctx, params)
	if err != nil {
		if field, ok := storage.ConflictField(err, r.adapter.UniqueFields()); ok {
			return LinkResult{Errors: conflictErrors(field)}
		}
		r.log.Error("create link", "link", *in.Link, "error", err)
		return LinkResult{Errors: unknownErrors(err.Error())}
	}
	link.User = user
	return LinkResult{Link: link}
}

func (r *LinkResolver) Fetch(ctx context.Context, id int64) (LinkResult, error) {
	link, errs, err := fetchByID(ctx, r.gate, r.adapter, id)
	if err != nil {
		return LinkResult{}, err
	}
	return LinkResult{Link: link, Errors: errs}, nil
}

func (r *LinkResolver) List(ctx context.Context, in LinkInput, p *Paginator) (LinksResult, error) {
	contains := map[string]string{}
	if in.Link != nil {
		contains["link"] = *in.Link
	}
	if in.Description != nil {
		contains["description"] = *in.Description
	}

	items, hasMore, err := listPaged(ctx, r.gate, r.adapter, contains, p)
	if err != nil {
		return LinksResult{}, err
	}
	return LinksResult{Links: items, HasMore: hasMore}, nil
}

func (r *LinkResolver) Update(ctx context.Context, id int64, in LinkInput) LinkResult {
	patch := map[string]any{}
	if in.Link != nil {
		patch["link"] = *in.Link
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}

	link, errs := update(ctx, r.gate, r.adapter, id, patch)
	return LinkResult{Link: link, Errors: errs}
}

func (r *LinkResolver) Remove(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, r.gate, r.adapter, id)
}
