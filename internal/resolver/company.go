package resolver

import (
	"context"
	"log/slog"

	"github.com/mtm-tools/mtm-server/internal/codegen"
	"github.com/mtm-tools/mtm-server/internal/errx"
	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/repository/companies"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// DefaultCompanyName is stored when the caller does not name the company.
const DefaultCompanyName = "новая компания"

// CompanyInput carries the optional company fields used for creation,
// update patches and list filters.
type CompanyInput struct {
	Name        *string `json:"name"`
	URI         *string `json:"uri"`
	Description *string `json:"description"`
}

// CompanyResult is the single-company operation response.
type CompanyResult struct {
	Company *model.Company `json:"company,omitempty"`
	Errors  []FieldError   `json:"errors,omitempty"`
}

// CompaniesResult is the paginated list response.
type CompaniesResult struct {
	Companies []model.Company `json:"companies"`
	HasMore   bool            `json:"hasMore"`
}

type companyAdapter struct {
	repo companies.Repository
}

func (a companyAdapter) Label() string          { return "company" }
func (a companyAdapter) UniqueFields() []string { return []string{"uri"} }

func (a companyAdapter) FindByID(ctx context.Context, id int64) (*model.Company, error) {
	return a.repo.FindByID(ctx, id)
}

func (a companyAdapter) List(ctx context.Context, q storage.ListQuery) ([]model.Company, error) {
	return a.repo.List(ctx, q)
}

func (a companyAdapter) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	return a.repo.Update(ctx, id, patch)
}

func (a companyAdapter) Delete(ctx context.Context, id int64) (int64, error) {
	return a.repo.Delete(ctx, id)
}

// CompanyResolver implements the company operations. A missing uri at
// creation is minted by the code generator; ChangeLinks rewrites the full
// link set of a company for any authenticated user.
type CompanyResolver struct {
	gate    *Sessions
	repo    companies.Repository
	gen     codegen.Generator
	adapter companyAdapter
	log     *slog.Logger
}

func NewCompanyResolver(gate *Sessions, repo companies.Repository, gen codegen.Generator, log *slog.Logger) *CompanyResolver {
	return &CompanyResolver{
		gate:    gate,
		repo:    repo,
		gen:     gen,
		adapter: companyAdapter{repo: repo},
		log:     log,
	}
}

// Create inserts a company owned by the session user, minting a uri when
// none is supplied.
func (r *CompanyResolver) Create(ctx context.Context, in CompanyInput) CompanyResult {
	user, err := r.gate.User(ctx)
	if err != nil {
		return CompanyResult{Errors: unknownErrors(err.Error())}
	}
	if user == nil {
		return CompanyResult{Errors: sessionErrors()}
	}

	params := companies.CreateParams{UserID: user.ID, Name: DefaultCompanyName}
	if in.Name != nil {
		params.Name = *in.Name
	}
	if in.Description != nil {
		params.Description = *in.Description
	}
	if in.URI != nil && *in.URI != "" {
		params.URI = *in.URI
	} else {
		params.URI = r.gen.Generate(0, "")
	}

	company, err := r.repo.Create(ctx, params)
	if err != nil {
		if errx.KindOf(err) == errx.Conflict {
			return CompanyResult{Errors: []FieldError{{
				Field:   "uri",
				Message: "url редиректа занят",
			}}}
		}
		r.log.Error("create company", "uri", params.URI, "error", err)
		return CompanyResult{Errors: unknownErrors("unknown")}
	}
	company.User = user
	return CompanyResult{Company: company}
}

// ChangeLinks replaces the full set of links attached to a company. Any
// authenticated user may rewrite any company's links; there is no ownership
// check. A missing company is false, not an error.
func (r *CompanyResolver) ChangeLinks(ctx context.Context, id int64, linkIDs []int64) (bool, error) {
	user, err := r.gate.User(ctx)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	found, err := r.repo.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if err := r.repo.ReplaceLinks(ctx, id, linkIDs); err != nil {
		return false, err
	}
	return true, nil
}

func (r *CompanyResolver) Fetch(ctx context.Context, id int64) (CompanyResult, error) {
	company, errs, err := fetchByID(ctx, r.gate, r.adapter, id)
	if err != nil {
		return CompanyResult{}, err
	}
	return CompanyResult{Company: company, Errors: errs}, nil
}

func (r *CompanyResolver) List(ctx context.Context, in CompanyInput, p *Paginator) (CompaniesResult, error) {
	contains := map[string]string{}
	if in.Name != nil {
		contains["name"] = *in.Name
	}
	if in.URI != nil {
		contains["uri"] = *in.URI
	}
	if in.Description != nil {
		contains["description"] = *in.Description
	}

	items, hasMore, err := listPaged(ctx, r.gate, r.adapter, contains, p)
	if err != nil {
		return CompaniesResult{}, err
	}
	return CompaniesResult{Companies: items, HasMore: hasMore}, nil
}

func (r *CompanyResolver) Update(ctx context.Context, id int64, in CompanyInput) CompanyResult {
	patch := map[string]any{}
	if in.Name != nil {
		patch["name"] = *in.Name
	}
	if in.URI != nil {
		patch["uri"] = *in.URI
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}

	company, errs := update(ctx, r.gate, r.adapter, id, patch)
	return CompanyResult{Company: company, Errors: errs}
}

func (r *CompanyResolver) Remove(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, r.gate, r.adapter, id)
}
