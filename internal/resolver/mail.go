package resolver

import (
	"context"
	"log/slog"

	"github.com/mtm-tools/mtm-server/internal/codegen"
	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/repository/mails"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

// MailCodeLength is the generated length of a mail verification code.
const MailCodeLength = 10

// defaultMailField is stored for the optional string attributes the caller
// omits.
const defaultMailField = "unknown"

// MailInput carries the optional mail fields used for creation, update
// patches and list filters.
type MailInput struct {
	Mail   *string `json:"mail"`
	Code   *string `json:"code"`
	Source *string `json:"source"`
	Geo    *string `json:"geo"`
	Name   *string `json:"name"`
	Sex    *string `json:"sex"`
	Age    *int    `json:"age"`
	Status *bool   `json:"status"`
}

// MailResult is the single-mail operation response.
type MailResult struct {
	Mail   *model.Mail  `json:"mail,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// MailsResult is the paginated list response.
type MailsResult struct {
	Mails   []model.Mail `json:"mails"`
	HasMore bool         `json:"hasMore"`
}

type mailAdapter struct {
	repo mails.Repository
}

func (a mailAdapter) Label() string          { return "mail" }
func (a mailAdapter) UniqueFields() []string { return []string{"mail", "code"} }

func (a mailAdapter) FindByID(ctx context.Context, id int64) (*model.Mail, error) {
	return a.repo.FindByID(ctx, id)
}

func (a mailAdapter) List(ctx context.Context, q storage.ListQuery) ([]model.Mail, error) {
	return a.repo.List(ctx, q)
}

func (a mailAdapter) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	return a.repo.Update(ctx, id, patch)
}

func (a mailAdapter) Delete(ctx context.Context, id int64) (int64, error) {
	return a.repo.Delete(ctx, id)
}

// MailResolver implements the mail operations. A missing verification code
// at creation is derived from the mail address itself, so repeated attempts
// with the same address regenerate the same code.
type MailResolver struct {
	gate    *Sessions
	repo    mails.Repository
	gen     codegen.Generator
	adapter mailAdapter
	log     *slog.Logger
}

func NewMailResolver(gate *Sessions, repo mails.Repository, gen codegen.Generator, log *slog.Logger) *MailResolver {
	return &MailResolver{
		gate:    gate,
		repo:    repo,
		gen:     gen,
		adapter: mailAdapter{repo: repo},
		log:     log,
	}
}

// Create inserts a mail record owned by the session user.
func (r *MailResolver) Create(ctx context.Context, in MailInput) MailResult {
	user, err := r.gate.User(ctx)
	if err != nil {
		return MailResult{Errors: unknownErrors(err.Error())}
	}
	if user == nil {
		return MailResult{Errors: sessionErrors()}
	}

	if in.Mail == nil || *in.Mail == "" {
		return MailResult{Errors: []FieldError{{
			Field:   "mail",
			Message: "Не указан адрес почты",
		}}}
	}

	params := mails.CreateParams{
		UserID: user.ID,
		Mail:   *in.Mail,
		Source: defaultMailField,
		Geo:    defaultMailField,
		Name:   defaultMailField,
		Sex:    defaultMailField,
		Status: true,
	}
	if in.Code != nil && *in.Code != "" {
		params.Code = *in.Code
	} else {
		params.Code = r.gen.Generate(MailCodeLength, *in.Mail)
	}
	if in.Source != nil {
		params.Source = *in.Source
	}
	if in.Geo != nil {
		params.Geo = *in.Geo
	}
	if in.Name != nil {
		params.Name = *in.Name
	}
	if in.Sex != nil {
		params.Sex = *in.Sex
	}
	if in.Age != nil {
		params.Age = *in.Age
	}
	if in.Status != nil {
		params.Status = *in.Status
	}

	mail, err := r.repo.Create(ctx, params)
	if err != nil {
		if field, ok := storage.ConflictField(err, r.adapter.UniqueFields()); ok {
			return MailResult{Errors: conflictErrors(field)}
		}
		r.log.Error("create mail", "mail", *in.Mail, "error", err)
		return MailResult{Errors: unknownErrors("unknown")}
	}
	mail.User = user
	return MailResult{Mail: mail}
}

func (r *MailResolver) Fetch(ctx context.Context, id int64) (MailResult, error) {
	mail, errs, err := fetchByID(ctx, r.gate, r.adapter, id)
	if err != nil {
		return MailResult{}, err
	}
	return MailResult{Mail: mail, Errors: errs}, nil
}

func (r *MailResolver) List(ctx context.Context, in MailInput, p *Paginator) (MailsResult, error) {
	contains := map[string]string{}
	if in.Mail != nil {
		contains["mail"] = *in.Mail
	}
	if in.Source != nil {
		contains["source"] = *in.Source
	}
	if in.Geo != nil {
		contains["geo"] = *in.Geo
	}
	if in.Name != nil {
		contains["name"] = *in.Name
	}
	if in.Sex != nil {
		contains["sex"] = *in.Sex
	}

	items, hasMore, err := listPaged(ctx, r.gate, r.adapter, contains, p)
	if err != nil {
		return MailsResult{}, err
	}
	return MailsResult{Mails: items, HasMore: hasMore}, nil
}

func (r *MailResolver) Update(ctx context.Context, id int64, in MailInput) MailResult {
	patch := map[string]any{}
	if in.Mail != nil {
		patch["mail"] = *in.Mail
	}
	if in.Code != nil {
		patch["code"] = *in.Code
	}
	if in.Source != nil {
		patch["source"] = *in.Source
	}
	if in.Geo != nil {
		patch["geo"] = *in.Geo
	}
	if in.Name != nil {
		patch["name"] = *in.Name
	}
	if in.Sex != nil {
		patch["sex"] = *in.Sex
	}
	if in.Age != nil {
		patch["age"] = *in.Age
	}
	if in.Status != nil {
		patch["status"] = *in.Status
	}

	mail, errs := update(ctx, r.gate, r.adapter, id, patch)
	return MailResult{Mail: mail, Errors: errs}
}

func (r *MailResolver) Remove(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, r.gate, r.adapter, id)
}
