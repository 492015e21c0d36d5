package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mtm-tools/mtm-server/internal/errx"
	"github.com/mtm-tools/mtm-server/internal/httpx"
	"github.com/mtm-tools/mtm-server/internal/resolver"
	"github.com/mtm-tools/mtm-server/internal/session"
)

// queryRequest is the envelope of every query-endpoint call: a named
// operation plus its arguments. Unused arguments are simply omitted.
type queryRequest struct {
	Operation string              `json:"operation"`
	ID        int64               `json:"id"`
	Options   json.RawMessage     `json:"options"`
	Paginator *resolver.Paginator `json:"paginator"`
	LinksIds  []int64             `json:"linksIds"`
}

type queryResponse struct {
	Data any `json:"data"`
}

// QueryHandler dispatches named operations to the entity resolvers and owns
// session cookie issuance for login/logout.
type QueryHandler struct {
	users     *resolver.UserResolver
	links     *resolver.LinkResolver
	companies *resolver.CompanyResolver
	mails     *resolver.MailResolver
	sessions  *session.Manager
	logger    *slog.Logger
}

// QueryHandlerConfig holds the dependencies of the query handler.
type QueryHandlerConfig struct {
	Users     *resolver.UserResolver
	Links     *resolver.LinkResolver
	Companies *resolver.CompanyResolver
	Mails     *resolver.MailResolver
	Sessions  *session.Manager
	Logger    *slog.Logger
}

// NewQueryHandler creates a new QueryHandler instance.
func NewQueryHandler(cfg QueryHandlerConfig) *QueryHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryHandler{
		users:     cfg.Users,
		links:     cfg.Links,
		companies: cfg.Companies,
		mails:     cfg.Mails,
		sessions:  cfg.Sessions,
		logger:    logger,
	}
}

// Query handles POST requests to the query endpoint.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	req, err := httpx.DecodeJSON[queryRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	logger = logger.With("operation", req.Operation)

	var data any
	switch req.Operation {
	case "register":
		opts, ok := decodeOptions[resolver.CredentialsInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.users.Register(ctx, opts)

	case "login":
		opts, ok := decodeOptions[resolver.CredentialsInput](w, logger, req.Options)
		if !ok {
			return
		}
		res := h.users.Login(ctx, opts)
		if res.User != nil {
			if err := h.sessions.Issue(ctx, w, res.User.ID); err != nil {
				h.fail(w, logger, "issue session", err)
				return
			}
		}
		data = res

	case "logout":
		if err := h.sessions.Destroy(ctx, w); err != nil {
			logger.ErrorContext(ctx, "destroy session", "error", err.Error())
			data = false
			break
		}
		data = true

	case "user":
		res, err := h.users.Fetch(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "fetch user", err)
			return
		}
		data = res

	case "users":
		opts, ok := decodeOptions[resolver.UserInput](w, logger, req.Options)
		if !ok {
			return
		}
		res, err := h.users.List(ctx, opts, req.Paginator)
		if err != nil {
			h.fail(w, logger, "list users", err)
			return
		}
		data = res

	case "userUpdate":
		opts, ok := decodeOptions[resolver.UserInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.users.Update(ctx, req.ID, opts)

	case "userDelete":
		ok, err := h.users.Remove(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "delete user", err)
			return
		}
		data = ok

	case "linkCreate":
		opts, ok := decodeOptions[resolver.LinkInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.links.Create(ctx, opts)

	case "link":
		res, err := h.links.Fetch(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "fetch link", err)
			return
		}
		data = res

	case "links":
		opts, ok := decodeOptions[resolver.LinkInput](w, logger, req.Options)
		if !ok {
			return
		}
		res, err := h.links.List(ctx, opts, req.Paginator)
		if err != nil {
			h.fail(w, logger, "list links", err)
			return
		}
		data = res

	case "linkUpdate":
		opts, ok := decodeOptions[resolver.LinkInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.links.Update(ctx, req.ID, opts)

	case "linkDelete":
		ok, err := h.links.Remove(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "delete link", err)
			return
		}
		data = ok

	case "companyCreate":
		opts, ok := decodeOptions[resolver.CompanyInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.companies.Create(ctx, opts)

	case "companyChangeLinks":
		ok, err := h.companies.ChangeLinks(ctx, req.ID, req.LinksIds)
		if err != nil {
			h.fail(w, logger, "change company links", err)
			return
		}
		data = ok

	case "company":
		res, err := h.companies.Fetch(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "fetch company", err)
			return
		}
		data = res

	case "companies":
		opts, ok := decodeOptions[resolver.CompanyInput](w, logger, req.Options)
		if !ok {
			return
		}
		res, err := h.companies.List(ctx, opts, req.Paginator)
		if err != nil {
			h.fail(w, logger, "list companies", err)
			return
		}
		data = res

	case "companyUpdate":
		opts, ok := decodeOptions[resolver.CompanyInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.companies.Update(ctx, req.ID, opts)

	case "companyDelete":
		ok, err := h.companies.Remove(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "delete company", err)
			return
		}
		data = ok

	case "mailCreate":
		opts, ok := decodeOptions[resolver.MailInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.mails.Create(ctx, opts)

	case "mail":
		res, err := h.mails.Fetch(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "fetch mail", err)
			return
		}
		data = res

	case "mails":
		opts, ok := decodeOptions[resolver.MailInput](w, logger, req.Options)
		if !ok {
			return
		}
		res, err := h.mails.List(ctx, opts, req.Paginator)
		if err != nil {
			h.fail(w, logger, "list mails", err)
			return
		}
		data = res

	case "mailUpdate":
		opts, ok := decodeOptions[resolver.MailInput](w, logger, req.Options)
		if !ok {
			return
		}
		data = h.mails.Update(ctx, req.ID, opts)

	case "mailDelete":
		ok, err := h.mails.Remove(ctx, req.ID)
		if err != nil {
			h.fail(w, logger, "delete mail", err)
			return
		}
		data = ok

	default:
		logger.WarnContext(ctx, "unknown operation")
		httpx.WriteError(w, http.StatusBadRequest, "unknown_operation", "unknown operation: "+req.Operation, nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, queryResponse{Data: data})
}

// fail converts an unexpected resolver failure into a generic error
// response; resolver field errors never travel this path.
func (h *QueryHandler) fail(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	logger.Error(action, "error", err.Error())

	kind := errx.KindOf(err)
	httpx.WriteError(w, httpx.ErrorKindToStatus(kind), httpx.ErrorKindToCode(kind), "request failed", nil)
}

func decodeOptions[T any](w http.ResponseWriter, logger *slog.Logger, raw json.RawMessage) (T, bool) {
	var opts T
	if len(raw) == 0 {
		return opts, true
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		logger.Warn("failed to decode options", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_options", err.Error(), nil)
		var zero T
		return zero, false
	}
	return opts, true
}
