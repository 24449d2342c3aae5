// Package handler exposes the governance adapter over HTTP. Reads are public;
// writes take the caller from the bearer token the auth middleware verified.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"condo/internal/governance/models"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	"condo/pkg/platform/httputil"
	"condo/pkg/requestcontext"
)

// Service is the governance surface the handler drives.
type Service interface {
	AddResident(ctx context.Context, caller, wallet id.Address, res id.ResidenceID) (*models.Resident, error)
	RemoveResident(ctx context.Context, caller, wallet id.Address) error
	SetCounselor(ctx context.Context, caller, wallet id.Address, counselor bool) (*models.Resident, error)
	GetResident(ctx context.Context, wallet id.Address) (*models.Resident, error)
	GetResidents(ctx context.Context, page, pageSize int) (*models.ResidentPage, error)
	GetManager(ctx context.Context) (id.Address, error)

	PayQuota(ctx context.Context, payer id.Address, res id.ResidenceID, value models.Amount) (*models.Payment, error)
	IsDefaulter(ctx context.Context, res id.ResidenceID) (bool, error)
	MonthlyQuota(ctx context.Context) (models.Amount, error)
	GetPayments(ctx context.Context, res id.ResidenceID) ([]*models.Payment, error)

	AddTopic(ctx context.Context, caller id.Address, draft models.TopicDraft) (*models.Topic, error)
	EditTopic(ctx context.Context, caller id.Address, title string, patch models.TopicPatch) (*models.Topic, error)
	RemoveTopic(ctx context.Context, caller id.Address, title string) error
	GetTopic(ctx context.Context, title string) (*models.Topic, error)
	GetTopics(ctx context.Context, page, pageSize int) (*models.TopicPage, error)

	OpenVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error)
	Vote(ctx context.Context, caller id.Address, title string, option models.Option) (*models.Vote, error)
	CloseVoting(ctx context.Context, caller id.Address, title string) (*models.Topic, error)
	GetVotes(ctx context.Context, title string) ([]*models.Vote, error)

	Transfer(ctx context.Context, caller id.Address, title string, amount models.Amount) (*models.Transfer, error)
	Balance(ctx context.Context) (models.Amount, error)
	GetTransfers(ctx context.Context) ([]*models.Transfer, error)

	Upgrade(ctx context.Context, caller, impl id.Address) error
	ImplementationAddress() id.Address
	Implementations() []id.Address
}

// EventSource streams committed governance notifications.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan models.Notification, func())
}

type Handler struct {
	service Service
	events  EventSource
	logger  *slog.Logger
	// writes wraps every mutating route, typically auth then rate limit.
	writes []func(http.Handler) http.Handler
}

type Option func(*Handler)

func WithEvents(events EventSource) Option {
	return func(h *Handler) {
		h.events = events
	}
}

// WithWriteMiddleware guards the mutating routes.
func WithWriteMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.writes = append(h.writes, mw...)
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the governance routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/residences", h.HandleListResidences)
	r.Get("/residences/{id}", h.HandleGetResidence)
	r.Get("/residences/{id}/defaulter", h.HandleIsDefaulter)
	r.Get("/residences/{id}/payments", h.HandleGetPayments)
	r.Get("/residents", h.HandleGetResidents)
	r.Get("/residents/{wallet}", h.HandleGetResident)
	r.Get("/manager", h.HandleGetManager)
	r.Get("/quota", h.HandleGetQuota)
	r.Get("/topics", h.HandleGetTopics)
	r.Get("/topics/{title}", h.HandleGetTopic)
	r.Get("/topics/{title}/votes", h.HandleGetVotes)
	r.Get("/treasury", h.HandleGetTreasury)
	r.Get("/adapter", h.HandleGetAdapter)

	r.Group(func(r chi.Router) {
		r.Use(h.writes...)
		r.Post("/residences/{id}/payments", h.HandlePayQuota)
		r.Post("/residents", h.HandleAddResident)
		r.Delete("/residents/{wallet}", h.HandleRemoveResident)
		r.Put("/residents/{wallet}/counselor", h.HandleSetCounselor)
		r.Post("/topics", h.HandleAddTopic)
		r.Patch("/topics/{title}", h.HandleEditTopic)
		r.Delete("/topics/{title}", h.HandleRemoveTopic)
		r.Post("/topics/{title}/open", h.HandleOpenVoting)
		r.Post("/topics/{title}/votes", h.HandleVote)
		r.Post("/topics/{title}/close", h.HandleCloseVoting)
		r.Post("/treasury/transfers", h.HandleTransfer)
		r.Post("/adapter/upgrade", h.HandleUpgrade)
	})
}

// RegisterStream mounts GET /events. It is kept apart from Register so the
// stream can sit outside request timeouts.
func (h *Handler) RegisterStream(r chi.Router) {
	if h.events != nil {
		r.Get("/events", h.HandleEvents)
	}
}

// caller returns the authenticated wallet or writes a 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Address, bool) {
	wallet := requestcontext.Wallet(r.Context())
	if wallet.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.Address{}, false
	}
	return wallet, true
}

// fail logs err at a level matching its code and writes the error envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	attrs := []any{
		"operation", op,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	if de, ok := dErrors.From(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, "governance request rejected", append(attrs, "reason", models.Reason(err))...)
	} else {
		h.logger.ErrorContext(ctx, "governance request failed", attrs...)
	}
	httputil.WriteErrorWithReason(w, err, models.Reason(err))
}

// decode reads a request body, reporting validation failures with the same
// reason slugs as engine errors.
func decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	return httputil.DecodeAndPrepareWithReason[T](w, r, logger, ctx, requestcontext.RequestID(ctx), models.Reason)
}

func pathResidence(r *http.Request) (id.ResidenceID, error) {
	return id.ParseResidenceID(chi.URLParam(r, "id"))
}

func pathWallet(r *http.Request) (id.Address, error) {
	return id.ParseAddress(chi.URLParam(r, "wallet"))
}

// pathTitle decodes the title segment; chi returns it escaped when the
// request path needed a raw form, for example an encoded slash.
func pathTitle(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	if title, err := url.PathUnescape(raw); err == nil {
		return title
	}
	return raw
}

// paging reads page and page_size; missing or malformed values fall back to
// the defaults applied by models.ClampPage.
func paging(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return page, size
}
