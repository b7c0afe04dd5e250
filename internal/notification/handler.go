package notification

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for the notification feed.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new notification Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the notification endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/unread-count", h.UnreadCount)
	r.Patch("/read-all", h.MarkAllRead)
	r.Patch("/{id}/read", h.MarkRead)
	r.Delete("/{id}", h.Delete)
}

type unreadCountData struct {
	Count int `json:"count" example:"3"`
}

type markAllData struct {
	Updated int64 `json:"updated" example:"3"`
}

// List godoc
//
//	@Summary	List notifications
//	@Tags		notifications
//	@Produce	json
//	@Security	SessionCookie
//	@Param		limit	query		int		false	"default 50"
//	@Param		unread	query		bool	false	"only unread"
//	@Success	200		{object}	response.Envelope{data=[]Notification}
//	@Router		/notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.svc.List(r.Context(), limit, r.URL.Query().Get("unread") == "true")
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// Create godoc
//
//	@Summary	Create notification
//	@Tags		notifications
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		request	body		CreateInput	true	"Notification"
//	@Success	201		{object}	response.Envelope{data=Notification}
//	@Failure	400		{object}	response.Envelope
//	@Router		/notifications [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	n, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, n, "")
}

// UnreadCount godoc
//
//	@Summary	Unread notification count
//	@Tags		notifications
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=unreadCountData}
//	@Router		/notifications/unread-count [get]
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.UnreadCount(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, unreadCountData{Count: n}, "")
}

// MarkRead godoc
//
//	@Summary	Mark notification read
//	@Tags		notifications
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Notification ID"
//	@Success	200	{object}	response.Envelope{data=Notification}
//	@Failure	404	{object}	response.Envelope
//	@Router		/notifications/{id}/read [patch]
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, n, "")
}

// MarkAllRead godoc
//
//	@Summary	Mark all notifications read
//	@Tags		notifications
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=markAllData}
//	@Router		/notifications/read-all [patch]
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllRead(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, markAllData{Updated: n}, "all notifications marked as read")
}

// Delete godoc
//
//	@Summary	Delete notification
//	@Tags		notifications
//	@Security	SessionCookie
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/notifications/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.NoContent(w)
}
