package email

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for email records.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new email Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the email endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Send)
	r.Delete("/", h.DeleteByStatus)
	r.Post("/password-reset", h.PasswordReset)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/resend", h.Resend)
	r.Delete("/{id}", h.Delete)
}

type passwordResetRequest struct {
	To       Recipient `json:"to"`
	ResetURL string    `json:"resetUrl" example:"https://shop.example.com/reset?token=abc"`
}

type deletedData struct {
	Deleted int64 `json:"deleted" example:"12"`
}

// List godoc
//
//	@Summary	List emails
//	@Tags		emails
//	@Produce	json
//	@Security	SessionCookie
//	@Param		status		query		string	false	"pending, sent or failed"
//	@Param		type		query		string	false	"email type"
//	@Param		recipient	query		string	false	"recipient address"
//	@Success	200			{object}	response.Envelope{data=[]Email}
//	@Failure	400			{object}	response.Envelope
//	@Router		/emails [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.svc.List(r.Context(), ListFilter{
		Status:    Status(q.Get("status")),
		Type:      Type(q.Get("type")),
		Recipient: q.Get("recipient"),
	})
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// Send godoc
//
//	@Summary		Create and send email
//	@Description	The email is stored first; a delivery failure is reported through its status.
//	@Tags			emails
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		CreateInput	true	"Email"
//	@Success		201		{object}	response.Envelope{data=Email}
//	@Failure		400		{object}	response.Envelope
//	@Router			/emails [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	e, err := h.svc.Send(r.Context(), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, e, "")
}

// PasswordReset godoc
//
//	@Summary	Send password reset email
//	@Tags		emails
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		request	body		passwordResetRequest	true	"Recipient and link"
//	@Success	201		{object}	response.Envelope{data=Email}
//	@Failure	400		{object}	response.Envelope
//	@Router		/emails/password-reset [post]
func (h *Handler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	if req.ResetURL == "" {
		response.Fail(w, h.log, apperr.Validation("resetUrl is required"))
		return
	}
	e, err := h.svc.SendPasswordReset(r.Context(), req.To, req.ResetURL)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, e, "")
}

// Get godoc
//
//	@Summary	Get email
//	@Tags		emails
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Email ID"
//	@Success	200	{object}	response.Envelope{data=Email}
//	@Failure	404	{object}	response.Envelope
//	@Router		/emails/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, e, "")
}

// Resend godoc
//
//	@Summary	Resend email
//	@Tags		emails
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Email ID"
//	@Success	200	{object}	response.Envelope{data=Email}
//	@Failure	400	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/emails/{id}/resend [post]
func (h *Handler) Resend(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Resend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, e, "")
}

// Delete godoc
//
//	@Summary	Delete email
//	@Tags		emails
//	@Security	SessionCookie
//	@Param		id	path	string	true	"Email ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/emails/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.NoContent(w)
}

// DeleteByStatus godoc
//
//	@Summary	Delete emails by status
//	@Tags		emails
//	@Produce	json
//	@Security	SessionCookie
//	@Param		status	query		string	true	"pending, sent or failed"
//	@Success	200		{object}	response.Envelope{data=deletedData}
//	@Failure	400		{object}	response.Envelope
//	@Router		/emails [delete]
func (h *Handler) DeleteByStatus(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteByStatus(r.Context(), Status(r.URL.Query().Get("status")))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, deletedData{Deleted: n}, "")
}
