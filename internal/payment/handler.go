package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for payment endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new payment Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the payment endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/order/{orderId}", h.ListByOrder)
	r.Get("/customer/{customerId}", h.ListByCustomer)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/process", h.Process)
	r.Post("/{id}/refund", h.Refund)
	r.Delete("/{id}", h.Delete)
}

// Create godoc
//
//	@Summary	Create payment
//	@Tags		payments
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		request	body		CreateInput	true	"Payment"
//	@Success	201		{object}	response.Envelope{data=Payment}
//	@Failure	400		{object}	response.Envelope
//	@Router		/payments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, p, "")
}

// Get godoc
//
//	@Summary	Get payment
//	@Tags		payments
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Payment ID"
//	@Success	200	{object}	response.Envelope{data=Payment}
//	@Failure	404	{object}	response.Envelope
//	@Router		/payments/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, p, "")
}

// ListByOrder godoc
//
//	@Summary	List payments of an order
//	@Tags		payments
//	@Produce	json
//	@Security	SessionCookie
//	@Param		orderId	path		string	true	"Order ID"
//	@Success	200		{object}	response.Envelope{data=[]Payment}
//	@Router		/payments/order/{orderId} [get]
func (h *Handler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListByOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// ListByCustomer godoc
//
//	@Summary	List payments of a customer
//	@Tags		payments
//	@Produce	json
//	@Security	SessionCookie
//	@Param		customerId	path		string	true	"Customer ID"
//	@Success	200			{object}	response.Envelope{data=[]Payment}
//	@Router		/payments/customer/{customerId} [get]
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// Update godoc
//
//	@Summary	Update payment
//	@Tags		payments
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		string		true	"Payment ID"
//	@Param		request	body		UpdateInput	true	"Fields to change"
//	@Success	200		{object}	response.Envelope{data=Payment}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/payments/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, p, "")
}

// Process godoc
//
//	@Summary	Process payment
//	@Tags		payments
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Payment ID"
//	@Success	200	{object}	response.Envelope{data=Payment}
//	@Failure	400	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/payments/{id}/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Process(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, p, "payment processed")
}

// Refund godoc
//
//	@Summary	Refund payment
//	@Tags		payments
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Payment ID"
//	@Success	200	{object}	response.Envelope{data=Payment}
//	@Failure	400	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/payments/{id}/refund [post]
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Refund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, p, "payment refunded")
}

// Delete godoc
//
//	@Summary	Delete payment
//	@Tags		payments
//	@Security	SessionCookie
//	@Param		id	path	string	true	"Payment ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/payments/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.NoContent(w)
}
