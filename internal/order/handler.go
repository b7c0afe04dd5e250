package order

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for order endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new order Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the order endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/customer/{customerId}", h.ListByCustomer)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/payment-status", h.SetPaymentStatus)
	r.Delete("/{id}", h.Delete)
}

type statusRequest struct {
	Status         Status `json:"status"                   example:"shipped"`
	TrackingNumber string `json:"trackingNumber,omitempty" example:"1Z999AA10123456784"`
}

type paymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" example:"paid"`
}

// List godoc
//
//	@Summary	List orders
//	@Tags		orders
//	@Produce	json
//	@Security	SessionCookie
//	@Param		status	query		string	false	"order status"
//	@Param		from	query		string	false	"RFC3339 or YYYY-MM-DD"
//	@Param		to		query		string	false	"RFC3339 or YYYY-MM-DD (inclusive)"
//	@Success	200		{object}	response.Envelope{data=[]Order}
//	@Failure	400		{object}	response.Envelope
//	@Router		/orders [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{Status: Status(q.Get("status"))}
	var err error
	if f.From, err = parseTime(q.Get("from"), false); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	if f.To, err = parseTime(q.Get("to"), true); err != nil {
		response.Fail(w, h.log, err)
		return
	}

	out, err := h.svc.List(r.Context(), f)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// ListByCustomer godoc
//
//	@Summary	List a customer's orders
//	@Tags		orders
//	@Produce	json
//	@Security	SessionCookie
//	@Param		customerId	path		string	true	"Customer ID"
//	@Success	200			{object}	response.Envelope{data=[]Order}
//	@Failure	404			{object}	response.Envelope
//	@Router		/orders/customer/{customerId} [get]
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// Get godoc
//
//	@Summary	Get order
//	@Tags		orders
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Order ID"
//	@Success	200	{object}	response.Envelope{data=Order}
//	@Failure	404	{object}	response.Envelope
//	@Router		/orders/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, o, "")
}

// Create godoc
//
//	@Summary		Create order
//	@Description	Prices the order (subtotal, 8% tax, shipping fee) and assigns an order number.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		CreateInput	true	"Order"
//	@Success		201		{object}	response.Envelope{data=Order}
//	@Failure		400		{object}	response.Envelope
//	@Router			/orders [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	o, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, o, "order created")
}

// Update godoc
//
//	@Summary	Update order
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		string		true	"Order ID"
//	@Param		request	body		UpdateInput	true	"Fields to change"
//	@Success	200		{object}	response.Envelope{data=Order}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/orders/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	o, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, o, "")
}

// UpdateStatus godoc
//
//	@Summary		Change order status
//	@Description	pending → processing|cancelled, processing → shipped|cancelled, shipped → delivered.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id		path		string			true	"Order ID"
//	@Param			request	body		statusRequest	true	"New status"
//	@Success		200		{object}	response.Envelope{data=Order}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/orders/{id}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	o, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.TrackingNumber)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, o, "order status updated")
}

// SetPaymentStatus godoc
//
//	@Summary	Change order payment status
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		string					true	"Order ID"
//	@Param		request	body		paymentStatusRequest	true	"pending, paid or failed"
//	@Success	200		{object}	response.Envelope{data=Order}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/orders/{id}/payment-status [patch]
func (h *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req paymentStatusRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	o, err := h.svc.SetPaymentStatus(r.Context(), chi.URLParam(r, "id"), req.PaymentStatus)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, o, "")
}

// Delete godoc
//
//	@Summary	Delete order
//	@Tags		orders
//	@Security	SessionCookie
//	@Param		id	path	string	true	"Order ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/orders/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.NoContent(w)
}

// parseTime accepts RFC3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func parseTime(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, apperr.Validation("invalid date %q", v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
