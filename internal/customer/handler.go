package customer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for customer endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new customer Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the customer endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List godoc
//
//	@Summary	List customers
//	@Tags		customers
//	@Produce	json
//	@Security	SessionCookie
//	@Param		search	query		string	false	"name or email"
//	@Success	200		{object}	response.Envelope{data=[]Customer}
//	@Router		/customers [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// Get godoc
//
//	@Summary	Get customer
//	@Tags		customers
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Customer ID"
//	@Success	200	{object}	response.Envelope{data=Customer}
//	@Failure	404	{object}	response.Envelope
//	@Router		/customers/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, c, "")
}

// Create godoc
//
//	@Summary	Create customer
//	@Tags		customers
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		request	body		Input	true	"Customer"
//	@Success	201		{object}	response.Envelope{data=Customer}
//	@Failure	400		{object}	response.Envelope
//	@Router		/customers [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, c, "customer created successfully")
}

// Update godoc
//
//	@Summary	Update customer
//	@Tags		customers
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		string	true	"Customer ID"
//	@Param		request	body		Input	true	"Customer"
//	@Success	200		{object}	response.Envelope{data=Customer}
//	@Failure	400		{object}	response.Envelope
//	@Router		/customers/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, c, "customer updated successfully")
}

// Delete godoc
//
//	@Summary	Delete customer
//	@Tags		customers
//	@Security	SessionCookie
//	@Success	204
//	@Failure	400	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/customers/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.NoContent(w)
}
