package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for category endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new category Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the category endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List godoc
//
//	@Summary	List categories
//	@Tags		categories
//	@Produce	json
//	@Security	SessionCookie
//	@Param		active	query		bool	false	"only active categories"
//	@Success	200		{object}	response.Envelope{data=[]Category}
//	@Router		/categories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, out, "")
}

// Get godoc
//
//	@Summary	Get category
//	@Tags		categories
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Category ID"
//	@Success	200	{object}	response.Envelope{data=Category}
//	@Failure	404	{object}	response.Envelope
//	@Router		/categories/{id} [get]
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
//	@Summary	Create category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		request	body		Input	true	"Category"
//	@Success	201		{object}	response.Envelope{data=Category}
//	@Failure	400		{object}	response.Envelope
//	@Router		/categories [post]
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
	response.Created(w, c, "category created successfully")
}

// Update godoc
//
//	@Summary	Update category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		string	true	"Category ID"
//	@Param		request	body		Input	true	"Category"
//	@Success	200		{object}	response.Envelope{data=Category}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/categories/{id} [put]
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
	response.OK(w, c, "category updated successfully")
}

// Delete godoc
//
//	@Summary	Delete category
//	@Tags		categories
//	@Security	SessionCookie
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/categories/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.NoContent(w)
}
