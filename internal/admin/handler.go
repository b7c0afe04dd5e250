package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for admin management.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new admin Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the admin endpoints. Reads are open to any session, writes
// go through requireWrite.
func (h *Handler) Routes(r chi.Router, requireWrite func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/super-admins", h.SuperAdmins)
	r.Get("/check-super-admin", h.CheckSuperAdmin)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(requireWrite)
		r.Post("/", h.Register)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/status", h.ChangeStatus)
		r.Delete("/{id}", h.Delete)
	})
}

type statusRequest struct {
	IsActive *bool `json:"isActive" example:"false"`
}

type superAdminExistsData struct {
	Exists bool `json:"exists" example:"true"`
}

// List godoc
//
//	@Summary		List admins
//	@Description	Newest first, optionally filtered by role and active flag.
//	@Tags			admins
//	@Produce		json
//	@Security		SessionCookie
//	@Param			role		query		string	false	"super_admin or admin"
//	@Param			isActive	query		bool	false	"active flag"
//	@Success		200			{object}	response.Envelope{data=[]Admin}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Router			/admin [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := ListFilter{Role: Role(r.URL.Query().Get("role"))}
	if raw := r.URL.Query().Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, "isActive must be true or false")
			return
		}
		f.IsActive = &active
	}

	admins, err := h.svc.List(r.Context(), f)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, admins, "")
}

// SuperAdmins godoc
//
//	@Summary	List super admins
//	@Tags		admins
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=[]Admin}
//	@Router		/admin/super-admins [get]
func (h *Handler) SuperAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.svc.SuperAdmins(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, admins, "")
}

// CheckSuperAdmin godoc
//
//	@Summary	Check whether a super admin exists
//	@Tags		admins
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=superAdminExistsData}
//	@Router		/admin/check-super-admin [get]
func (h *Handler) CheckSuperAdmin(w http.ResponseWriter, r *http.Request) {
	exists, err := h.svc.HasSuperAdmin(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, superAdminExistsData{Exists: exists}, "")
}

// Get godoc
//
//	@Summary	Get admin
//	@Tags		admins
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id	path		string	true	"Admin ID"
//	@Success	200	{object}	response.Envelope{data=Admin}
//	@Failure	404	{object}	response.Envelope
//	@Router		/admin/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, a, "")
}

// Register godoc
//
//	@Summary		Register admin
//	@Description	Creates an admin. Permissions default to ["all"] for super admins and ["read","write"] otherwise.
//	@Tags			admins
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		RegisterInput	true	"Admin details"
//	@Success		201		{object}	response.Envelope{data=Admin}
//	@Failure		400		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Router			/admin [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	a, err := h.svc.Register(r.Context(), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, a, "admin registered successfully")
}

// Update godoc
//
//	@Summary		Update admin
//	@Description	Demoting or deactivating the last active super admin is refused.
//	@Tags			admins
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id		path		string		true	"Admin ID"
//	@Param			request	body		UpdateInput	true	"Fields to change"
//	@Success		200		{object}	response.Envelope{data=Admin}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/admin/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	a, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, a, "admin updated successfully")
}

// ChangeStatus godoc
//
//	@Summary	Activate or deactivate admin
//	@Tags		admins
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		id		path		string			true	"Admin ID"
//	@Param		request	body		statusRequest	true	"New status"
//	@Success	200		{object}	response.Envelope{data=Admin}
//	@Failure	400		{object}	response.Envelope
//	@Router		/admin/{id}/status [patch]
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	if req.IsActive == nil {
		response.Fail(w, h.log, apperr.Validation("isActive is required"))
		return
	}
	a, err := h.svc.ChangeStatus(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, a, "admin status updated")
}

// Delete godoc
//
//	@Summary		Delete admin
//	@Description	Deleting the last super admin is refused.
//	@Tags			admins
//	@Produce		json
//	@Security		SessionCookie
//	@Param			id	path		string	true	"Admin ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/admin/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, nil, "admin deleted successfully")
}
