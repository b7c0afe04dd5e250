package auth

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/admin"
	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/middleware"
	"github.com/storefront/admin/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc          *Service
	log          *zap.Logger
	secureCookie bool
}

// NewHandler creates a new auth Handler. secureCookie marks the session
// cookie Secure, which production deployments behind TLS need.
func NewHandler(svc *Service, log *zap.Logger, secureCookie bool) *Handler {
	return &Handler{svc: svc, log: log, secureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email"    example:"jane@example.com"`
	Password string `json:"password" example:"s3cret!"`
}

type loginData struct {
	Admin     *admin.Admin `json:"admin"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type superAdminExistsData struct {
	Exists bool `json:"exists" example:"true"`
}

// Login godoc
//
//	@Summary		Admin login
//	@Description	Verifies credentials and sets the HttpOnly sid session cookie.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=loginData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := response.Decode(r, &req); err != nil {
		response.Fail(w, h.log, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(w, loginData{Admin: res.Admin, ExpiresAt: res.ExpiresAt}, "login successful")
}

// Logout godoc
//
//	@Summary	Admin logout
//	@Tags		auth
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope
//	@Failure	401	{object}	response.Envelope
//	@Router		/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
			response.Fail(w, h.log, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(w, nil, "logout successfully")
}

// Me godoc
//
//	@Summary	Current admin
//	@Tags		auth
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	response.Envelope{data=admin.Admin}
//	@Failure	401	{object}	response.Envelope
//	@Router		/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.CurrentSession(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}
	a, err := h.svc.Me(r.Context(), sess.AdminID)
	if apperr.Is(err, apperr.KindNotFound) {
		response.Unauthorized(w, "account no longer exists")
		return
	}
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, a, "")
}

// Register godoc
//
//	@Summary		Register the first super admin
//	@Description	Only available while no super admin exists.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		admin.RegisterInput	true	"Admin details"
//	@Success		201		{object}	response.Envelope{data=admin.Admin}
//	@Failure		400		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in admin.RegisterInput
	if err := response.Decode(r, &in); err != nil {
		response.Fail(w, h.log, err)
		return
	}
	a, err := h.svc.RegisterFirst(r.Context(), in)
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.Created(w, a, "super admin registered successfully")
}

// CheckSuperAdmin godoc
//
//	@Summary	Check whether a super admin exists
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=superAdminExistsData}
//	@Router		/auth/check-super-admin [get]
func (h *Handler) CheckSuperAdmin(w http.ResponseWriter, r *http.Request) {
	exists, err := h.svc.HasSuperAdmin(r.Context())
	if err != nil {
		response.Fail(w, h.log, err)
		return
	}
	response.OK(w, superAdminExistsData{Exists: exists}, "")
}
