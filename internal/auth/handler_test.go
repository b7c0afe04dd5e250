package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storefront/admin/internal/admin"
	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/middleware"
	"github.com/storefront/admin/internal/session"
)

type fakeAdmins struct {
	byID       map[string]*admin.Admin
	passwords  map[string]string
	hasSuper   bool
	registered []admin.RegisterInput
}

func (f *fakeAdmins) Authenticate(ctx context.Context, email, password string) (*admin.Admin, error) {
	for id, a := range f.byID {
		if a.Email == email && f.passwords[id] == password {
			if !a.IsActive {
				return nil, apperr.Forbidden("account is deactivated")
			}
			return a, nil
		}
	}
	return nil, apperr.Unauthorized("invalid email or password")
}

func (f *fakeAdmins) Get(ctx context.Context, id string) (*admin.Admin, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("admin not found")
	}
	return a, nil
}

func (f *fakeAdmins) HasSuperAdmin(ctx context.Context) (bool, error) {
	return f.hasSuper, nil
}

func (f *fakeAdmins) Register(ctx context.Context, in admin.RegisterInput) (*admin.Admin, error) {
	f.registered = append(f.registered, in)
	f.hasSuper = true
	return &admin.Admin{ID: "new", Name: in.Name, Email: in.Email, Role: in.Role, IsActive: true}, nil
}

func newTestRouter(t *testing.T, admins *fakeAdmins) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewStore(client, "secret", time.Hour)

	h := NewHandler(NewService(admins, store, nil), zap.NewNop(), false)
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Get("/check-super-admin", h.CheckSuperAdmin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(store, zap.NewNop()))
		r.Get("/me", h.Me)
		r.Post("/logout", h.Logout)
	})
	return r
}

func postJSON(path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestLoginMeLogout(t *testing.T) {
	admins := &fakeAdmins{
		byID:      map[string]*admin.Admin{"a1": {ID: "a1", Email: "jane@example.com", Role: admin.RoleAdmin, IsActive: true}},
		passwords: map[string]string{"a1": "secret1"},
	}
	router := newTestRouter(t, admins)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postJSON("/login", loginRequest{Email: "jane@example.com", Password: "secret1"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", cookie)
	}

	me := httptest.NewRequest(http.MethodGet, "/me", nil)
	me.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, me)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	var env struct {
		Data admin.Admin `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Data.ID != "a1" {
		t.Fatalf("unexpected me body %s (%v)", rec.Body.String(), err)
	}

	logout := httptest.NewRequest(http.MethodPost, "/logout", nil)
	logout.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, logout)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected the cookie to be cleared, got %+v", c)
	}

	me = httptest.NewRequest(http.MethodGet, "/me", nil)
	me.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, me)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", rec.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	admins := &fakeAdmins{
		byID: map[string]*admin.Admin{
			"a1": {ID: "a1", Email: "jane@example.com", IsActive: true},
			"a2": {ID: "a2", Email: "gone@example.com", IsActive: false},
		},
		passwords: map[string]string{"a1": "secret1", "a2": "secret2"},
	}
	router := newTestRouter(t, admins)

	cases := []struct {
		name   string
		body   loginRequest
		status int
	}{
		{"missing fields", loginRequest{Email: "jane@example.com"}, http.StatusBadRequest},
		{"wrong password", loginRequest{Email: "jane@example.com", Password: "nope"}, http.StatusUnauthorized},
		{"inactive", loginRequest{Email: "gone@example.com", Password: "secret2"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, postJSON("/login", tc.body))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if sessionCookie(rec) != nil {
				t.Fatalf("no cookie expected on failure")
			}
		})
	}
}

func TestRegisterFirstSuperAdmin(t *testing.T) {
	admins := &fakeAdmins{byID: map[string]*admin.Admin{}}
	router := newTestRouter(t, admins)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, postJSON("/register", admin.RegisterInput{Name: "Root", Email: "root@example.com", Password: "secret1", Role: admin.RoleAdmin}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if admins.registered[0].Role != admin.RoleSuperAdmin {
		t.Fatalf("bootstrap registration must create a super admin, got %s", admins.registered[0].Role)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, postJSON("/register", admin.RegisterInput{Name: "Again", Email: "again@example.com", Password: "secret1"}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected registration to be closed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check-super-admin", nil))
	var env struct {
		Data superAdminExistsData `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if !env.Data.Exists {
		t.Fatalf("expected exists=true, got %s", rec.Body.String())
	}
}
