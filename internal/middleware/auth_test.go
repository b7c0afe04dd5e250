package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/session"
)

type fakeResolver struct {
	sessions map[string]*session.Session
	err      error
}

func (f fakeResolver) Resolve(ctx context.Context, token string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, session.ErrInvalidSession
	}
	return s, nil
}

func protected(resolver SessionResolver, roles ...string) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := CurrentSession(r.Context())
		_, _ = w.Write([]byte(sess.AdminID))
	})
	var h http.Handler = final
	if len(roles) > 0 {
		h = RequireRole(roles...)(h)
	}
	return RequireSession(resolver, zap.NewNop())(h)
}

func request(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	return req
}

func TestRequireSession(t *testing.T) {
	resolver := fakeResolver{sessions: map[string]*session.Session{
		"good": {ID: "s1", AdminID: "admin-1", Role: "admin"},
	}}

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"no cookie", "", http.StatusUnauthorized},
		{"unknown token", "bad", http.StatusUnauthorized},
		{"valid", "good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			protected(resolver).ServeHTTP(rec, request(tc.token))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusOK && rec.Body.String() != "admin-1" {
				t.Fatalf("expected session in context, got %q", rec.Body.String())
			}
		})
	}
}

func TestRequireSessionStoreFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	protected(fakeResolver{err: errors.New("redis down")}).ServeHTTP(rec, request("any"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	resolver := fakeResolver{sessions: map[string]*session.Session{
		"root":  {ID: "s1", AdminID: "root", Role: "super_admin"},
		"staff": {ID: "s2", AdminID: "staff", Role: "admin"},
	}}

	rec := httptest.NewRecorder()
	protected(resolver, "super_admin").ServeHTTP(rec, request("staff"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	protected(resolver, "super_admin").ServeHTTP(rec, request("root"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for super_admin, got %d", rec.Code)
	}
}

func TestRequireRoleWithoutSession(t *testing.T) {
	h := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
