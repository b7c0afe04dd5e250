// Package auth implements admin login, logout and first-run registration on
// top of the admin accounts and the Redis session store.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/admin"
	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/session"
)

// Admins is the slice of the admin service that auth relies on.
type Admins interface {
	Authenticate(ctx context.Context, email, password string) (*admin.Admin, error)
	Get(ctx context.Context, id string) (*admin.Admin, error)
	HasSuperAdmin(ctx context.Context) (bool, error)
	Register(ctx context.Context, in admin.RegisterInput) (*admin.Admin, error)
}

// Sessions creates and destroys login sessions.
type Sessions interface {
	Create(ctx context.Context, adminID, email, role string) (string, *session.Session, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	Admin     *admin.Admin
	ExpiresAt time.Time
}

// Service contains the business logic for admin authentication.
type Service struct {
	admins   Admins
	sessions Sessions
	log      *zap.Logger
}

// NewService creates a new auth Service.
func NewService(admins Admins, sessions Sessions, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{admins: admins, sessions: sessions, log: log}
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	a, err := s.admins.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, sess, err := s.sessions.Create(ctx, a.ID, a.Email, string(a.Role))
	if err != nil {
		return nil, apperr.Internal(err, "failed to create session")
	}
	s.log.Info("admin logged in", zap.String("admin_id", a.ID))
	return &LoginResult{Token: token, Admin: a, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout ends the session named by token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return apperr.Internal(err, "failed to end session")
	}
	return nil
}

// Me returns the admin behind the current session.
func (s *Service) Me(ctx context.Context, adminID string) (*admin.Admin, error) {
	return s.admins.Get(ctx, adminID)
}

// RegisterFirst creates the initial super admin. It is closed once any super
// admin exists.
func (s *Service) RegisterFirst(ctx context.Context, in admin.RegisterInput) (*admin.Admin, error) {
	exists, err := s.admins.HasSuperAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Forbidden("registration is closed: a super admin already exists")
	}

	in.Role = admin.RoleSuperAdmin
	in.Permissions = nil
	return s.admins.Register(ctx, in)
}

// HasSuperAdmin reports whether the bootstrap registration is closed.
func (s *Service) HasSuperAdmin(ctx context.Context) (bool, error) {
	return s.admins.HasSuperAdmin(ctx)
}
