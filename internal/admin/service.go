package admin

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/admin/internal/apperr"
)

// Store is the persistence the admin service needs.
type Store interface {
	Create(ctx context.Context, a *Admin) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	List(ctx context.Context, f ListFilter) ([]Admin, error)
	CountByRole(ctx context.Context, role Role) (int, error)
	CountOtherActive(ctx context.Context, role Role, excludeID string) (int, error)
	Update(ctx context.Context, a *Admin) (*Admin, error)
	TouchLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// SessionRevoker drops the sessions of an admin whose access changed.
type SessionRevoker interface {
	DestroyAll(ctx context.Context, adminID string) error
}

// Service contains business logic for admin accounts.
type Service struct {
	store    Store
	sessions SessionRevoker
	log      *zap.Logger
	cost     int
}

// NewService creates a new admin Service. sessions may be nil.
func NewService(store Store, sessions SessionRevoker, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, sessions: sessions, log: log, cost: bcrypt.DefaultCost}
}

// Register creates an admin. Permissions default by role when omitted.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Admin, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if !validEmail(email) {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.Validation("password should be at least %d characters", MinPasswordLength)
	}
	if in.Role == "" {
		in.Role = RoleAdmin
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("role must be one of: super_admin, admin")
	}

	perms := in.Permissions
	if len(perms) == 0 {
		perms = DefaultPermissions(in.Role)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	a, err := s.store.Create(ctx, &Admin{
		Name:         name,
		Email:        email,
		Role:         in.Role,
		Permissions:  perms,
		IsActive:     true,
		passwordHash: hash,
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil, apperr.Conflict("an admin with this email already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to create admin")
	}
	s.log.Info("admin registered", zap.String("admin_id", a.ID), zap.String("role", string(a.Role)))
	return a, nil
}

// Authenticate checks email and password. Unknown emails and wrong passwords
// return the same unauthorized error; inactive accounts are forbidden.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Admin, error) {
	a, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if !a.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}

	if err := s.store.TouchLastLogin(ctx, a.ID); err != nil {
		s.log.Warn("update last login failed", zap.String("admin_id", a.ID), zap.Error(err))
	}
	return a, nil
}

// Get returns an admin by ID.
func (s *Service) Get(ctx context.Context, id string) (*Admin, error) {
	a, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("admin not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load admin")
	}
	return a, nil
}

// List returns admins matching f, newest first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Admin, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, apperr.Validation("invalid role %q", f.Role)
	}
	admins, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list admins")
	}
	return admins, nil
}

// SuperAdmins lists every super admin.
func (s *Service) SuperAdmins(ctx context.Context) ([]Admin, error) {
	return s.List(ctx, ListFilter{Role: RoleSuperAdmin})
}

// HasSuperAdmin reports whether at least one super admin exists.
func (s *Service) HasSuperAdmin(ctx context.Context) (bool, error) {
	n, err := s.store.CountByRole(ctx, RoleSuperAdmin)
	if err != nil {
		return false, apperr.Internal(err, "failed to count super admins")
	}
	return n > 0, nil
}

// Update applies in to the admin. Demoting or deactivating the last super
// admin is refused.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Admin, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wasRole, wasActive := a.Role, a.IsActive

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		a.Name = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !validEmail(email) {
			return nil, apperr.Validation("a valid email is required")
		}
		a.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLength {
			return nil, apperr.Validation("password should be at least %d characters", MinPasswordLength)
		}
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		a.passwordHash = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperr.Validation("role must be one of: super_admin, admin")
		}
		a.Role = *in.Role
	}
	if in.Permissions != nil {
		a.Permissions = *in.Permissions
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}

	losingSuper := wasRole == RoleSuperAdmin && wasActive && (a.Role != RoleSuperAdmin || !a.IsActive)
	if losingSuper {
		if err := s.ensureAnotherSuperAdmin(ctx, a.ID, "cannot change role: at least one super admin must exist"); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.Update(ctx, a)
	if errors.Is(err, ErrEmailTaken) {
		return nil, apperr.Conflict("an admin with this email already exists")
	}
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("admin not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update admin")
	}

	if updated.Role != wasRole || (wasActive && !updated.IsActive) || in.Password != nil {
		s.revoke(ctx, updated.ID)
	}
	return updated, nil
}

// ChangeStatus activates or deactivates an admin.
func (s *Service) ChangeStatus(ctx context.Context, id string, active bool) (*Admin, error) {
	return s.Update(ctx, id, UpdateInput{IsActive: &active})
}

// Delete removes an admin. Deleting the last super admin is refused.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Role == RoleSuperAdmin {
		if err := s.ensureAnotherSuperAdmin(ctx, a.ID, "cannot delete: at least one super admin must exist"); err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("admin not found")
		}
		return apperr.Internal(err, "failed to delete admin")
	}
	s.revoke(ctx, id)
	s.log.Info("admin deleted", zap.String("admin_id", id))
	return nil
}

// ensureAnotherSuperAdmin fails unless an active super admin other than id exists.
func (s *Service) ensureAnotherSuperAdmin(ctx context.Context, id, msg string) error {
	n, err := s.store.CountOtherActive(ctx, RoleSuperAdmin, id)
	if err != nil {
		return apperr.Internal(err, "failed to count super admins")
	}
	if n == 0 {
		return apperr.Conflict("%s", msg)
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, id string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.DestroyAll(ctx, id); err != nil {
		s.log.Warn("revoke admin sessions failed", zap.String("admin_id", id), zap.Error(err))
	}
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperr.Internal(err, "failed to hash password")
	}
	return string(h), nil
}
