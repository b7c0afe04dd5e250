package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/admin/internal/apperr"
)

type memStore struct {
	mu     sync.Mutex
	admins map[string]*Admin
	seq    int
}

func newMemStore() *memStore {
	return &memStore{admins: map[string]*Admin{}}
}

func (m *memStore) emailTaken(email, exceptID string) bool {
	for id, a := range m.admins {
		if id != exceptID && strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

func (m *memStore) Create(ctx context.Context, a *Admin) (*Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(a.Email, "") {
		return nil, ErrEmailTaken
	}
	m.seq++
	cp := *a
	cp.ID = fmt.Sprintf("admin-%d", m.seq)
	cp.CreatedAt = time.Unix(int64(m.seq), 0)
	m.admins[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) List(ctx context.Context, f ListFilter) ([]Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Admin{}
	for _, a := range m.admins {
		if f.Role != "" && a.Role != f.Role {
			continue
		}
		if f.IsActive != nil && a.IsActive != *f.IsActive {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) CountByRole(ctx context.Context, role Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.admins {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountOtherActive(ctx context.Context, role Role, excludeID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, a := range m.admins {
		if id != excludeID && a.Role == role && a.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Update(ctx context.Context, a *Admin) (*Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[a.ID]; !ok {
		return nil, ErrNotFound
	}
	if m.emailTaken(a.Email, a.ID) {
		return nil, ErrEmailTaken
	}
	cp := *a
	m.admins[a.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) TouchLastLogin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.admins[id]; ok {
		now := time.Now()
		a.LastLogin = &now
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[id]; !ok {
		return ErrNotFound
	}
	delete(m.admins, id)
	return nil
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked []string
}

func (f *fakeRevoker) DestroyAll(ctx context.Context, adminID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, adminID)
	return nil
}

func newTestService() (*Service, *memStore, *fakeRevoker) {
	store := newMemStore()
	rev := &fakeRevoker{}
	svc := NewService(store, rev, nil)
	svc.cost = bcrypt.MinCost
	return svc, store, rev
}

func mustRegister(t *testing.T, svc *Service, email string, role Role) *Admin {
	t.Helper()
	a, err := svc.Register(context.Background(), RegisterInput{Name: "Test", Email: email, Password: "secret1", Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return a
}

func TestRegisterDefaultPermissions(t *testing.T) {
	svc, _, _ := newTestService()

	root := mustRegister(t, svc, "root@example.com", RoleSuperAdmin)
	if len(root.Permissions) != 1 || root.Permissions[0] != "all" {
		t.Fatalf("expected [all], got %v", root.Permissions)
	}
	staff := mustRegister(t, svc, "staff@example.com", RoleAdmin)
	if strings.Join(staff.Permissions, ",") != "read,write" {
		t.Fatalf("expected [read write], got %v", staff.Permissions)
	}
	if !staff.IsActive {
		t.Fatalf("expected new admin to be active")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	cases := []RegisterInput{
		{Name: "", Email: "a@example.com", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: "secret1", Role: "owner"},
	}
	for i, in := range cases {
		if _, err := svc.Register(context.Background(), in); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	mustRegister(t, svc, "dup@example.com", RoleAdmin)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "B", Email: "DUP@example.com", Password: "secret1"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, store, _ := newTestService()
	a := mustRegister(t, svc, "login@example.com", RoleAdmin)

	got, err := svc.Authenticate(context.Background(), " Login@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("expected %s, got %s", a.ID, got.ID)
	}
	if stored, _ := store.GetByID(context.Background(), a.ID); stored.LastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}

	if _, err := svc.Authenticate(context.Background(), "login@example.com", "wrong-pass"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "secret1"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	if _, err := svc.ChangeStatus(context.Background(), a.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "login@example.com", "secret1"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for inactive admin, got %v", err)
	}
}

func TestLastSuperAdminCannotBeDeleted(t *testing.T) {
	svc, _, _ := newTestService()
	root := mustRegister(t, svc, "root@example.com", RoleSuperAdmin)

	if err := svc.Delete(context.Background(), root.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	second := mustRegister(t, svc, "second@example.com", RoleSuperAdmin)
	if err := svc.Delete(context.Background(), root.ID); err != nil {
		t.Fatalf("expected delete to succeed with another super admin, got %v", err)
	}
	if err := svc.Delete(context.Background(), second.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for the remaining super admin, got %v", err)
	}
}

func TestLastSuperAdminCannotBeDemotedOrDeactivated(t *testing.T) {
	svc, _, rev := newTestService()
	root := mustRegister(t, svc, "root@example.com", RoleSuperAdmin)

	demote := RoleAdmin
	if _, err := svc.Update(context.Background(), root.ID, UpdateInput{Role: &demote}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on demotion, got %v", err)
	}
	if _, err := svc.ChangeStatus(context.Background(), root.ID, false); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on deactivation, got %v", err)
	}

	// An inactive second super admin does not count.
	other := mustRegister(t, svc, "other@example.com", RoleSuperAdmin)
	if _, err := svc.ChangeStatus(context.Background(), other.ID, false); err != nil {
		t.Fatalf("deactivating a non-last super admin failed: %v", err)
	}
	if _, err := svc.Update(context.Background(), root.ID, UpdateInput{Role: &demote}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict with only an inactive peer, got %v", err)
	}

	active := true
	if _, err := svc.Update(context.Background(), other.ID, UpdateInput{IsActive: &active}); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	updated, err := svc.Update(context.Background(), root.ID, UpdateInput{Role: &demote})
	if err != nil {
		t.Fatalf("expected demotion to succeed, got %v", err)
	}
	if updated.Role != RoleAdmin {
		t.Fatalf("expected role admin, got %s", updated.Role)
	}

	found := false
	for _, id := range rev.revoked {
		if id == root.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sessions of the demoted admin to be revoked, got %v", rev.revoked)
	}
}

func TestUpdateDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	mustRegister(t, svc, "a@example.com", RoleAdmin)
	b := mustRegister(t, svc, "b@example.com", RoleAdmin)

	email := "A@example.com"
	if _, err := svc.Update(context.Background(), b.ID, UpdateInput{Email: &email}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestHasSuperAdminAndList(t *testing.T) {
	svc, _, _ := newTestService()
	if ok, _ := svc.HasSuperAdmin(context.Background()); ok {
		t.Fatalf("expected no super admin")
	}
	mustRegister(t, svc, "staff@example.com", RoleAdmin)
	mustRegister(t, svc, "root@example.com", RoleSuperAdmin)
	if ok, _ := svc.HasSuperAdmin(context.Background()); !ok {
		t.Fatalf("expected super admin to exist")
	}

	supers, err := svc.SuperAdmins(context.Background())
	if err != nil || len(supers) != 1 || supers[0].Email != "root@example.com" {
		t.Fatalf("unexpected super admins %v (%v)", supers, err)
	}
	all, _ := svc.List(context.Background(), ListFilter{})
	if len(all) != 2 || all[0].Email != "root@example.com" {
		t.Fatalf("expected newest first, got %v", all)
	}
}
