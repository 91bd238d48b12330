package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/http/handlers"
	"github.com/peopleops/hrhub/internal/repo/postgres"
)

type fakeUsersRepo struct {
	getFn           func(ctx context.Context, id string) (user.User, error)
	listFn          func(ctx context.Context) ([]postgres.UserListItem, error)
	createFn        func(ctx context.Context, username, email, passwordHash, role string) (user.User, error)
	updateFn        func(ctx context.Context, id string, fields map[string]any) (user.User, error)
	deactivateFn    func(ctx context.Context, id string) (user.User, error)
	updatedFields   map[string]any
	deactivateCalls int
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.User{ID: id, Username: "someone", IsActive: true}, nil
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]postgres.UserListItem, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, username, email, passwordHash, role)
	}
	return user.User{ID: "u-new", Username: username, Email: email, Role: role, IsActive: true}, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, id string, fields map[string]any) (user.User, error) {
	f.updatedFields = fields
	if f.updateFn != nil {
		return f.updateFn(ctx, id, fields)
	}
	return user.User{ID: id, IsActive: true}, nil
}

func (f *fakeUsersRepo) Deactivate(ctx context.Context, id string) (user.User, error) {
	f.deactivateCalls++
	if f.deactivateFn != nil {
		return f.deactivateFn(ctx, id)
	}
	return user.User{ID: id, IsActive: false}, nil
}

func adminActor(userID string) gin.HandlerFunc {
	return asActor(authz.Actor{UserID: userID, Role: user.RoleAdmin})
}

func TestListUsersIsAdminOnly(t *testing.T) {
	repo := &fakeUsersRepo{}
	rec, _ := newTestRecorder()
	h := handlers.NewUsersHandler(repo, rec)

	r := setupRouter(http.MethodGet, "/users", []gin.HandlerFunc{asActor(authz.Actor{UserID: "u-1", Role: user.RoleHRManager})}, h.List)
	w := doJSON(t, r, http.MethodGet, "/users", "")

	mustStatus(t, w, http.StatusForbidden)

	if code := errorCode(t, w); code != string(authz.ReasonForbiddenRole) {
		t.Fatalf("error code = %q", code)
	}
}

func TestAdminCannotDeleteOwnAccount(t *testing.T) {
	repo := &fakeUsersRepo{}
	rec, auditStore := newTestRecorder()
	h := handlers.NewUsersHandler(repo, rec)

	r := setupRouter(http.MethodDelete, "/users/:id", []gin.HandlerFunc{adminActor("admin-1")}, h.Delete)
	w := doJSON(t, r, http.MethodDelete, "/users/admin-1", "")

	mustStatus(t, w, http.StatusForbidden)

	if code := errorCode(t, w); code != string(authz.ReasonForbiddenSelf) {
		t.Fatalf("error code = %q", code)
	}

	if repo.deactivateCalls != 0 {
		t.Fatal("denied delete must not reach the store")
	}

	if len(auditStore.entries) != 0 {
		t.Fatal("denied delete must not be audited")
	}
}

func TestAdminDeleteDeactivatesAndAudits(t *testing.T) {
	repo := &fakeUsersRepo{}
	rec, auditStore := newTestRecorder()
	h := handlers.NewUsersHandler(repo, rec)

	r := setupRouter(http.MethodDelete, "/users/:id", []gin.HandlerFunc{adminActor("admin-1")}, h.Delete)
	w := doJSON(t, r, http.MethodDelete, "/users/u-2", "")

	mustStatus(t, w, http.StatusOK)

	if repo.deactivateCalls != 1 {
		t.Fatalf("expected one Deactivate call, got %d", repo.deactivateCalls)
	}

	if len(auditStore.entries) != 1 || auditStore.entries[0].Action != audit.ActionDelete {
		t.Fatalf("expected one DELETE audit entry, got %+v", auditStore.entries)
	}
}

func TestSelfUpdateCannotEscalateRole(t *testing.T) {
	repo := &fakeUsersRepo{}
	rec, _ := newTestRecorder()
	h := handlers.NewUsersHandler(repo, rec)

	actor := asActor(authz.Actor{UserID: "u-1", Role: user.RoleEmployee})

	body := `{"email": "new@example.com", "role": "admin", "isActive": true}`

	r := setupRouter(http.MethodPut, "/users/:id", []gin.HandlerFunc{actor}, h.Update)
	w := doJSON(t, r, http.MethodPut, "/users/u-1", body)

	mustStatus(t, w, http.StatusOK)

	if _, ok := repo.updatedFields["role"]; ok {
		t.Fatal("non-admin must not be able to change their role")
	}
	if _, ok := repo.updatedFields["is_active"]; ok {
		t.Fatal("non-admin must not be able to change is_active")
	}
	if repo.updatedFields["email"] != "new@example.com" {
		t.Fatalf("email should be applied, fields: %v", repo.updatedFields)
	}
}

func TestAdminCreateUserDefaultsRole(t *testing.T) {
	var gotRole string

	repo := &fakeUsersRepo{createFn: func(ctx context.Context, username, email, passwordHash, role string) (user.User, error) {
		gotRole = role
		return user.User{ID: "u-new", Username: username, Role: role}, nil
	}}

	rec, auditStore := newTestRecorder()
	h := handlers.NewUsersHandler(repo, rec)

	body := `{"username": "newbie", "email": "newbie@example.com", "password": "Abcdef12"}`

	r := setupRouter(http.MethodPost, "/users", []gin.HandlerFunc{adminActor("admin-1")}, h.Create)
	w := doJSON(t, r, http.MethodPost, "/users", body)

	mustStatus(t, w, http.StatusCreated)

	if gotRole != user.RoleEmployee {
		t.Fatalf("default role = %q, want employee", gotRole)
	}

	if len(auditStore.entries) != 1 || auditStore.entries[0].Action != audit.ActionCreate {
		t.Fatalf("expected one CREATE audit entry, got %+v", auditStore.entries)
	}
}
