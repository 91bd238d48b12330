package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/auth"
	"github.com/peopleops/hrhub/internal/domain/employee"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/http/handlers"
	"github.com/peopleops/hrhub/internal/repo/postgres"
	"github.com/peopleops/hrhub/internal/security"
)

type fakeLoginStore struct {
	getByLoginFn    func(ctx context.Context, username, email string) (user.User, error)
	lastLoginCalls  int
	lastLoginUserID string
}

func (f *fakeLoginStore) GetByLogin(ctx context.Context, username, email string) (user.User, error) {
	if f.getByLoginFn != nil {
		return f.getByLoginFn(ctx, username, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeLoginStore) UpdateLastLogin(ctx context.Context, id string) error {
	f.lastLoginCalls++
	f.lastLoginUserID = id
	return nil
}

type fakeRegistrar struct {
	registerFn func(ctx context.Context, in postgres.RegisterInput) (user.User, employee.Employee, error)
}

func (f *fakeRegistrar) Register(ctx context.Context, in postgres.RegisterInput) (user.User, employee.Employee, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return user.User{}, employee.Employee{}, nil
}

type fakeEmployeeResolver struct {
	getByUserIDFn func(ctx context.Context, userID string) (employee.Employee, error)
}

func (f *fakeEmployeeResolver) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	if f.getByUserIDFn != nil {
		return f.getByUserIDFn(ctx, userID)
	}
	return employee.Employee{}, employee.ErrNotFound
}

func newAuthHandler(users *fakeLoginStore, registrar *fakeRegistrar, employees *fakeEmployeeResolver) (*handlers.AuthHandler, *fakeAuditStore) {
	mgr := auth.NewManager("test-secret", time.Hour)
	verifier := auth.NewVerifier(mgr, userSourceFunc(func(ctx context.Context, id string) (user.User, error) {
		return user.User{}, user.ErrNotFound
	}))

	rec, store := newTestRecorder()

	return handlers.NewAuthHandler(users, registrar, employees, mgr, verifier, rec), store
}

type userSourceFunc func(ctx context.Context, id string) (user.User, error)

func (f userSourceFunc) GetByID(ctx context.Context, id string) (user.User, error) {
	return f(ctx, id)
}

const registerBody = `{
	"username": "jdoe",
	"email": "jdoe@example.com",
	"password": "Sup3rSecret",
	"confirmPassword": "Sup3rSecret",
	"firstName": "Jane",
	"lastName": "Doe",
	"idNumber": "123456789",
	"phone": "03-1234567"
}`

func TestRegisterSuccess(t *testing.T) {
	registrar := &fakeRegistrar{registerFn: func(ctx context.Context, in postgres.RegisterInput) (user.User, employee.Employee, error) {
		if in.PasswordHash == "Sup3rSecret" {
			t.Fatal("password must be hashed before it reaches the store")
		}
		return user.User{ID: "u-1", Username: in.Username, Email: in.Email, Role: user.RoleEmployee, IsActive: true},
			employee.Employee{ID: "e-1", EmployeeNumber: "2026001", FirstName: in.FirstName, LastName: in.LastName},
			nil
	}}

	h, auditStore := newAuthHandler(&fakeLoginStore{}, registrar, &fakeEmployeeResolver{})

	r := setupRouter(http.MethodPost, "/auth/register", nil, h.Register)
	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody)

	mustStatus(t, w, http.StatusCreated)

	body := decodeBody(t, w)

	if body["token"] == nil || body["token"] == "" {
		t.Fatal("expected a token in the response")
	}

	if len(auditStore.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditStore.entries))
	}

	entry := auditStore.entries[0]

	if entry.Action != audit.ActionRegister {
		t.Fatalf("audit action = %q, want REGISTER", entry.Action)
	}

	if entry.ActorID != "u-1" || entry.EntityID != "u-1" {
		t.Fatalf("audit entry references wrong user: %+v", entry)
	}

	if entry.IPAddress == "" {
		t.Fatal("register audit must carry the client IP")
	}
}

func TestRegisterDuplicateIsConflictAndNotAudited(t *testing.T) {
	registrar := &fakeRegistrar{registerFn: func(ctx context.Context, in postgres.RegisterInput) (user.User, employee.Employee, error) {
		return user.User{}, employee.Employee{}, user.ErrConflict
	}}

	h, auditStore := newAuthHandler(&fakeLoginStore{}, registrar, &fakeEmployeeResolver{})

	r := setupRouter(http.MethodPost, "/auth/register", nil, h.Register)
	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody)

	mustStatus(t, w, http.StatusConflict)

	if code := errorCode(t, w); code != "username_or_email_taken" {
		t.Fatalf("error code = %q", code)
	}

	if len(auditStore.entries) != 0 {
		t.Fatalf("failed registration must not be audited, got %d entries", len(auditStore.entries))
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	h, auditStore := newAuthHandler(&fakeLoginStore{}, &fakeRegistrar{}, &fakeEmployeeResolver{})

	body := `{
		"username": "jdoe",
		"email": "jdoe@example.com",
		"password": "alllowercase1",
		"confirmPassword": "alllowercase1",
		"firstName": "Jane",
		"lastName": "Doe",
		"idNumber": "123456789",
		"phone": "03-1234567"
	}`

	r := setupRouter(http.MethodPost, "/auth/register", nil, h.Register)
	w := doJSON(t, r, http.MethodPost, "/auth/register", body)

	mustStatus(t, w, http.StatusBadRequest)

	if code := errorCode(t, w); code != "weak_password" {
		t.Fatalf("error code = %q", code)
	}

	if len(auditStore.entries) != 0 {
		t.Fatal("rejected registration must not be audited")
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := security.HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatal(err)
	}

	users := &fakeLoginStore{getByLoginFn: func(ctx context.Context, username, email string) (user.User, error) {
		if username != "jdoe" {
			return user.User{}, user.ErrNotFound
		}
		return user.User{ID: "u-1", Username: "jdoe", Email: "jdoe@example.com", PasswordHash: hash, Role: user.RoleEmployee, IsActive: true}, nil
	}}

	employees := &fakeEmployeeResolver{getByUserIDFn: func(ctx context.Context, userID string) (employee.Employee, error) {
		return employee.Employee{ID: "e-1"}, nil
	}}

	h, auditStore := newAuthHandler(users, &fakeRegistrar{}, employees)

	r := setupRouter(http.MethodPost, "/auth/login", nil, h.Login)
	w := doJSON(t, r, http.MethodPost, "/auth/login", `{"username": "jdoe", "password": "Sup3rSecret"}`)

	mustStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)

	if body["token"] == nil || body["token"] == "" {
		t.Fatal("expected a token in the response")
	}

	if users.lastLoginCalls != 1 || users.lastLoginUserID != "u-1" {
		t.Fatalf("last_login should be updated exactly once for u-1, got %d calls for %q", users.lastLoginCalls, users.lastLoginUserID)
	}

	if len(auditStore.entries) != 1 || auditStore.entries[0].Action != audit.ActionLogin {
		t.Fatalf("expected one LOGIN audit entry, got %+v", auditStore.entries)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := security.HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatal(err)
	}

	users := &fakeLoginStore{getByLoginFn: func(ctx context.Context, username, email string) (user.User, error) {
		return user.User{ID: "u-1", Username: "jdoe", PasswordHash: hash, Role: user.RoleEmployee, IsActive: true}, nil
	}}

	h, auditStore := newAuthHandler(users, &fakeRegistrar{}, &fakeEmployeeResolver{})

	r := setupRouter(http.MethodPost, "/auth/login", nil, h.Login)
	w := doJSON(t, r, http.MethodPost, "/auth/login", `{"username": "jdoe", "password": "wrong"}`)

	mustStatus(t, w, http.StatusUnauthorized)

	if code := errorCode(t, w); code != "invalid_credentials" {
		t.Fatalf("error code = %q", code)
	}

	body := decodeBody(t, w)
	if _, ok := body["token"]; ok {
		t.Fatal("failed login must not return a token")
	}

	if users.lastLoginCalls != 0 {
		t.Fatal("failed login must not touch last_login")
	}

	if len(auditStore.entries) != 0 {
		t.Fatal("failed login must not be audited")
	}
}

func TestLoginUnknownUserLooksLikeBadCredentials(t *testing.T) {
	h, _ := newAuthHandler(&fakeLoginStore{}, &fakeRegistrar{}, &fakeEmployeeResolver{})

	r := setupRouter(http.MethodPost, "/auth/login", nil, h.Login)
	w := doJSON(t, r, http.MethodPost, "/auth/login", `{"username": "nobody", "password": "whatever"}`)

	mustStatus(t, w, http.StatusUnauthorized)

	if code := errorCode(t, w); code != "invalid_credentials" {
		t.Fatalf("error code = %q", code)
	}
}

func TestVerifyStoreOutageIsNotABadToken(t *testing.T) {
	mgr := auth.NewManager("test-secret", time.Hour)
	verifier := auth.NewVerifier(mgr, userSourceFunc(func(ctx context.Context, id string) (user.User, error) {
		return user.User{}, errors.New("connection refused")
	}))

	rec, _ := newTestRecorder()
	h := handlers.NewAuthHandler(&fakeLoginStore{}, &fakeRegistrar{}, &fakeEmployeeResolver{}, mgr, verifier, rec)

	token, _, err := mgr.Mint(user.User{ID: "u-1", Role: user.RoleEmployee, IsActive: true}, "")
	if err != nil {
		t.Fatal(err)
	}

	r := setupRouter(http.MethodPost, "/auth/verify", nil, h.Verify)
	w := doJSON(t, r, http.MethodPost, "/auth/verify", `{"token": "`+token+`"}`)

	mustStatus(t, w, http.StatusInternalServerError)

	if code := errorCode(t, w); code != "internal_error" {
		t.Fatalf("error code = %q, a store failure must not read as a bad token", code)
	}
}

func TestVerifyRejectsMissingToken(t *testing.T) {
	h, _ := newAuthHandler(&fakeLoginStore{}, &fakeRegistrar{}, &fakeEmployeeResolver{})

	r := setupRouter(http.MethodPost, "/auth/verify", nil, h.Verify)
	w := doJSON(t, r, http.MethodPost, "/auth/verify", `{}`)

	mustStatus(t, w, http.StatusUnauthorized)

	if code := errorCode(t, w); code != "missing_token" {
		t.Fatalf("error code = %q", code)
	}
}
