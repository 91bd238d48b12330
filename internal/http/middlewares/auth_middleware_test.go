package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/auth"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(ctx context.Context, token string) (user.User, *auth.Claims, error)
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (user.User, *auth.Claims, error) {
	if f.verifyFn != nil {
		return f.verifyFn(ctx, token)
	}
	return user.User{}, nil, auth.ErrInvalidToken
}

func requireAuthRouter(v middlewares.TokenVerifier) *gin.Engine {
	r := gin.New()

	mw := middlewares.NewAuthMiddleware(v)

	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		actor, ok := middlewares.ActorFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"err": "no actor"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": actor.UserID, "role": actor.Role})
	})

	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingHeader(t *testing.T) {
	r := requireAuthRouter(&fakeVerifier{})

	w := get(r, "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequireAuthBadToken(t *testing.T) {
	r := requireAuthRouter(&fakeVerifier{})

	w := get(r, "Bearer not-a-token")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequireAuthStashesActor(t *testing.T) {
	v := &fakeVerifier{verifyFn: func(ctx context.Context, token string) (user.User, *auth.Claims, error) {
		if token != "good-token" {
			return user.User{}, nil, auth.ErrInvalidToken
		}

		u := user.User{ID: "u-1", Role: user.RoleHRManager, IsActive: true}
		claims := &auth.Claims{UserID: "u-1", Role: user.RoleHRManager, EmployeeID: "e-1"}

		return u, claims, nil
	}}

	r := requireAuthRouter(v)

	w := get(r, "Bearer good-token")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestRequireAuthStoreOutageIsAnInternalError(t *testing.T) {
	v := &fakeVerifier{verifyFn: func(ctx context.Context, token string) (user.User, *auth.Claims, error) {
		return user.User{}, nil, errors.New("connection refused")
	}}

	r := requireAuthRouter(v)

	w := get(r, "Bearer some-token")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, a store failure must not read as a bad token", w.Code)
	}
}

func TestRequireAuthRejectsInactiveUser(t *testing.T) {
	v := &fakeVerifier{verifyFn: func(ctx context.Context, token string) (user.User, *auth.Claims, error) {
		return user.User{}, nil, auth.ErrUserInactive
	}}

	r := requireAuthRouter(v)

	w := get(r, "Bearer was-valid-once")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}
