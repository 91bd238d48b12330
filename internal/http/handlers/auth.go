package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/auth"
	"github.com/peopleops/hrhub/internal/config"
	"github.com/peopleops/hrhub/internal/domain/employee"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/repo/postgres"
	"github.com/peopleops/hrhub/internal/security"
)

type Registrar interface {
	Register(ctx context.Context, in postgres.RegisterInput) (user.User, employee.Employee, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (user.User, *auth.Claims, error)
}

type LoginStore interface {
	GetByLogin(ctx context.Context, username, email string) (user.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

type EmployeeResolver interface {
	GetByUserID(ctx context.Context, userID string) (employee.Employee, error)
}

type AuthHandler struct {
	users     LoginStore
	registrar Registrar
	employees EmployeeResolver
	jwt       *auth.Manager
	verifier  TokenVerifier
	recorder  *audit.Recorder
}

func NewAuthHandler(users LoginStore, registrar Registrar, employees EmployeeResolver, jwtManager *auth.Manager, verifier TokenVerifier, recorder *audit.Recorder) *AuthHandler {
	return &AuthHandler{
		users:     users,
		registrar: registrar,
		employees: employees,
		jwt:       jwtManager,
		verifier:  verifier,
		recorder:  recorder,
	}
}

// Register is self-service signup: it creates the user and its linked
// employee record together and issues a token right away.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidatePassword(req.Password); err != nil {
		RespondError(ctx, http.StatusBadRequest, "weak_password", err.Error(), nil)
		return
	}

	if !employee.ValidPhone(req.Phone) {
		RespondBadRequest(ctx, "Invalid phone number format", gin.H{
			"fields": []FieldError{{Field: "phone", Rule: "phone", Message: "must be a valid local phone number"}},
		})
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	u, emp, err := h.registrar.Register(cctx, postgres.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IDNumber:     req.IDNumber,
		Phone:        req.Phone,
	})

	if err != nil {
		switch {
		case errors.Is(err, user.ErrConflict):
			RespondConflict(ctx, "username_or_email_taken", "Username or email is already in use.")
		case errors.Is(err, employee.ErrConflict):
			RespondConflict(ctx, "id_number_taken", "An employee with this ID number already exists.")
		default:
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	token, expiresAt, err := h.jwt.Mint(u, emp.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    u.ID,
		Action:     audit.ActionRegister,
		EntityType: "user",
		EntityID:   u.ID,
		NewValues:  gin.H{"username": u.Username, "email": u.Email, "role": u.Role, "employeeNumber": emp.EmployeeNumber},
		IPAddress:  ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
	})

	ctx.JSON(http.StatusCreated, gin.H{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      u,
		"employee":  emp,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByLogin(cctx, req.Username, req.Email)
	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Username or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Username or password is incorrect.")
		return
	}

	employeeID := ""

	emp, err := h.employees.GetByUserID(cctx, foundUser.ID)
	if err == nil {
		employeeID = emp.ID
	} else if !errors.Is(err, employee.ErrNotFound) {
		RespondInternal(ctx, "Could not complete login")
		return
	}

	token, expiresAt, err := h.jwt.Mint(foundUser, employeeID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	if err := h.users.UpdateLastLogin(cctx, foundUser.ID); err != nil {
		// not worth failing the login over
		slog.Default().WarnContext(ctx.Request.Context(), "last_login update failed", "err", err)
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    foundUser.ID,
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   foundUser.ID,
		IPAddress:  ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
	})

	resp := gin.H{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      foundUser,
	}

	if employeeID != "" {
		resp["employee"] = emp
	}

	ctx.JSON(http.StatusOK, resp)
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Verify re-validates a token and confirms the account behind it is still
// active. The token comes from the Authorization header, or the body as a
// fallback for clients that can't set headers.
func (h *AuthHandler) Verify(ctx *gin.Context) {
	raw := ""

	if authHeader := ctx.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		raw = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	}

	if raw == "" {
		var req verifyRequest
		if err := ctx.ShouldBindJSON(&req); err == nil {
			raw = req.Token
		}
	}

	if raw == "" {
		RespondUnauthorized(ctx, "missing_token", "No token provided")
		return
	}

	u, claims, err := h.verifier.Verify(ctx.Request.Context(), raw)

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserInactive):
			RespondUnauthorized(ctx, "user_inactive", "Account is deactivated")
		case errors.Is(err, auth.ErrInvalidToken):
			RespondUnauthorized(ctx, "invalid_token", "Invalid or expired token")
		default:
			// store outage, not a bad token
			RespondInternal(ctx, "Could not verify token")
		}
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	ctx.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"user":       u,
		"employeeId": claims.EmployeeID,
		"expiresAt":  expiresAt,
	})
}
