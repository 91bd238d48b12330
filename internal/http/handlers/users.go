package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/config"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/http/middlewares"
	"github.com/peopleops/hrhub/internal/repo/postgres"
	"github.com/peopleops/hrhub/internal/security"
)

type UsersStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]postgres.UserListItem, error)
	Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error)
	Update(ctx context.Context, id string, fields map[string]any) (user.User, error)
	Deactivate(ctx context.Context, id string) (user.User, error)
}

type UsersHandler struct {
	store    UsersStore
	recorder *audit.Recorder
}

func NewUsersHandler(store UsersStore, recorder *audit.Recorder) *UsersHandler {
	return &UsersHandler{store: store, recorder: recorder}
}

func (h *UsersHandler) List(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	if d := authz.Decide(actor, authz.ActionList, authz.ResourceUsers, ""); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.store.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": items, "count": len(items)})
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	if d := authz.Decide(actor, authz.ActionCreate, authz.ResourceUsers, ""); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidatePassword(req.Password); err != nil {
		RespondError(ctx, http.StatusBadRequest, "weak_password", err.Error(), nil)
		return
	}

	role := req.Role
	if role == "" {
		role = user.RoleEmployee
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.Create(cctx, req.Username, req.Email, hash, role)

	if err != nil {
		if errors.Is(err, user.ErrConflict) {
			RespondConflict(ctx, "username_or_email_taken", "Username or email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionCreate,
		EntityType: "user",
		EntityID:   u.ID,
		NewValues:  gin.H{"username": u.Username, "email": u.Email, "role": u.Role},
	})

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	if d := authz.Decide(actor, authz.ActionUpdate, authz.ResourceUsers, id); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	old, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user")
		return
	}

	fields := map[string]any{}

	if actor.Role == user.RoleAdmin {
		if req.Username != nil {
			fields["username"] = *req.Username
		}
		if req.Role != nil {
			fields["role"] = *req.Role
		}
		if req.IsActive != nil {
			fields["is_active"] = *req.IsActive
		}
	}

	// email and password may be changed by the account owner too
	if req.Email != nil {
		fields["email"] = *req.Email
	}

	if req.Password != nil {
		if err := security.ValidatePassword(*req.Password); err != nil {
			RespondError(ctx, http.StatusBadRequest, "weak_password", err.Error(), nil)
			return
		}

		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}

		fields["password_hash"] = hash
	}

	if len(fields) == 0 {
		RespondBadRequest(ctx, "No updatable fields in request", nil)
		return
	}

	updated, err := h.store.Update(cctx, id, fields)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrConflict):
			RespondConflict(ctx, "username_or_email_taken", "Username or email is already in use.")
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionUpdate,
		EntityType: "user",
		EntityID:   updated.ID,
		OldValues:  gin.H{"username": old.Username, "email": old.Email, "role": old.Role, "isActive": old.IsActive},
		NewValues:  gin.H{"username": updated.Username, "email": updated.Email, "role": updated.Role, "isActive": updated.IsActive},
	})

	ctx.JSON(http.StatusOK, gin.H{"user": updated})
}

// Delete deactivates an account; user rows are never removed so the audit
// trail keeps a valid actor reference.
func (h *UsersHandler) Delete(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	if d := authz.Decide(actor, authz.ActionDelete, authz.ResourceUsers, id); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	old, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	u, err := h.store.Deactivate(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionDelete,
		EntityType: "user",
		EntityID:   u.ID,
		OldValues:  gin.H{"username": old.Username, "email": old.Email, "isActive": old.IsActive},
		NewValues:  gin.H{"isActive": false},
	})

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
