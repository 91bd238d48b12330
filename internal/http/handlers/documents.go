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
	"github.com/peopleops/hrhub/internal/domain/document"
	"github.com/peopleops/hrhub/internal/domain/user"
	"github.com/peopleops/hrhub/internal/http/middlewares"
	"github.com/peopleops/hrhub/internal/repo/postgres"
)

type DocumentsStore interface {
	GetByID(ctx context.Context, id string) (postgres.DocumentWithOwner, error)
	List(ctx context.Context, f document.ListDocumentsFilter, ownUserID *string) ([]postgres.DocumentWithOwner, int, error)
	Create(ctx context.Context, req document.CreateDocumentRequest, uploadedBy string) (document.Document, error)
	Update(ctx context.Context, id string, req document.UpdateDocumentRequest) (document.Document, error)
	Archive(ctx context.Context, id string) error
}

type DocumentsHandler struct {
	store    DocumentsStore
	recorder *audit.Recorder
}

func NewDocumentsHandler(store DocumentsStore, recorder *audit.Recorder) *DocumentsHandler {
	return &DocumentsHandler{store: store, recorder: recorder}
}

func ownerOf(d postgres.DocumentWithOwner) string {
	if d.OwnerUserID == nil {
		return ""
	}
	return *d.OwnerUserID
}

func (h *DocumentsHandler) List(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	d := authz.Decide(actor, authz.ActionList, authz.ResourceDocuments, "")
	if d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	var ownUserID *string
	if d.OwnOnly {
		ownUserID = &actor.UserID
	}

	limit, offset := pagination(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	list, total, err := h.store.List(cctx, document.ListDocumentsFilter{
		EmployeeID:   optQuery(ctx, "employeeId"),
		DocumentType: optQuery(ctx, "documentType"),
		Status:       optQuery(ctx, "status"),
		Limit:        limit,
		Offset:       offset,
	}, ownUserID)

	if err != nil {
		RespondInternal(ctx, "Could not list documents")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"documents": list, "total": total})
}

func (h *DocumentsHandler) Get(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	doc, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			RespondNotFound(ctx, "Document not found")
			return
		}
		RespondInternal(ctx, "Could not load document")
		return
	}

	// public documents are readable by any authenticated user
	if doc.Visibility != document.VisibilityPublic {
		if d := authz.Decide(actor, authz.ActionRead, authz.ResourceDocuments, ownerOf(doc)); d.Deny() {
			RespondDenied(ctx, d)
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"document": doc.Document})
}

// Create records document metadata. Employees can only attach documents to
// their own record; the target employee id is pinned server-side.
func (h *DocumentsHandler) Create(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	if d := authz.Decide(actor, authz.ActionCreate, authz.ResourceDocuments, ""); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	var req document.CreateDocumentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if actor.Role == user.RoleEmployee {
		if actor.EmployeeID == "" {
			RespondBadRequest(ctx, "No employee record linked to this account", nil)
			return
		}
		req.EmployeeID = &actor.EmployeeID
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	doc, err := h.store.Create(cctx, req, actor.UserID)

	if err != nil {
		RespondInternal(ctx, "Could not create document")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionCreate,
		EntityType: "document",
		EntityID:   doc.ID,
		NewValues:  doc,
	})

	ctx.JSON(http.StatusCreated, gin.H{"document": doc})
}

// Update edits document metadata. Managers may edit any document; an
// employee only those attached to their own record (or to none).
func (h *DocumentsHandler) Update(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	var req document.UpdateDocumentRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	old, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			RespondNotFound(ctx, "Document not found")
			return
		}
		RespondInternal(ctx, "Could not update document")
		return
	}

	if d := authz.Decide(actor, authz.ActionUpdate, authz.ResourceDocuments, ownerOf(old)); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	updated, err := h.store.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			RespondNotFound(ctx, "Document not found")
			return
		}
		RespondInternal(ctx, "Could not update document")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionUpdate,
		EntityType: "document",
		EntityID:   updated.ID,
		OldValues:  old.Document,
		NewValues:  updated,
	})

	ctx.JSON(http.StatusOK, gin.H{"document": updated})
}

// Delete archives the document, it is never removed from the table. The
// same ownership rule as Update applies.
func (h *DocumentsHandler) Delete(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	old, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			RespondNotFound(ctx, "Document not found")
			return
		}
		RespondInternal(ctx, "Could not delete document")
		return
	}

	if d := authz.Decide(actor, authz.ActionDelete, authz.ResourceDocuments, ownerOf(old)); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	if err := h.store.Archive(cctx, id); err != nil {
		if errors.Is(err, document.ErrNotFound) {
			RespondNotFound(ctx, "Document not found")
			return
		}
		RespondInternal(ctx, "Could not delete document")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionDelete,
		EntityType: "document",
		EntityID:   id,
		OldValues:  old.Document,
	})

	ctx.JSON(http.StatusOK, gin.H{"deleted": true, "documentId": id})
}
