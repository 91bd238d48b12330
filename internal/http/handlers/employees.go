package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/config"
	"github.com/peopleops/hrhub/internal/domain/employee"
	"github.com/peopleops/hrhub/internal/http/middlewares"
)

type EmployeesStore interface {
	GetByID(ctx context.Context, id string) (employee.Employee, error)
	GetByUserID(ctx context.Context, userID string) (employee.Employee, error)
	List(ctx context.Context, f employee.ListEmployeesFilter) ([]employee.Employee, int, error)
	ExistsByNumberOrIDNumber(ctx context.Context, employeeNumber, idNumber string) (bool, error)
	Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.Employee, error)
	Update(ctx context.Context, id string, fields map[string]any) (employee.Employee, error)
	Terminate(ctx context.Context, id string) (employee.Employee, error)
}

type EmployeesHandler struct {
	store    EmployeesStore
	recorder *audit.Recorder
}

func NewEmployeesHandler(store EmployeesStore, recorder *audit.Recorder) *EmployeesHandler {
	return &EmployeesHandler{store: store, recorder: recorder}
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pagination(ctx *gin.Context) (limit, offset int) {
	limit = defaultPageSize

	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if v, err := strconv.Atoi(ctx.Query("offset")); err == nil && v > 0 {
		offset = v
	}

	return
}

func optQuery(ctx *gin.Context, key string) *string {
	if v := ctx.Query(key); v != "" {
		return &v
	}
	return nil
}

// List returns the employee directory for managers, or just the caller's
// own record for everyone else.
func (h *EmployeesHandler) List(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	d := authz.Decide(actor, authz.ActionList, authz.ResourceEmployees, "")
	if d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if d.OwnOnly {
		emp, err := h.store.GetByUserID(cctx, actor.UserID)

		if err != nil {
			if errors.Is(err, employee.ErrNotFound) {
				ctx.JSON(http.StatusOK, gin.H{"employees": []employee.Employee{}, "total": 0})
				return
			}
			RespondInternal(ctx, "Could not list employees")
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"employees": []employee.Employee{emp}, "total": 1})
		return
	}

	limit, offset := pagination(ctx)

	list, total, err := h.store.List(cctx, employee.ListEmployeesFilter{
		Department:     optQuery(ctx, "department"),
		Status:         optQuery(ctx, "status"),
		EmploymentType: optQuery(ctx, "employmentType"),
		Limit:          limit,
		Offset:         offset,
	})

	if err != nil {
		RespondInternal(ctx, "Could not list employees")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"employees": list, "total": total})
}

func (h *EmployeesHandler) Get(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	emp, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "Employee not found")
			return
		}
		RespondInternal(ctx, "Could not load employee")
		return
	}

	owner := ""
	if emp.UserID != nil {
		owner = *emp.UserID
	}

	if d := authz.Decide(actor, authz.ActionRead, authz.ResourceEmployees, owner); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"employee": emp})
}

func (h *EmployeesHandler) Create(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	if d := authz.Decide(actor, authz.ActionCreate, authz.ResourceEmployees, ""); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	var req employee.CreateEmployeeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !employee.ValidPhone(req.Phone) {
		RespondBadRequest(ctx, "Invalid phone number format", gin.H{
			"fields": []FieldError{{Field: "phone", Rule: "phone", Message: "must be a valid local phone number"}},
		})
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	taken, err := h.store.ExistsByNumberOrIDNumber(cctx, req.EmployeeNumber, req.IDNumber)

	if err != nil {
		RespondInternal(ctx, "Could not create employee")
		return
	}

	if taken {
		RespondConflict(ctx, "employee_exists", "An employee with this number or ID number already exists.")
		return
	}

	emp, err := h.store.Create(cctx, req)

	if err != nil {
		if errors.Is(err, employee.ErrConflict) {
			RespondConflict(ctx, "employee_exists", "An employee with this number or ID number already exists.")
			return
		}
		RespondInternal(ctx, "Could not create employee")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionCreate,
		EntityType: "employee",
		EntityID:   emp.ID,
		NewValues:  emp,
	})

	ctx.JSON(http.StatusCreated, gin.H{"employee": emp})
}

// Update applies the role-scoped field allow-list: managers may change
// anything, owners only their contact details. Disallowed fields are
// dropped silently, matching how self-service forms submit full payloads.
func (h *EmployeesHandler) Update(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	old, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "Employee not found")
			return
		}
		RespondInternal(ctx, "Could not update employee")
		return
	}

	owner := ""
	if old.UserID != nil {
		owner = *old.UserID
	}

	if d := authz.Decide(actor, authz.ActionUpdate, authz.ResourceEmployees, owner); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	var req employee.UpdateEmployeeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Phone != nil && !employee.ValidPhone(*req.Phone) {
		RespondBadRequest(ctx, "Invalid phone number format", gin.H{
			"fields": []FieldError{{Field: "phone", Rule: "phone", Message: "must be a valid local phone number"}},
		})
		return
	}

	fields := authz.FilterEmployeeFields(actor.Role, req.Fields())

	if len(fields) == 0 {
		RespondBadRequest(ctx, "No updatable fields in request", nil)
		return
	}

	updated, err := h.store.Update(cctx, id, fields)

	if err != nil {
		switch {
		case errors.Is(err, employee.ErrNotFound):
			RespondNotFound(ctx, "Employee not found")
		case errors.Is(err, employee.ErrConflict):
			RespondConflict(ctx, "employee_exists", "An employee with this number or ID number already exists.")
		default:
			RespondInternal(ctx, "Could not update employee")
		}
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionUpdate,
		EntityType: "employee",
		EntityID:   updated.ID,
		OldValues:  old,
		NewValues:  updated,
	})

	ctx.JSON(http.StatusOK, gin.H{"employee": updated})
}

// Delete terminates the employee and deactivates the linked account.
// Nothing is removed from the table.
func (h *EmployeesHandler) Delete(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)
	id := ctx.Param("id")

	if d := authz.Decide(actor, authz.ActionDelete, authz.ResourceEmployees, ""); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	old, err := h.store.Terminate(cctx, id)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "Employee not found")
			return
		}
		RespondInternal(ctx, "Could not terminate employee")
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionDelete,
		EntityType: "employee",
		EntityID:   old.ID,
		OldValues:  gin.H{"status": old.Status, "endDate": old.EndDate},
		NewValues:  gin.H{"status": employee.StatusTerminated},
	})

	ctx.JSON(http.StatusOK, gin.H{"terminated": true, "employeeId": old.ID})
}
