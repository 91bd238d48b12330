package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/cache"
	"github.com/peopleops/hrhub/internal/config"
	"github.com/peopleops/hrhub/internal/http/middlewares"
	"github.com/peopleops/hrhub/internal/repo/postgres"
)

type ReportsStore interface {
	EmployeesSummary(ctx context.Context) (postgres.EmployeesSummary, error)
	EmployeesDetailed(ctx context.Context, f postgres.EmployeesDetailedFilter) ([]postgres.DetailedEmployeeRow, error)
	DocumentsSummary(ctx context.Context) (postgres.DocumentsSummary, error)
	DashboardStats(ctx context.Context) (postgres.DashboardStats, error)
	RunReadOnly(ctx context.Context, query string) (postgres.QueryResult, error)
}

type AuditReader interface {
	List(ctx context.Context, f audit.ListFilter) ([]audit.Entry, error)
}

type ReportsHandler struct {
	store     ReportsStore
	auditLogs AuditReader
	cache     *cache.Cache
	recorder  *audit.Recorder
}

func NewReportsHandler(store ReportsStore, auditLogs AuditReader, statsCache *cache.Cache, recorder *audit.Recorder) *ReportsHandler {
	return &ReportsHandler{
		store:     store,
		auditLogs: auditLogs,
		cache:     statsCache,
		recorder:  recorder,
	}
}

const dashboardStatsKey = "reports:dashboard_stats"

// Get serves the canned reports, selected by the type query parameter.
func (h *ReportsHandler) Get(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	if d := authz.Decide(actor, authz.ActionReport, authz.ResourceReports, ""); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	reportType := ctx.Query("type")

	switch reportType {
	case "employees_summary":
		s, err := h.store.EmployeesSummary(cctx)
		if err != nil {
			RespondInternal(ctx, "Could not build report")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"type": reportType, "report": s})

	case "documents_summary":
		s, err := h.store.DocumentsSummary(cctx)
		if err != nil {
			RespondInternal(ctx, "Could not build report")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"type": reportType, "report": s})

	case "dashboard_stats":
		if v, ok := h.cache.Get(dashboardStatsKey); ok {
			ctx.JSON(http.StatusOK, gin.H{"type": reportType, "report": v, "cached": true})
			return
		}

		s, err := h.store.DashboardStats(cctx)
		if err != nil {
			RespondInternal(ctx, "Could not build report")
			return
		}

		h.cache.Set(dashboardStatsKey, s)

		ctx.JSON(http.StatusOK, gin.H{"type": reportType, "report": s})

	case "employees_detailed":
		h.employeesDetailed(ctx, cctx)

	case "system_activity":
		h.systemActivity(ctx, cctx)

	default:
		RespondBadRequest(ctx, "Unknown report type", gin.H{
			"types": []string{"employees_summary", "employees_detailed", "documents_summary", "dashboard_stats", "system_activity"},
		})
	}
}

func (h *ReportsHandler) employeesDetailed(ctx *gin.Context, cctx context.Context) {
	f := postgres.EmployeesDetailedFilter{
		Department:     optQuery(ctx, "department"),
		Status:         optQuery(ctx, "status"),
		EmploymentType: optQuery(ctx, "employmentType"),
	}

	if v := ctx.Query("startedFrom"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			RespondBadRequest(ctx, "startedFrom must be a YYYY-MM-DD date", nil)
			return
		}
		f.StartedFrom = &t
	}

	if v := ctx.Query("startedTo"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			RespondBadRequest(ctx, "startedTo must be a YYYY-MM-DD date", nil)
			return
		}
		f.StartedTo = &t
	}

	rows, err := h.store.EmployeesDetailed(cctx, f)

	if err != nil {
		RespondInternal(ctx, "Could not build report")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"type": "employees_detailed", "employees": rows, "count": len(rows)})
}

func (h *ReportsHandler) systemActivity(ctx *gin.Context, cctx context.Context) {
	f := audit.ListFilter{Limit: 100}

	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 && v <= 1000 {
		f.Limit = v
	}

	if v := ctx.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			RespondBadRequest(ctx, "from must be an RFC3339 timestamp", nil)
			return
		}
		f.From = &t
	}

	if v := ctx.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			RespondBadRequest(ctx, "to must be an RFC3339 timestamp", nil)
			return
		}
		f.To = &t
	}

	if v := ctx.Query("action"); v != "" {
		f.Action = &v
	}

	entries, err := h.auditLogs.List(cctx, f)

	if err != nil {
		RespondInternal(ctx, "Could not build report")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"type": "system_activity", "entries": entries, "count": len(entries)})
}

type adHocQueryRequest struct {
	Query string `json:"query" binding:"required,min=1"`
}

// Query runs an ad-hoc read-only query. Admin only, and the statement is
// rejected before execution unless it is a plain SELECT. Every run is
// audited with the query text.
func (h *ReportsHandler) Query(ctx *gin.Context) {
	actor, _ := middlewares.ActorFromContext(ctx)

	if d := authz.Decide(actor, authz.ActionQuery, authz.ResourceReports, ""); d.Deny() {
		RespondDenied(ctx, d)
		return
	}

	var req adHocQueryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !authz.IsReadOnlyQuery(req.Query) {
		RespondError(ctx, http.StatusBadRequest, "query_not_allowed", "Only SELECT queries are allowed", nil)
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	result, err := h.store.RunReadOnly(cctx, req.Query)

	if err != nil {
		RespondBadRequest(ctx, "Query failed", nil)
		return
	}

	h.recorder.Record(ctx.Request.Context(), audit.Entry{
		ActorID:    actor.UserID,
		Action:     audit.ActionCustomQuery,
		EntityType: "report",
		NewValues:  gin.H{"query": req.Query, "rows": result.Count},
		IPAddress:  ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
	})

	ctx.JSON(http.StatusOK, gin.H{"result": result})
}
