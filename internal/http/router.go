package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peopleops/hrhub/internal/audit"
	"github.com/peopleops/hrhub/internal/auth"
	"github.com/peopleops/hrhub/internal/authz"
	"github.com/peopleops/hrhub/internal/cache"
	"github.com/peopleops/hrhub/internal/config"
	"github.com/peopleops/hrhub/internal/http/handlers"
	"github.com/peopleops/hrhub/internal/http/middlewares"
	"github.com/peopleops/hrhub/internal/observability"
	"github.com/peopleops/hrhub/internal/redisclient"
	"github.com/peopleops/hrhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const dashboardStatsTTL = 30 * time.Second

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, redis *redisclient.Client, prom *observability.Prom, reg *prometheus.Registry, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(otelgin.Middleware("hrhub-api"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	employeesRepo := postgres.NewEmployeesRepo(pool, prom)
	documentsRepo := postgres.NewDocumentsRepo(pool, prom)
	auditLogsRepo := postgres.NewAuditLogsRepo(pool, prom)
	reportsRepo := postgres.NewReportsRepo(pool, prom)

	recorder := audit.NewRecorder(auditLogsRepo, log, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	verifier := auth.NewVerifier(jwtManager, usersRepo)
	authMw := middlewares.NewAuthMiddleware(verifier)

	// wire up handlers

	ping := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}
		return pool.Ping(ctx)
	}

	healthHandler := handlers.NewHealthHandler(ping)
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, employeesRepo, jwtManager, verifier, recorder)
	usersHandler := handlers.NewUsersHandler(usersRepo, recorder)
	employeesHandler := handlers.NewEmployeesHandler(employeesRepo, recorder)
	documentsHandler := handlers.NewDocumentsHandler(documentsRepo, recorder)
	reportsHandler := handlers.NewReportsHandler(reportsRepo, auditLogsRepo, cache.New(dashboardStatsTTL), recorder)

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// public auth routes, rate limited per IP

	loginLimiter := middlewares.NewRateLimiter(redis.Raw(), cfg.LoginRateLimit, cfg.LoginRateWindow)
	limited := loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP)

	r.POST("/auth/register", limited, authHandler.Register)
	r.POST("/auth/login", limited, authHandler.Login)
	r.POST("/auth/verify", authHandler.Verify)

	// everything else requires a valid token

	authed := r.Group("/", authMw.RequireAuth())

	authed.GET("/users", usersHandler.List)
	authed.POST("/users", usersHandler.Create)
	authed.PUT("/users/:id", usersHandler.Update)
	authed.DELETE("/users/:id", usersHandler.Delete)

	authed.GET("/employees", employeesHandler.List)
	authed.POST("/employees", employeesHandler.Create)
	authed.GET("/employees/:id", employeesHandler.Get)
	authed.PUT("/employees/:id", employeesHandler.Update)
	authed.DELETE("/employees/:id", employeesHandler.Delete)

	authed.GET("/documents", documentsHandler.List)
	authed.POST("/documents", documentsHandler.Create)
	authed.GET("/documents/:id", documentsHandler.Get)
	authed.PUT("/documents/:id", documentsHandler.Update)
	authed.DELETE("/documents/:id", documentsHandler.Delete)

	authed.GET("/reports", reportsHandler.Get)
	authed.POST("/reports/query", middlewares.Require(authz.ActionQuery, authz.ResourceReports), reportsHandler.Query)

	return r
}
