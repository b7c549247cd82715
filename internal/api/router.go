package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/gatherly/community-service/docs"
	"github.com/gatherly/community-service/internal/api/handler"
	"github.com/gatherly/community-service/internal/api/middleware"
	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

// RouterDeps carries everything the HTTP layer needs. Services are built in
// main so the router stays free of storage wiring.
type RouterDeps struct {
	JWTSecret  string
	Directory  ports.DirectoryService
	Membership ports.MembershipService
	Moderation ports.ModerationService
	Auth       ports.AuthService
	Authz      ports.Authorizer
	Audit      ports.AuditRepository
	DB         *mongo.Database
	Redis      *redis.Client
	Logger     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("community"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	eventHandler := handler.NewEventHandler(deps.Directory, deps.Membership, deps.Authz)
	reportHandler := handler.NewReportHandler(deps.Moderation)
	userHandler := handler.NewUserHandler(deps.Directory, deps.Audit)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret))

	v1.POST("/events", eventHandler.Create)
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.Get)
	v1.PUT("/events/:id", eventHandler.Update)
	v1.DELETE("/events/:id", eventHandler.Delete)
	v1.POST("/events/:id/join", eventHandler.Join)
	v1.DELETE("/events/:id/join", eventHandler.Leave)

	v1.POST("/reports", reportHandler.File)

	v1.GET("/users/:id", userHandler.Get)
	v1.PUT("/users/:id", userHandler.Update)
	v1.GET("/interests", userHandler.ListInterests)

	// Moderator routes. The gate resolves the role from the directory per
	// request; services re-check, so a stale token never grants access.
	mod := v1.Group("", middleware.RequireRole(deps.Authz, domain.RoleModerator))
	mod.POST("/events/:id/block", eventHandler.Block)
	mod.POST("/reports/:id/resolve", reportHandler.Resolve)
	mod.GET("/reports/pending", reportHandler.ListPending)
	mod.GET("/reports/resolved", reportHandler.ListResolved)

	// Admin routes.
	admin := v1.Group("/admin", middleware.RequireRole(deps.Authz, domain.RoleAdmin))
	admin.PUT("/users/:id/role", userHandler.ChangeRole)
	admin.POST("/users/:id/block", userHandler.Block)
	admin.DELETE("/users/:id/block", userHandler.Unblock)
	admin.GET("/audit", userHandler.AuditLog)

	return e
}
