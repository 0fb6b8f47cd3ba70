package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/access"
	"github.com/thetombrider/objectdms/internal/app"
	iauth "github.com/thetombrider/objectdms/internal/auth"
	"github.com/thetombrider/objectdms/internal/handlers"
	"github.com/thetombrider/objectdms/internal/middleware"
	"github.com/thetombrider/objectdms/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	roleSource, err := access.NewGormRoleSource(db)
	if err != nil {
		return nil, err
	}
	docIndex, err := access.NewGormDocumentIndex(db)
	if err != nil {
		return nil, err
	}
	engine, err := access.NewEngine(roleSource,
		access.WithResourceIndex(access.ResourceDocument, docIndex),
		access.WithAuditSink(auditSvc),
	)
	if err != nil {
		return nil, err
	}

	userSvc, err := services.NewUserService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	roleSvc, err := services.NewRoleService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	docSvc, err := services.NewDocumentService(db, engine, auditSvc)
	if err != nil {
		return nil, err
	}
	shareSvc, err := services.NewDocumentShareService(db, engine, auditSvc)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/api/health", healthHandler.Health)

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(userSvc, jwt)
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/auth/register", authHandler.Register)

	requireAuth := middleware.Auth(jwt, db)

	apiGroup := r.Group("/api")
	apiGroup.Use(requireAuth)

	apiGroup.GET("/auth/me", authHandler.Me)

	docHandler := handlers.NewDocumentHandler(docSvc, shareSvc)
	docs := apiGroup.Group("/documents")
	{
		docs.POST("", docHandler.Create)
		docs.GET("", docHandler.List)
		docs.GET("/shared-with-me", docHandler.SharedWithMe)
		docs.GET("/:id", docHandler.Get)
		docs.PATCH("/:id", docHandler.Update)
		docs.DELETE("/:id", docHandler.Delete)
		docs.POST("/:id/restore", docHandler.Restore)
		docs.PUT("/:id/tags", docHandler.SetTags)
		docs.GET("/:id/permissions", docHandler.MyPermissions)
		docs.GET("/:id/shares", docHandler.ListShares)
		docs.POST("/:id/share/:userID", docHandler.Share)
		docs.DELETE("/:id/share/:userID", docHandler.Unshare)
	}

	roleHandler := handlers.NewRoleHandler(roleSvc)
	roles := apiGroup.Group("/roles")
	roles.Use(middleware.RequireSuperuser())
	{
		roles.GET("", roleHandler.List)
		roles.GET("/:id", roleHandler.Get)
		roles.POST("", roleHandler.Create)
		roles.PATCH("/:id", roleHandler.Update)
		roles.DELETE("/:id", roleHandler.Delete)
		roles.PUT("/:id/permissions", roleHandler.SetPermissions)
	}

	userHandler := handlers.NewUserHandler(userSvc)
	users := apiGroup.Group("/users")
	users.Use(middleware.RequireSuperuser())
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.GET("/:id/roles", roleHandler.RolesForUser)
		users.POST("/:id/roles/:roleID", roleHandler.Assign)
		users.DELETE("/:id/roles/:roleID", roleHandler.Revoke)
	}

	auditHandler := handlers.NewAuditHandler(auditSvc)
	apiGroup.GET("/audit", middleware.RequireSuperuser(), auditHandler.List)

	return r, nil
}
