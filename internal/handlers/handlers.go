package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"userportal/api/internal/config"
	"userportal/api/internal/middleware"
	"userportal/api/internal/models"
	"userportal/api/internal/ratelimit"
	"userportal/api/internal/service"
	"userportal/api/internal/store"
)

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	authService  *service.AuthService
	statsService *service.StatsService
	users        store.UserStore
	flags        store.FlagStore
	cache        *redis.Client
	loginLimiter *ratelimit.Limiter
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	users store.UserStore,
	flags store.FlagStore,
	cache *redis.Client,
) HandlerSet {
	policy := service.PermissiveCredentials
	if cfg.Security.StrictCredentials {
		policy = service.StrictCredentials
	}

	var limiter *ratelimit.Limiter
	if cfg.Security.LoginRateLimit.Enabled {
		limiter = ratelimit.New(cache, "userportal:ratelimit:login",
			cfg.Security.LoginRateLimit.Max, cfg.Security.LoginRateLimit.Window)
	}

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		authService:  service.NewAuthService(users, policy, cfg, log),
		statsService: service.NewStatsService(users, cache, log),
		users:        users,
		flags:        flags,
		cache:        cache,
		loginLimiter: limiter,
	}
}

func (h HandlerSet) Stats() *service.StatsService {
	return h.statsService
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)

	authed := v1.Group("/auth")
	authed.Use(middleware.Auth(h.cfg, h.users))
	authed.GET("/me", h.Me)
	authed.POST("/logout", h.Logout)

	// every /users operation picks exactly one permission axis
	users := v1.Group("/users")
	users.Use(middleware.Auth(h.cfg, h.users))
	users.GET("", middleware.RequirePermission(models.PermissionRead), h.ListUsers)
	users.GET("/stats/overview", middleware.RequirePermission(models.PermissionRead), h.UserStats)
	users.GET("/:id", middleware.RequirePermission(models.PermissionRead), h.GetUser)
	users.PUT("/:id", middleware.RequirePermission(models.PermissionWrite), h.UpdateUser)
	users.DELETE("/:id", middleware.RequirePermission(models.PermissionDelete), h.DeleteUser)

	// admin routes are role-gated, except the flag area which is guarded by
	// the flag_access capability alone - holders with a plain user role get in
	admin := v1.Group("/admin")
	admin.Use(middleware.Auth(h.cfg, h.users))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	admin.GET("/dashboard", adminOnly, h.AdminDashboard)
	admin.PUT("/users/:id/role", adminOnly, h.UpdateUserRole)
	admin.GET("/logs", adminOnly, h.AdminLogs)

	flagAccess := middleware.RequirePermission(models.PermissionFlagAccess)
	admin.GET("/flags", flagAccess, h.ListFlags)
	admin.GET("/flags/:id", flagAccess, h.GetFlag)
}
