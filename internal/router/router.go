package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/shoply/catalog-api/internal/config"
	"github.com/shoply/catalog-api/internal/handler"
	"github.com/shoply/catalog-api/internal/middleware"
	"github.com/shoply/catalog-api/internal/session"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and their
// middleware.  The whole /api/auth group sits behind the Redis token
// bucket, and the session loader runs on it so login can regenerate a
// pre-existing session and logout can find the one to tear down.  The
// bearer token is the only credential for protected endpoints; the session
// cookie never authorizes resource access.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, store *session.Store, rdb *redis.Client, cfg config.Config) {
	g := e.Group("/api/auth")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.Use(middleware.LoadSession(store, cfg.SessionSecret))

	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	// Logout and profile require a valid bearer token.  Logout additionally
	// consumes the loaded session context; calling it with no live session
	// is still a 200 (idempotent logout).
	g.POST("/logout", a.Logout, middleware.JWTAuth(cfg.JWTSecret))
	g.GET("/profile", a.Profile, middleware.JWTAuth(cfg.JWTSecret))
}

// RegisterUsers registers the public user lookup plus the authenticated
// profile mutation endpoints.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, cfg config.Config) {
	e.GET("/api/users/:id", u.GetByID)

	auth := e.Group("/api/users", middleware.JWTAuth(cfg.JWTSecret))
	auth.PUT("/profile", u.UpdateProfile)
	auth.DELETE("/account", u.DeleteAccount)
}

// RegisterProducts registers the catalog endpoints.  Reads are public;
// writes require a bearer token.
func RegisterProducts(e *echo.Echo, p *handler.ProductHandler, cfg config.Config) {
	e.GET("/api/products", p.List)
	e.GET("/api/products/:id", p.GetByID)

	auth := e.Group("/api/products", middleware.JWTAuth(cfg.JWTSecret))
	auth.POST("", p.Create)
	auth.GET("/mine", p.Mine)
	auth.PUT("/:id", p.Update)
	auth.DELETE("/:id", p.Delete)
}
