package router

import (
	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/handler"
	"tourboat-booking/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication and no
// other middleware.  Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the operator authentication endpoints under
// /v1/auth.  Only logout requires an existing session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))
}
