package routes

import (
	"hostelnotify/internal/auth"
	"hostelnotify/internal/handlers"

	"github.com/labstack/echo/v4"
	limiterpkg "github.com/ulule/limiter/v3"
)

// Roles allowed to push notifications to other users.
var senderRoles = []string{"admin", "warden", "staff"}

func SetupRoutes(api *echo.Group, h *handlers.Handler, jwtSecret string, limiter *limiterpkg.Limiter) {
	// Public routes
	api.GET("/health", handlers.HealthCheck)

	// Protected routes
	notifications := api.Group("/notifications", auth.RateLimitMiddleware(limiter), auth.JWTMiddleware(jwtSecret))
	notifications.POST("/tokens", h.RegisterToken)
	notifications.POST("/send", h.Send, auth.RequireRole(senderRoles...))
}
