package main

import (
	"github.com/labstack/echo/v4"

	"posguard/app"
	"posguard/app/controller/dashboard"
	"posguard/app/controller/health"
)

// AddRoutes registers the local surface: the health probe at the root
// and the dashboard REST and websocket API under /api/v1.
func AddRoutes(e *echo.Echo, container *app.Container) {
	root := e.Group("")
	health.Register(root)

	dashboardHandler := dashboard.NewHandler(
		container.Store,
		container.Monitor,
		container.Diagnostics,
		container.Hub,
		container.AgentID,
	)
	dashboardHandler.RegisterRoutes(e.Group("/api/v1"))
}
