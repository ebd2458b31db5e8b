package server

import (
	"net/http"

	"github.com/OFFIS-RIT/dunning/backend/internal/metrics"
	"github.com/OFFIS-RIT/dunning/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dunning/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		app := c.(*middleware.AppContext).App
		if !app.Store.TestConnection(c.Request().Context()) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", metrics.Handler())

	apiRoutes := e.Group("/api")

	// Ingestion
	apiRoutes.POST("/load", routes.LoadHandler, middleware.AuthMiddleware, middleware.RequirePermission(middleware.PermissionLoad))

	// Client routes
	apiRoutes.GET("/clients", routes.GetClientsHandler)
	apiRoutes.GET("/clients/:id", routes.GetClientHandler)
	apiRoutes.GET("/clients/:id/timeline", routes.GetClientTimelineHandler)

	// Agent routes
	apiRoutes.GET("/agents", routes.GetAgentsHandler)
	apiRoutes.GET("/agents/:id/scorecard", routes.GetAgentScorecardHandler)

	// Analytics routes
	apiRoutes.GET("/analytics/breached-promises", routes.GetBreachedPromisesHandler)
	apiRoutes.GET("/analytics/hourly-effectiveness", routes.GetHourlyEffectivenessHandler)
	apiRoutes.GET("/analytics/agent-scorecards", routes.GetAgentScorecardsHandler)
	apiRoutes.GET("/analytics/graph", routes.GetRelationshipGraphHandler)
}
