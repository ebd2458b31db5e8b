package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/dunning/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetAgentsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	agents, err := app.Timeline.ListAgents(c.Request().Context())
	if err != nil {
		return serverError(c, "Failed to list agents", err)
	}
	return okList(c, agents)
}

func GetAgentScorecardHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	card, err := app.Analytics.GetAgentScorecard(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serverError(c, "Failed to compute scorecard", err)
	}
	if card == nil {
		return fail(c, http.StatusNotFound, "Agent not found")
	}
	return ok(c, card)
}
