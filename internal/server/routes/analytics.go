package routes

import (
	"github.com/OFFIS-RIT/dunning/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func GetBreachedPromisesHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	breached, err := app.Analytics.GetBreachedPromises(c.Request().Context())
	if err != nil {
		return serverError(c, "Failed to compute breached promises", err)
	}
	return okList(c, breached)
}

func GetHourlyEffectivenessHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	hourly, err := app.Analytics.GetHourlyEffectiveness(c.Request().Context())
	if err != nil {
		return serverError(c, "Failed to compute hourly effectiveness", err)
	}
	return okList(c, hourly)
}

func GetAgentScorecardsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	cards, err := app.Analytics.GetAgentScorecards(c.Request().Context())
	if err != nil {
		return serverError(c, "Failed to compute agent scorecards", err)
	}
	return okList(c, cards)
}

func GetRelationshipGraphHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	graph, err := app.Analytics.GetRelationshipGraph(c.Request().Context())
	if err != nil {
		return serverError(c, "Failed to build relationship graph", err)
	}
	return ok(c, graph)
}
