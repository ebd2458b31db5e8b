package routes

import (
	"net/http"
	"strconv"

	"github.com/OFFIS-RIT/dunning/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dunning/backend/pkg/timeline"

	"github.com/labstack/echo/v4"
)

const defaultTimelineLimit = 50

func GetClientsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	clients, err := app.Timeline.ListClients(c.Request().Context())
	if err != nil {
		return serverError(c, "Failed to list clients", err)
	}
	return okList(c, clients)
}

func GetClientHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	id := c.Param("id")

	client, err := app.Timeline.GetClient(c.Request().Context(), id)
	if err != nil {
		return serverError(c, "Failed to get client", err)
	}
	if client == nil {
		return fail(c, http.StatusNotFound, "Client not found")
	}
	return ok(c, client)
}

func timelineFilters(c echo.Context) timeline.Filters {
	limit := defaultTimelineLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			limit = n
		}
	}
	return timeline.Filters{
		DateFrom:         c.QueryParam("dateFrom"),
		DateTo:           c.QueryParam("dateTo"),
		InteractionTypes: timeline.SplitList(c.QueryParam("interactionTypes")),
		AgentIDs:         timeline.SplitList(c.QueryParam("agentIds")),
		Limit:            limit,
	}
}

func GetClientTimelineHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	id := c.Param("id")

	tl, err := app.Timeline.GetClientTimeline(c.Request().Context(), id, timelineFilters(c))
	if err != nil {
		return serverError(c, "Failed to build timeline", err)
	}
	if tl == nil {
		return fail(c, http.StatusNotFound, "Client not found")
	}
	return ok(c, tl)
}
