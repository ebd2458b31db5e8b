package routes

import (
	"net/http"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Total     *int   `json:"total,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Timestamp: timestamp()})
}

func okList[T any](c echo.Context, data []T) error {
	if data == nil {
		data = []T{}
	}
	total := len(data)
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Total: &total, Timestamp: timestamp()})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Error: message, Timestamp: timestamp()})
}

// serverError logs err and answers 500 with message only.
func serverError(c echo.Context, message string, err error) error {
	logger.Error("[Server] "+message, "path", c.Path(), "err", err)
	return fail(c, http.StatusInternalServerError, message)
}
