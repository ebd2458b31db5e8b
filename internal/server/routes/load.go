package routes

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/dunning/backend/internal/queue"
	"github.com/OFFIS-RIT/dunning/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"
	s3loader "github.com/OFFIS-RIT/dunning/backend/pkg/loader/s3"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type loadBody struct {
	Path string `json:"path" validate:"omitempty,max=2048"`
	// Async hands the request to the worker instead of loading inline.
	Async bool `json:"async"`
}

func LoadHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	var body loadBody
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if err := c.Validate(&body); err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
	}
	path := app.DataFile
	if body.Path != "" {
		p, ok := resolveDataPath(app.DataDir, body.Path)
		if !ok {
			return fail(c, http.StatusBadRequest, "Path is outside the data directory")
		}
		path = p
	}

	if body.Async {
		if app.Queue == nil {
			return fail(c, http.StatusBadRequest, "Load queue is not configured")
		}
		if err := queue.PublishLoad(c.Request().Context(), app.Queue, queue.LoadRequest{Path: path}); err != nil {
			return serverError(c, "Failed to enqueue load", err)
		}
		logger.Info("[Server] Load enqueued", "path", path)
		return c.JSON(http.StatusAccepted, envelope{Success: true, Data: map[string]string{"path": path}, Timestamp: timestamp()})
	}

	if !app.LoadMu.TryLock() {
		return fail(c, http.StatusConflict, "A load is already running")
	}
	defer app.LoadMu.Unlock()

	// The graph is already reset when the first record is written, so a
	// client going away must not stop the load halfway.
	stats, err := app.Loader.Load(context.WithoutCancel(c.Request().Context()), path)
	if errors.Is(err, loader.ErrLoadInProgress) {
		return fail(c, http.StatusConflict, "A load is already running")
	}
	if err != nil {
		return serverError(c, "Load failed", err)
	}
	return ok(c, stats)
}

// resolveDataPath maps a requested dataset path to one the server may read.
// Object store paths pass through; local paths are resolved against dir and
// must stay inside it.
func resolveDataPath(dir, path string) (string, bool) {
	if strings.HasPrefix(path, s3loader.Scheme) {
		return path, true
	}
	if dir == "" {
		return "", false
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}
