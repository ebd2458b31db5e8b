package middleware

import (
	"sync"

	"github.com/OFFIS-RIT/dunning/backend/internal/queue"
	"github.com/OFFIS-RIT/dunning/backend/pkg/analytics"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"
	"github.com/OFFIS-RIT/dunning/backend/pkg/store"
	"github.com/OFFIS-RIT/dunning/backend/pkg/timeline"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	Subject     string
	Role        string
	Permissions []string
}

type App struct {
	Store     store.GraphStore
	Loader    *loader.Loader
	Timeline  *timeline.Service
	Analytics *analytics.Engine

	// Queue is nil when RabbitMQ is not configured.
	Queue queue.Publisher
	// Key is nil when AUTH_URL is not configured.
	Key          keyfunc.Keyfunc
	MasterAPIKey string
	DataFile     string
	// DataDir bounds the local paths a load request may name.
	DataDir string

	// LoadMu serializes ingestion cycles started over HTTP.
	LoadMu sync.Mutex
}

// AuthEnabled reports whether bearer auth is configured at all.
func (a *App) AuthEnabled() bool {
	return a.Key != nil || a.MasterAPIKey != ""
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
