package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/dunning/backend/internal/metrics"
	"github.com/OFFIS-RIT/dunning/backend/internal/queue"
	"github.com/OFFIS-RIT/dunning/backend/internal/server"
	mid "github.com/OFFIS-RIT/dunning/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dunning/backend/internal/storage"
	"github.com/OFFIS-RIT/dunning/backend/internal/util"
	"github.com/OFFIS-RIT/dunning/backend/pkg/analytics"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger/console"
	"github.com/OFFIS-RIT/dunning/backend/pkg/timeline"

	"github.com/MicahParks/keyfunc/v3"
)

func main() {
	util.LoadEnv()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnv("LOG_FORMAT"),
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graph, err := storage.OpenGraphStore(ctx)
	if err != nil {
		logger.Fatal("Failed to open graph store", "err", err)
	}
	defer graph.Close(context.Background())

	opts, err := storage.LoaderOptions(ctx, graph)
	if err != nil {
		logger.Fatal("Failed to configure loader", "err", err)
	}
	opts = append(opts, loader.WithObserver(metrics.NewLoadObserver()))

	app := &mid.App{
		Store:        graph,
		Loader:       loader.New(graph, opts...),
		Timeline:     timeline.NewService(graph),
		Analytics:    analytics.NewEngine(graph),
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		DataFile:     util.DataFile(),
		DataDir:      util.DataDir(),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Key = k
	}

	if queue.Configured() {
		conn := queue.Init(ctx)
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch); err != nil {
			logger.Fatal("Failed to declare queues", "err", err)
		}
		app.Queue = ch
	}

	port := util.GetEnvString("PORT", "8080")
	if err := server.Run(ctx, server.New(app), port); err != nil {
		logger.Error("Server stopped with error", "err", err)
	}
}
