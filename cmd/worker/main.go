package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/dunning/backend/internal/metrics"
	"github.com/OFFIS-RIT/dunning/backend/internal/queue"
	"github.com/OFFIS-RIT/dunning/backend/internal/storage"
	"github.com/OFFIS-RIT/dunning/backend/internal/util"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger/console"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  util.GetEnvBool("DEBUG", false),
		Format: util.GetEnv("LOG_FORMAT"),
	})
	logger.Init(consoleLogger)

	graph, err := storage.OpenGraphStore(ctx)
	if err != nil {
		logger.Fatal("Failed to open graph store", "err", err)
	}
	defer graph.Close(context.Background())

	opts, err := storage.LoaderOptions(ctx, graph)
	if err != nil {
		logger.Fatal("Failed to configure loader", "err", err)
	}
	l := loader.New(graph, append(opts, loader.WithObserver(metrics.NewLoadObserver()))...)
	dataFile := util.DataFile()

	// Init rabbitmq
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

	process := func(ctx context.Context, req queue.LoadRequest) error {
		path := req.Path
		if path == "" {
			path = dataFile
		}
		stats, err := l.Load(ctx, path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		logger.Info("Load finished", "path", path, "interactions", stats.InteractionsLoaded, "errors", len(stats.Errors))
		return nil
	}

	// metrics endpoint for the worker process
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", metrics.Handler())
	metricsPort := util.GetEnvString("METRICS_PORT", "9090")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.Consume(gctx, ch, process)
	})
	g.Go(func() error {
		if err := e.Start(":" + metricsPort); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return e.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
