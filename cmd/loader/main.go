package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/dunning/backend/internal/util"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger"
	"github.com/OFFIS-RIT/dunning/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func initLogger() {
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug || util.GetEnvBool("DEBUG", false),
		Format: util.GetEnv("LOG_FORMAT"),
	}))
}
