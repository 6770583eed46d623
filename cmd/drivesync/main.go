package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/drivesync/internal/buildinfo"
	"github.com/dmitrijs2005/drivesync/internal/client/app"
	"github.com/dmitrijs2005/drivesync/internal/client/config"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
