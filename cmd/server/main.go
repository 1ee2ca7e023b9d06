package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/suraj-driod/swa-antarang/internal/buildinfo"
	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/server"
	"github.com/suraj-driod/swa-antarang/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	log := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app, err := server.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start server", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error(ctx, "server stopped with error", "error", err)
		os.Exit(1)
	}
}
