package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/suraj-driod/swa-antarang/internal/buildinfo"
	"github.com/suraj-driod/swa-antarang/internal/client/cli"
	"github.com/suraj-driod/swa-antarang/internal/client/config"
	"github.com/suraj-driod/swa-antarang/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	log := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start client", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
