// Package server wires the identity backend: PostgreSQL storage with its
// migrations, the auth service, the HTTP API and the gRPC health service.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/suraj-driod/swa-antarang/internal/logging"
	"github.com/suraj-driod/swa-antarang/internal/server/api"
	"github.com/suraj-driod/swa-antarang/internal/server/config"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/repomanager"
	"github.com/suraj-driod/swa-antarang/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/suraj-driod/swa-antarang/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

// httpServer is the part of api.Server the app drives.
type httpServer interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

type grpcServer interface {
	Run(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   httpServer
	grpc   grpcServer
}

// NewApp connects to the database, applies migrations and builds the servers.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	as := services.NewAuthService(db, rm, c, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   api.NewServer(as, c.AnonKey, logger),
		grpc:   gs.NewGRPCServer(c.GRPCAddr, logger, db),
	}, nil
}

// Run serves until ctx is cancelled or a server fails, then shuts both down.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.http.Start(app.config.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.http.Shutdown(sctx)
	})
	g.Go(func() error {
		return app.grpc.Run(gctx)
	})

	err := g.Wait()
	if cerr := app.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}
