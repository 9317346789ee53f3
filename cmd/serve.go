package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"userapi/internal/config"
	"userapi/internal/handlers"
	"userapi/internal/logger"
	"userapi/internal/repository"
	"userapi/internal/server"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// secret and KDF parameters are checked here, not on the first request
	hasher, err := newHasher(cfg)
	if err != nil {
		log.Errorw("invalid hash configuration", "err", err)
		return err
	}

	conn, err := openDB(cfg)
	if err != nil {
		log.Errorw("failed to init database", "driver", cfg.DB.Driver, "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, hasher)
	if cfg.Log.Level != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	apiHandler := handlers.NewHandler(services, log, handlers.WithStrictErrors(cfg.API.StrictErrors))

	srv := &server.Server{Timeouts: server.Timeouts{
		ReadHeader: cfg.Server.ReadHeaderTimeout,
		Write:      cfg.Server.WriteTimeout,
		Idle:       cfg.Server.IdleTimeout,
	}}
	errCh := runHTTPServer(srv, cfg.Port, apiHandler, log)

	return waitForShutdown(srv, cfg, errCh, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "port", port)
		errCh <- srv.Run(port, handler.InitRoutes())
	}()
	return errCh
}

// waitForShutdown blocks until a termination signal or a server failure, then drains in-flight requests.
func waitForShutdown(srv *server.Server, cfg config.Config, errCh <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorw("error starting server", "err", err)
		}
		return err
	case sig := <-quit:
		log.Infow("shutting down server...", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return nil
}
