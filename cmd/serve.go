package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/jobtrail/internal/repositories"
	"github.com/desertthunder/jobtrail/internal/server"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 15 * time.Second

// Serve runs the HTTP API until interrupted, then drains in-flight requests.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := r.handler(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Addr()
	}
	srv := server.NewHTTPServer(addr, handler)

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handler wires the API over the configured database, sync pipeline and authenticator.
func (r *Runner) handler(ctx context.Context) (http.Handler, func(), error) {
	auth, err := server.NewAuthenticator(ctx, r.config.Auth)
	if err != nil {
		return nil, nil, err
	}

	reconciler, cleanup, err := r.newReconciler(ctx)
	if err != nil {
		return nil, nil, hint(err)
	}

	api := server.NewAPI(
		reconciler,
		r.classifier(),
		repositories.NewApplicationRepository(r.db),
		repositories.NewSyncLogRepository(r.db),
		r.logger,
	)
	return server.NewHandler(api, auth, r.config.Server.AllowedOrigin, r.logger), cleanup, nil
}
