package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"shelter-clinical-records/internal/router"
)

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	if env.cfg.Session.Ephemeral {
		env.log.Warn("SESSION_SECRET not set; using an ephemeral secret (sessions end on restart)", nil)
	}

	app, err := router.New(router.Options{Config: env.cfg, DB: env.db, Logger: env.log})
	if err != nil {
		return err
	}
	if n, err := app.Sessions.PurgeExpired(ctx); err != nil {
		env.log.Warn("purge expired sessions failed", map[string]any{"err": err})
	} else if n > 0 {
		env.log.Info("expired sessions purged", map[string]any{"count": n})
	}

	srv := router.Server(env.cfg.Server, app.Handler)
	errCh := make(chan error, 1)
	go func() {
		env.log.Info("starting server", map[string]any{"addr": srv.Addr, "env": env.cfg.App.Environment, "driver": env.cfg.Database.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			env.log.Error("server error", map[string]any{"err": err})
		}
		return err
	case <-ctx.Done():
	}

	env.log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
