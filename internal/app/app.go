package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopvio/shop-session-service/internal/config"
	"github.com/shopvio/shop-session-service/internal/observability"
	"github.com/shopvio/shop-session-service/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Sessions      *service.SessionService
	Observability *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, sessions *service.SessionService, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Sessions: sessions, Observability: runtime}
}

// Run serves HTTP and the session sweeper until ctx is cancelled, then shuts
// both down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.Config.SweepInterval > 0 {
		g.Go(func() error {
			err := a.Sessions.RunSweeper(gctx, a.Config.SweepInterval, a.Logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if a.Observability != nil {
		obsCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := a.Observability.Shutdown(obsCtx); shutdownErr != nil {
			a.Logger.Error("observability shutdown failed", "error", shutdownErr)
		}
	}
	return err
}
