// Package app manages the lifecycle of the long-running followbot process:
// the HTTP trigger and the task scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Scheduler is started once and stopped on shutdown.
type Scheduler interface {
	Start() error
	Stop() error
}

// App runs the trigger server and the scheduler until its context ends.
type App struct {
	logger    *slog.Logger
	server    *http.Server
	scheduler Scheduler
}

// NewApp creates an App. A nil server runs the scheduler alone.
func NewApp(logger *slog.Logger, server *http.Server, scheduler Scheduler) *App {
	return &App{
		logger:    logger.With("component", "app"),
		server:    server,
		scheduler: scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. Components are shut down gracefully either way.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting followbot")

	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.logger.Info("Starting HTTP trigger", "addr", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			a.logger.Info("Stopping HTTP trigger")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), shutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("Error stopping HTTP trigger", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler")
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Followbot stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Followbot stopped gracefully")
	return nil
}
