package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/handler"
)

const shutdownTimeout = 30 * time.Second

// runServer поднимает HTTP API и ждёт отмены ctx для graceful shutdown.
func (a *App) runServer(ctx context.Context) error {
	if a.config.Admin.SeedOnStart {
		if err := a.seedAdmin(ctx); err != nil {
			a.logger.Error("admin seed failed", "error", err)
		}
	}

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           a.auth,
		Admin:          a.admin,
		Health:         a.health,
		Logger:         a.logger,
		RequestTimeout: a.config.RequestTimeout,
		CORSOrigins:    a.config.CORSOrigins,
	})

	serverAddr := fmt.Sprintf(":%s", a.config.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", serverAddr, err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("server stopped")
	return nil
}
