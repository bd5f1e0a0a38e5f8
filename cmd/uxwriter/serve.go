package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/uxwriter/internal/config"
	"example.com/uxwriter/internal/server"
	"example.com/uxwriter/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	e, err := server.New(cfg, logger, server.Dependencies{Store: store})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	httpServer := server.NewHTTPServer(cfg.Server, e)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started",
			slog.String("addr", httpServer.Addr),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
			slog.String("ai_provider", cfg.AI.Provider),
		)
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
			return err
		}
		logger.Info("http server stopped")
		return nil
	})

	return g.Wait()
}
