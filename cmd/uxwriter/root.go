package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"example.com/uxwriter/internal/config"
	"example.com/uxwriter/internal/ledger"
	"example.com/uxwriter/internal/storage"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "uxwriter",
		Short: "Generate UX copy with AI, paid for in credits",
		Long: `uxwriter generates microcopy, error messages, onboarding text and tooltips
through an OpenAI-compatible completion API. Each generation costs one credit;
credits are bought in fixed plans through a simulated checkout.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newCreditsCmd(),
		newBuyCmd(),
		newPlansCmd(),
		newCategoriesCmd(),
		newGenerateCmd(),
		newCredentialCmd(),
	)

	return root
}

// local is the single-user workspace the CLI commands operate on.
type local struct {
	cfg    config.Config
	logger *slog.Logger
	store  storage.Store
}

// openLocal загружает конфигурацию и открывает локальное хранилище.
// CLI logs go to stderr so stdout carries only command output.
func openLocal(cmd *cobra.Command) (*local, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	store, err := storage.Open(cmd.Context(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	return &local{cfg: cfg, logger: logger, store: store}, nil
}

func (l *local) ledger(ctx context.Context) (*ledger.Ledger, error) {
	return ledger.Initialize(ctx, l.store, l.cfg.Credits.DefaultBalance, ledger.WithLogger(l.logger))
}

func (l *local) Close() {
	if err := l.store.Close(); err != nil {
		l.logger.Error("failed to close storage", slog.String("error", err.Error()))
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
