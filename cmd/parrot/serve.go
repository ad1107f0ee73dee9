package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parrot/internal/api"
	"github.com/MikeSquared-Agency/parrot/internal/hermes"
	"github.com/MikeSquared-Agency/parrot/internal/processor"
	"github.com/MikeSquared-Agency/parrot/internal/store"
)

// exportQueue is the NATS queue group shared by parrot instances.
const exportQueue = "parrot-export"

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the NATS export worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg
	slog.Info("parrot starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Database (optional: without it the conversation routes return 503)
	var conversations api.ConversationStore
	var writer processor.ConversationWriter
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		conversations = db
		writer = db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, running without conversation storage")
	}

	// NATS/Hermes
	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	hermesClient, err := hermes.NewClient(connectCtx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	connectCancel()
	if err != nil {
		return err
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	proc := processor.New(writer, hermesClient, cfg.SystemPrompt, cfg.CollapseTurns, slog.Default())
	if err := hermesClient.QueueSubscribe(hermes.SubjectExportRequested, exportQueue, proc.HandleExportRequested); err != nil {
		return err
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, api.Options{
		Store:         conversations,
		SystemPrompt:  cfg.SystemPrompt,
		CollapseTurns: cfg.CollapseTurns,
		Logger:        slog.Default(),
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Announce registration
	if err := hermesClient.Publish(hermes.SubjectRegistered, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
		"storage":   conversations != nil,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("parrot ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("HTTP shutdown failed", "error", err)
	}
	slog.Info("parrot stopped")
	return nil
}
