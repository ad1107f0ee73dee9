package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parrot/internal/hermes"
	"github.com/MikeSquared-Agency/parrot/internal/ingest"
	"github.com/MikeSquared-Agency/parrot/internal/store"
)

func newIngestCmd(a *app) *cobra.Command {
	var cfg ingest.Config
	var noCollapse bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Parse a directory of chat exports into Postgres",
		Long: `Walk a directory of chat exports, skip re-exports of the same chat,
parse each file and store the conversation. Progress is saved to a state
file so an interrupted run resumes where it stopped.

Examples:
  parrot ingest --dir ~/exports
  parrot ingest --file ~/exports/chat.txt
  parrot ingest --dir ~/exports --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Dir == "" && cfg.SingleFile == "" {
				return errors.New("one of --dir or --file is required")
			}
			if cfg.StatePath == "" {
				cfg.StatePath = a.cfg.StatePath
			}
			cfg.CollapseTurns = a.cfg.CollapseTurns && !noCollapse
			return runIngest(cmd, a, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Dir, "dir", "", "Directory of chat exports")
	cmd.Flags().StringVar(&cfg.SingleFile, "file", "", "Ingest a single export")
	cmd.Flags().StringVar(&cfg.StatePath, "state", "", "State file (default PARROT_STATE_PATH)")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Parse and report without storing")
	cmd.Flags().IntVar(&cfg.MinMessages, "min-messages", 1, "Skip exports with fewer entries")
	cmd.Flags().StringSliceVar(&cfg.Extensions, "ext", []string{".txt"}, "File extensions to ingest")
	cmd.Flags().BoolVar(&noCollapse, "no-collapse", false, "Keep consecutive messages from the same sender separate")
	cmd.MarkFlagsMutuallyExclusive("dir", "file")

	return cmd
}

func runIngest(cmd *cobra.Command, a *app, cfg ingest.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var writer ingest.ConversationWriter
	var publisher ingest.Publisher

	if !cfg.DryRun {
		if a.cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required (or use --dry-run)")
		}
		db, err := store.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		writer = db
		slog.Info("database connected")

		if a.cfg.NatsURL != "" {
			connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			hc, err := hermes.NewClient(connectCtx, a.cfg.NatsURL, a.cfg.NatsToken, slog.Default())
			cancel()
			if err != nil {
				slog.Warn("NATS unavailable, ingesting without events", "error", err)
			} else {
				defer hc.Close()
				publisher = hc
				slog.Info("NATS connected", "url", a.cfg.NatsURL)
			}
		}
	}

	runner := ingest.NewRunner(cfg, writer, publisher, slog.Default())
	summaries, err := runner.Run(ctx)
	ingest.WriteSummary(cmd.OutOrStdout(), summaries)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		if s.Status == ingest.StatusError {
			slog.Warn("some exports failed, see state file", "state", ingest.ExpandHome(cfg.StatePath))
			break
		}
	}
	return nil
}
