package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
)

const previewWidth = 80

func newInspectCmd(a *app) *cobra.Command {
	var noCollapse bool
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show what parrot extracts from a chat export",
		Long: `Parse a chat export and print its subjects, the first entries and
the first raw messages, without writing anything.

Examples:
  parrot inspect chat.txt
  parrot inspect chat.txt --no-collapse -n 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collapse := a.cfg.CollapseTurns && !noCollapse
			return runInspect(cmd.OutOrStdout(), args[0], collapse, limit)
		},
	}

	cmd.Flags().BoolVar(&noCollapse, "no-collapse", false, "Keep consecutive messages from the same sender separate")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of entries and raw messages to show")

	return cmd
}

func runInspect(w io.Writer, path string, collapse bool, limit int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chat export: %w", err)
	}
	p, err := chatlog.ParseBytes(data,
		chatlog.WithTurnCollapsing(collapse),
		chatlog.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	main, _ := p.MainSubject()
	raw := p.RawMessages()
	entries := p.Entries()

	fmt.Fprintf(w, "File:          %s\n", path)
	fmt.Fprintf(w, "Main subject:  %s\n", main)
	fmt.Fprintf(w, "Subjects:      %s\n", strings.Join(p.Subjects(), ", "))
	fmt.Fprintf(w, "Raw messages:  %d (%d dropped)\n", len(raw), p.Dropped())
	fmt.Fprintf(w, "Wrapped lines: %d\n", chatlog.CountContinuations(string(data)))
	fmt.Fprintf(w, "Entries:       %d (collapsed: %t)\n\n", len(entries), collapse)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Subject", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, e := range head(entries, limit) {
		table.Append([]string{strconv.Itoa(i + 1), e.Subject, truncate(e.Message, previewWidth)})
	}
	table.Render()

	fmt.Fprintln(w, "\nRaw messages:")
	for _, m := range head(raw, limit) {
		fmt.Fprintf(w, "  %s\n", truncate(m, previewWidth))
	}
	return nil
}

func head[T any](items []T, n int) []T {
	if n < 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
