package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
	"github.com/MikeSquared-Agency/parrot/internal/export"
)

type exportOptions struct {
	format       string
	output       string
	collapse     bool
	mainSubject  string
	renames      []string
	systemPrompt string
}

func newExportCmd(a *app) *cobra.Command {
	var opts exportOptions
	var noCollapse bool

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Convert a chat export into a dataset file",
		Long: `Parse a chat export and write it in one of the supported formats:
csv, jsonl, prompt-completion, chat, chat-single. The dataset formats
(prompt-completion, chat, chat-single) must be written to a .jsonl file.

--main-subject is applied before any --rename.

Examples:
  parrot export chat.txt -f csv -o chat.csv
  parrot export chat.txt -f chat-single -o chat.jsonl --main-subject Bob
  parrot export chat.txt -f jsonl -o chat.jsonl --rename "Alice Smith=user"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.collapse = a.cfg.CollapseTurns && !noCollapse
			opts.systemPrompt = a.cfg.SystemPrompt
			return runExport(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format (csv, jsonl, prompt-completion, chat, chat-single)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path")
	cmd.Flags().BoolVar(&noCollapse, "no-collapse", false, "Keep consecutive messages from the same sender separate")
	cmd.Flags().StringVar(&opts.mainSubject, "main-subject", "", "Make this sender the main subject")
	cmd.Flags().StringArrayVar(&opts.renames, "rename", nil, "Rename a sender, as old=new (repeatable)")
	cmd.MarkFlagRequired("format")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(w io.Writer, path string, opts exportOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if err := export.CheckPath(opts.output, format); err != nil {
		return err
	}
	renames, err := parseRenames(opts.renames)
	if err != nil {
		return err
	}

	p, err := chatlog.ParseFile(path,
		chatlog.WithTurnCollapsing(opts.collapse),
		chatlog.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	if opts.mainSubject != "" {
		if err := p.SetMainSubject(opts.mainSubject); err != nil {
			return err
		}
	}
	for _, r := range renames {
		if err := p.ReplaceSubject(r[0], r[1]); err != nil {
			return err
		}
	}

	main, err := p.MainSubject()
	if err != nil {
		return err
	}
	entries := p.Entries()
	if err := export.Save(opts.output, format, entries, export.Options{
		SystemPrompt: opts.systemPrompt,
		MainSubject:  main,
	}); err != nil {
		return err
	}

	slog.Info("export written", "source", path, "format", format, "output", opts.output, "entries", len(entries))
	fmt.Fprintf(w, "Wrote %d entries to %s (%s)\n", len(entries), opts.output, format)
	return nil
}

// parseRenames splits old=new flag values.
func parseRenames(values []string) ([][2]string, error) {
	out := make([][2]string, 0, len(values))
	for _, v := range values {
		oldName, newName, ok := strings.Cut(v, "=")
		oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
		if !ok || oldName == "" || newName == "" {
			return nil, fmt.Errorf("invalid rename %q, want old=new", v)
		}
		out = append(out, [2]string{oldName, newName})
	}
	return out, nil
}
