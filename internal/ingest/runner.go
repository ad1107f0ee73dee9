package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
	"github.com/MikeSquared-Agency/parrot/internal/hermes"
	"github.com/MikeSquared-Agency/parrot/internal/store"
)

// Config holds the ingest command configuration.
type Config struct {
	Dir           string
	SingleFile    string // ingest a single file only
	StatePath     string
	DryRun        bool
	MinMessages   int
	CollapseTurns bool
	Extensions    []string // default: .txt
}

// ConversationWriter persists parsed conversations.
type ConversationWriter interface {
	WriteConversation(ctx context.Context, c store.Conversation) (uuid.UUID, error)
}

// Publisher emits events about ingested conversations.
type Publisher interface {
	Publish(subject string, data any) error
}

// Runner orchestrates a directory ingest.
type Runner struct {
	cfg       Config
	store     ConversationWriter
	publisher Publisher
	logger    *slog.Logger
}

// NewRunner creates an ingest runner. store may be nil for dry runs and
// publisher may be nil to skip events.
func NewRunner(cfg Config, s ConversationWriter, p Publisher, logger *slog.Logger) *Runner {
	if cfg.MinMessages < 1 {
		cfg.MinMessages = 1
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".txt"}
	}
	return &Runner{
		cfg:       cfg,
		store:     s,
		publisher: p,
		logger:    logger,
	}
}

type parsedFile struct {
	path   string
	parser *chatlog.Parser
	fp     fingerprint
}

// Run ingests every pending export and returns a per-file report.
func (r *Runner) Run(ctx context.Context) ([]FileSummary, error) {
	if r.store == nil && !r.cfg.DryRun {
		return nil, fmt.Errorf("ingest: no store configured (use dry run)")
	}

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	r.logger.Info("files discovered", "files", len(files))

	var summaries []FileSummary
	var parsed []parsedFile

	for _, path := range files {
		if state.IsProcessed(path) {
			continue
		}
		p, err := chatlog.ParseFile(path,
			chatlog.WithTurnCollapsing(r.cfg.CollapseTurns),
			chatlog.WithLogger(r.logger),
		)
		if err != nil {
			r.logger.Warn("failed to parse chat export", "path", path, "error", err)
			state.AddError(fmt.Sprintf("parse %s: %v", path, err))
			summaries = append(summaries, FileSummary{Path: path, Status: StatusError})
			continue
		}
		if p.Len() < r.cfg.MinMessages {
			summaries = append(summaries, summarize(path, p, StatusTooShort))
			continue
		}
		parsed = append(parsed, parsedFile{path: path, parser: p, fp: buildFingerprint(path, p.RawMessages())})
	}

	fps := make([]fingerprint, len(parsed))
	for i, pf := range parsed {
		fps[i] = pf.fp
	}
	duplicates := findDuplicates(fps)

	var pending []parsedFile
	for _, pf := range parsed {
		if duplicates[pf.path] {
			r.logger.Info("skipping duplicate export", "path", pf.path)
			if !r.cfg.DryRun {
				state.DuplicatesSkipped++
				state.MarkProcessed(pf.path)
			}
			summaries = append(summaries, summarize(pf.path, pf.parser, StatusDuplicate))
			continue
		}
		pending = append(pending, pf)
	}

	state.FilesRemaining = len(pending)
	r.logger.Info("files to ingest",
		"total", len(pending),
		"duplicates", len(duplicates),
	)

	for _, pf := range pending {
		select {
		case <-ctx.Done():
			r.logger.Info("ingest interrupted, saving state")
			_ = state.Save()
			return summaries, ctx.Err()
		default:
		}

		summary := summarize(pf.path, pf.parser, StatusStored)
		if r.cfg.DryRun {
			summary.Status = StatusDryRun
		} else {
			id, err := r.persist(ctx, pf)
			if err != nil {
				r.logger.Error("persist failed", "path", pf.path, "error", err)
				state.AddError(fmt.Sprintf("persist %s: %v", pf.path, err))
				summary.Status = StatusError
				summaries = append(summaries, summary)
				continue
			}
			summary.ConversationID = id
			state.ConversationsStored++
			state.EntriesStored += pf.parser.Len()
			r.publish(pf, id)
		}

		r.logger.Info("export ingested",
			"path", pf.path,
			"entries", summary.Entries,
			"dropped", summary.Dropped,
			"dry_run", r.cfg.DryRun,
		)

		summaries = append(summaries, summary)
		if !r.cfg.DryRun {
			state.MarkProcessed(pf.path)
		}
		state.FilesRemaining--
		_ = state.Save()
	}

	if err := state.Save(); err != nil {
		return summaries, fmt.Errorf("save state: %w", err)
	}

	r.logger.Info("ingest complete",
		"files", len(summaries),
		"conversations_stored", state.ConversationsStored,
		"duplicates_skipped", state.DuplicatesSkipped,
		"errors", len(state.Errors),
		"dry_run", r.cfg.DryRun,
	)

	return summaries, nil
}

func (r *Runner) persist(ctx context.Context, pf parsedFile) (uuid.UUID, error) {
	main, err := pf.parser.MainSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return r.store.WriteConversation(ctx, store.Conversation{
		SourcePath:  pf.path,
		MainSubject: main,
		Subjects:    pf.parser.Subjects(),
		Entries:     pf.parser.Entries(),
		RawMessages: len(pf.parser.RawMessages()),
		Dropped:     pf.parser.Dropped(),
	})
}

func (r *Runner) publish(pf parsedFile, id uuid.UUID) {
	if r.publisher == nil {
		return
	}
	main, _ := pf.parser.MainSubject()
	evt := hermes.ConversationParsed{
		SourcePath:  pf.path,
		MainSubject: main,
		Subjects:    pf.parser.Subjects(),
		Entries:     pf.parser.Entries(),
		RawMessages: len(pf.parser.RawMessages()),
		Dropped:     pf.parser.Dropped(),
	}
	if id != uuid.Nil {
		evt.ConversationID = id.String()
	}
	if err := r.publisher.Publish(hermes.SubjectConversationParsed, evt); err != nil {
		r.logger.Warn("failed to publish conversation event", "path", pf.path, "error", err)
	}
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.SingleFile != "" {
		path := ExpandHome(r.cfg.SingleFile)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("single file not found: %s", path)
		}
		return []string{path}, nil
	}

	dir := ExpandHome(r.cfg.Dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("error walking export dir", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() && r.hasExtension(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) hasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range r.cfg.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
