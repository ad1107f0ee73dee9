package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
	"github.com/MikeSquared-Agency/parrot/internal/export"
	"github.com/MikeSquared-Agency/parrot/internal/hermes"
	"github.com/MikeSquared-Agency/parrot/internal/store"
)

var errNoStore = errors.New("persist requested but no store configured")

// ConversationWriter persists parsed conversations.
type ConversationWriter interface {
	WriteConversation(ctx context.Context, c store.Conversation) (uuid.UUID, error)
}

// Publisher emits export results.
type Publisher interface {
	Publish(subject string, data any) error
}

// Processor serves export requests arriving over NATS.
type Processor struct {
	store        ConversationWriter
	publisher    Publisher
	logger       *slog.Logger
	systemPrompt string
	collapse     bool
}

// New creates a Processor. s may be nil when no database is configured.
func New(s ConversationWriter, pub Publisher, systemPrompt string, collapse bool, logger *slog.Logger) *Processor {
	return &Processor{
		store:        s,
		publisher:    pub,
		logger:       logger,
		systemPrompt: systemPrompt,
		collapse:     collapse,
	}
}

// HandleExportRequested is the NATS handler for swarm.parrot.export.requested.
func (p *Processor) HandleExportRequested(subject string, data []byte) {
	ctx := context.Background()

	var req hermes.ExportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse export request", "subject", subject, "error", err)
		return
	}

	p.logger.Info("processing export request",
		"request_id", req.RequestID,
		"source_path", req.SourcePath,
		"format", req.Format,
		"output_path", req.OutputPath,
	)

	result, err := p.Export(ctx, req)
	if err != nil {
		p.logger.Error("export failed", "request_id", req.RequestID, "error", err)
		result.Error = err.Error()
		p.publish(hermes.SubjectExportFailed, result)
		return
	}

	p.logger.Info("export completed",
		"request_id", req.RequestID,
		"output_path", result.OutputPath,
		"entries", result.Entries,
		"conversation_id", result.ConversationID,
	)
	p.publish(hermes.SubjectExportCompleted, result)
}

// Export parses the requested chat export and writes it in the requested
// format. The returned result is populated as far as processing got.
func (p *Processor) Export(ctx context.Context, req hermes.ExportRequest) (hermes.ExportResult, error) {
	result := hermes.ExportResult{
		RequestID:  req.RequestID,
		SourcePath: req.SourcePath,
		Format:     req.Format,
		OutputPath: req.OutputPath,
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return result, err
	}
	if req.OutputPath == "" {
		return result, fmt.Errorf("output path: %w", export.ErrInvalidPath)
	}
	if req.Persist && p.store == nil {
		return result, errNoStore
	}

	parser, err := p.parse(req)
	if err != nil {
		return result, err
	}

	if req.MainSubject != "" {
		if err := parser.SetMainSubject(req.MainSubject); err != nil {
			return result, err
		}
	}

	main, err := parser.MainSubject()
	if err != nil {
		return result, err
	}
	entries := parser.Entries()

	opts := export.Options{SystemPrompt: p.systemPrompt, MainSubject: main}
	if err := export.Save(req.OutputPath, format, entries, opts); err != nil {
		return result, err
	}
	result.Entries = len(entries)

	if req.Persist {
		id, err := p.store.WriteConversation(ctx, store.Conversation{
			SourcePath:  req.SourcePath,
			MainSubject: main,
			Subjects:    parser.Subjects(),
			Entries:     entries,
			RawMessages: len(parser.RawMessages()),
			Dropped:     parser.Dropped(),
		})
		if err != nil {
			return result, fmt.Errorf("persist conversation: %w", err)
		}
		result.ConversationID = id.String()
	}

	return result, nil
}

func (p *Processor) parse(req hermes.ExportRequest) (*chatlog.Parser, error) {
	collapse := p.collapse
	if req.CollapseTurns != nil {
		collapse = *req.CollapseTurns
	}
	opts := []chatlog.Option{
		chatlog.WithTurnCollapsing(collapse),
		chatlog.WithLogger(p.logger),
	}

	if req.Content != "" {
		return chatlog.Parse(req.Content, opts...)
	}
	if req.SourcePath == "" {
		return nil, errors.New("export request has neither content nor source path")
	}
	return chatlog.ParseFile(req.SourcePath, opts...)
}

func (p *Processor) publish(subject string, result hermes.ExportResult) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(subject, result); err != nil {
		p.logger.Warn("failed to publish export result", "subject", subject, "error", err)
	}
}
